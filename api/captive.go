package api

import (
	"net"
	"net/http"
)

// captivePortal redirects requests for foreign hosts to the portal and
// reports whether it did. The redirect carries neither a body nor a
// content length, so the connection is closed after the headers.
func (a *Api) captivePortal(w http.ResponseWriter, r *http.Request) bool {
	if !a.portal.IsForeignHost(r.Host) {
		return false
	}

	var local net.IP
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(*net.TCPAddr); ok {
		local = addr.IP
	}

	location := a.portal.RedirectURL(local)

	a.log.Debugf("Redirecting request for %v to captive portal %v", r.Host, location)

	h := w.Header()
	h.Set("Location", location)
	h.Set("Connection", "close")
	// identity encoding without a length makes the server close the
	// connection instead of sending Content-Length: 0
	h.Set("Transfer-Encoding", "identity")
	w.WriteHeader(http.StatusFound)

	return true
}

func (a *Api) captivePortalMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a.captivePortal(w, r) {
			return
		}

		next.ServeHTTP(w, r)
	})
}
