package api

import (
	"net/http"
)

func (a *Api) handleGetConnections() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a.rawJsonResponse(w, a.portal.Connections(), http.StatusOK)
	}
}

func (a *Api) handlePostConnect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := r.ParseForm()
		if err != nil {
			a.log.Warnf("Could not parse connect form: %v", err)
		}

		ssid := r.FormValue("SSID")
		password := r.FormValue("password")

		// the outcome is reported by /connected
		err = a.portal.Connect(ssid, password)
		if err != nil {
			a.log.Errorf("Could not connect: %v", err)
		}

		a.textResponse(w, "OK", http.StatusOK)
	}
}

func (a *Api) handleMethodNotAllowed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.captivePortal(w, r) {
			return
		}

		a.textResponse(w, "Method Not Allowed", http.StatusMethodNotAllowed)
	}
}
