package api

import (
	"encoding/json"
	"net/http"
)

func (a *Api) jsonResponse(w http.ResponseWriter, v interface{}, code int) {
	payload, err := json.Marshal(v)
	if err != nil {
		a.log.Errorf("Could not serialize JSON: %v", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	a.rawJsonResponse(w, payload, code)
}

func (a *Api) rawJsonResponse(w http.ResponseWriter, payload []byte, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	_, err := w.Write(payload)
	if err != nil {
		a.log.Errorf("Could not respond with JSON: %v", err)
	}
}

func (a *Api) textResponse(w http.ResponseWriter, text string, code int) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)

	_, err := w.Write([]byte(text))
	if err != nil {
		a.log.Errorf("Could not respond with text: %v", err)
	}
}

// noCache makes clients fetch the response again on every visit.
func noCache(h http.Header) {
	h.Set("Cache-Control", "no-cache, no-store, must-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "-1")
}
