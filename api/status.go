package api

import (
	"net/http"

	"github.com/the-lightning-land/smartd/portal"
)

type connectedResponse struct {
	Value string `json:"value"`
}

var verdictCodes = map[portal.Verdict]int{
	portal.VerdictOk:   http.StatusOK,
	portal.VerdictWait: http.StatusCreated,
	portal.VerdictFail: http.StatusInternalServerError,
}

func (a *Api) handleGetConnected() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verdict := a.portal.PollConnection()

		code, ok := verdictCodes[verdict]
		if !ok {
			code = http.StatusInternalServerError
		}

		a.jsonResponse(w, &connectedResponse{
			Value: verdict.String(),
		}, code)
	}
}
