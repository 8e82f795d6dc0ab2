package api

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

func (a *Api) handleNotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.captivePortal(w, r) {
			return
		}

		err := r.ParseForm()
		if err != nil {
			a.log.Debugf("Could not parse arguments of %v: %v", r.URL, err)
		}

		var args []string
		for name, values := range r.Form {
			for _, value := range values {
				args = append(args, fmt.Sprintf(" %s: %s\n", name, value))
			}
		}

		sort.Strings(args)

		var message strings.Builder
		message.WriteString("File Not Found\n\n")
		fmt.Fprintf(&message, "URI: %s\n", r.URL.Path)
		fmt.Fprintf(&message, "Method: %s\n", r.Method)
		fmt.Fprintf(&message, "Arguments: %d\n", len(args))
		for _, arg := range args {
			message.WriteString(arg)
		}

		noCache(w.Header())
		a.textResponse(w, message.String(), http.StatusNotFound)
	}
}
