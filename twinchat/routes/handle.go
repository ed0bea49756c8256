package routes

import (
	"net/http"

	httputils "twinchat/twinchat/utils/http"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			httputils.WriteError(w, err)
			return
		}
		httputils.WriteJSON(w, status, res)
	}
}
