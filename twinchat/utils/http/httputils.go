// twinchat/utils/http/httputils.go
package httputils

import (
	"encoding/json"
	"net/http"

	"twinchat/twinchat/utils/apierror"
)

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError writes the normalized error envelope with a status that fits its kind.
func WriteError(w http.ResponseWriter, err error) {
	apiErr := apierror.Normalize(err)
	if apiErr == nil {
		apiErr = &apierror.Error{Kind: apierror.KindBackend, Message: "unknown error"}
	}
	status := apiErr.HTTPStatus()
	out := *apiErr
	if out.Status == 0 {
		out.Status = status
	}
	WriteJSON(w, status, &out)
}
