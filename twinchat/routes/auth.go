// twinchat/routes/auth.go
package routes

import (
	"encoding/json"
	"net/http"

	"twinchat/twinchat/controllers"
	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"

	"github.com/go-chi/chi/v5"
)

func AuthRoutes(ctrl *controllers.AuthController) chi.Router {
	r := chi.NewRouter()

	// JSON body {telegram_id, username}
	r.Post("/telegram/login", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.TelegramLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, apierror.Validation("invalid json")
		}
		user, err := ctrl.TelegramLogin(r.Context(), req.TelegramID, req.Username)
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))

	// form fields telegram_id, username
	r.Post("/login", handleJSON(func(r *http.Request) (any, int, error) {
		user, err := ctrl.TelegramLogin(r.Context(), r.FormValue("telegram_id"), r.FormValue("username"))
		if err != nil {
			return nil, 0, err
		}
		return user, http.StatusOK, nil
	}))
	return r
}
