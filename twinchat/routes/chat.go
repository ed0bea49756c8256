// twinchat/routes/chat.go
package routes

import (
	"encoding/json"
	"net/http"

	"twinchat/twinchat/controllers"
	"twinchat/twinchat/middlewares"
	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/logging"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MountChatRoutes registers the session routes on a router whose pattern carries {id}.
func MountChatRoutes(r chi.Router, ctrl *controllers.ChatController) {
	// GET /messages : open the session and return what it holds
	r.Get("/messages", handleJSON(func(r *http.Request) (any, int, error) {
		agentID := chi.URLParam(r, "id")
		msgs, err := ctrl.Open(r.Context(), agentID, middlewares.UserID(r.Context()))
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{
			"agent_id": agentID,
			"state":    ctrl.State(agentID, middlewares.UserID(r.Context())).String(),
			"messages": msgs,
		}, http.StatusOK, nil
	}))

	// POST /chat : {message} -> exchange
	r.Post("/chat", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, apierror.Validation("invalid json")
		}
		userID := req.UserID
		if userID == "" {
			userID = middlewares.UserID(r.Context())
		}
		ex, err := ctrl.Submit(r.Context(), chi.URLParam(r, "id"), userID, req.Message)
		if err != nil {
			return nil, 0, err
		}
		return ex, http.StatusOK, nil
	}))

	// DELETE /session : drop the caller's local session
	r.Delete("/session", func(w http.ResponseWriter, r *http.Request) {
		ctrl.Close(chi.URLParam(r, "id"), middlewares.UserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	})

	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			logging.ErrorLogger.Error("websocket accept error", zap.Error(err))
			return
		}
		ctrl.ChatWebSocket(r.Context(), conn, chi.URLParam(r, "id"), middlewares.UserID(r.Context()))
	})
}
