package controllers

import (
	"net/http"

	httputils "twinchat/twinchat/utils/http"
)

// SessionLister reports the chat sessions held in memory.
type SessionLister interface {
	Sessions() []string
	Len(key string) int
}

type HealthController struct {
	sessions SessionLister
}

func NewHealthController(sessions SessionLister) *HealthController {
	return &HealthController{sessions: sessions}
}

func (h *HealthController) HealthCheck(w http.ResponseWriter, r *http.Request) {
	open, messages := 0, 0
	if h.sessions != nil {
		keys := h.sessions.Sessions()
		open = len(keys)
		for _, key := range keys {
			messages += h.sessions.Len(key)
		}
	}
	httputils.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": open, "messages": messages})
}
