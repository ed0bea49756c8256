// twinchat/routes/agents.go
package routes

import (
	"encoding/json"
	"net/http"
	"strings"

	"twinchat/twinchat/config"
	"twinchat/twinchat/controllers"
	"twinchat/twinchat/middlewares"
	"twinchat/twinchat/utils/apierror"
	httputils "twinchat/twinchat/utils/http"
	"twinchat/twinchat/utils/imageutils"

	"github.com/go-chi/chi/v5"
)

// AgentRoutes serves agent management and, under /{id}, the chat session of that agent.
func AgentRoutes(agents *controllers.AgentController, chat *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.Identity(cfg))

	r.Get("/list", handleJSON(func(r *http.Request) (any, int, error) {
		list, err := agents.List(r.Context())
		if err != nil {
			return nil, 0, err
		}
		return map[string]any{"agents": list}, http.StatusOK, nil
	}))

	r.Post("/create", handleJSON(func(r *http.Request) (any, int, error) {
		var in controllers.CreateAgentInput
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
			if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
				return nil, http.StatusBadRequest, apierror.Validation("invalid json")
			}
		} else {
			in.ChannelLink = r.FormValue("channel_link")
		}
		if in.OwnerID == "" {
			in.OwnerID = middlewares.UserID(r.Context())
		}
		created, err := agents.Create(r.Context(), in)
		if err != nil {
			return nil, 0, err
		}
		return created, http.StatusOK, nil
	}))

	r.Route("/{id}", func(ar chi.Router) {
		ar.Get("/", handleJSON(func(r *http.Request) (any, int, error) {
			agent, err := agents.Get(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, err
			}
			return agent, http.StatusOK, nil
		}))
		ar.Delete("/", handleJSON(func(r *http.Request) (any, int, error) {
			ack, err := agents.Delete(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				return nil, 0, err
			}
			return ack, http.StatusOK, nil
		}))
		ar.Get("/photo", func(w http.ResponseWriter, r *http.Request) {
			photo, err := agents.ProfilePhoto(r.Context(), chi.URLParam(r, "id"))
			if err != nil {
				httputils.WriteError(w, err)
				return
			}
			w.Header().Set("Content-Type", imageutils.ProfilePhotoContentType)
			w.Write(photo)
		})
		MountChatRoutes(ar, chat)
	})
	return r
}
