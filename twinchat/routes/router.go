// twinchat/routes/router.go
package routes

import (
	"twinchat/twinchat/config"
	"twinchat/twinchat/controllers"
	"twinchat/twinchat/middlewares"
	"twinchat/twinchat/utils/logging"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Controllers struct {
	Agents *controllers.AgentController
	Chat   *controllers.ChatController
	Auth   *controllers.AuthController
	Health *controllers.HealthController
}

// NewRouter builds the local proxy: /health plus the /api surface. No
// router-wide timeout is set since chat sends and websockets carry their own.
func NewRouter(ctrls Controllers, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewares.RequestLogger(logging.RequestLogger, middlewares.DefaultSlowThreshold))
	r.Use(middleware.Recoverer)

	r.Mount("/health", HealthRoutes(ctrls.Health))
	r.Route("/api", func(api chi.Router) {
		api.Mount("/auth", AuthRoutes(ctrls.Auth))
		api.Mount("/agent", AgentRoutes(ctrls.Agents, ctrls.Chat, cfg))
	})
	return r
}
