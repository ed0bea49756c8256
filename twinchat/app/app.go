// Package app wires the backend client, the session engine and the proxy
// router from one Config. Both the server binary and the CLI build on it.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"twinchat/twinchat/config"
	"twinchat/twinchat/controllers"
	"twinchat/twinchat/routes"
	"twinchat/twinchat/services/backend"
	"twinchat/twinchat/sources/memory"
	"twinchat/twinchat/sources/storage"
	"twinchat/twinchat/utils/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config  config.Config
	Backend *backend.Client
	Store   *memory.SessionStore

	Chat   *controllers.ChatController
	Agents *controllers.AgentController
	Auth   *controllers.AuthController
	Health *controllers.HealthController
}

// New builds the app. The MinIO photo mirror is connected only when
// configured; a configured mirror that cannot be reached is an error.
func New(ctx context.Context, cfg config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Default()
	}
	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout, log)
	store := memory.NewSessionStore()
	chat := controllers.NewChatController(client, store, log, cfg.RequestTimeout)

	var photos controllers.PhotoMirror
	if cfg.PhotoMirrorEnabled() {
		minioClient, err := storage.NewMinIOClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		photos = minioClient
		log.Info("profile photo mirror enabled", zap.String("endpoint", cfg.MinIOEndpoint), zap.String("bucket", cfg.MinIOBucket))
	}

	return &App{
		Config:  cfg,
		Backend: client,
		Store:   store,
		Chat:    chat,
		Agents:  controllers.NewAgentController(client, chat, photos, log),
		Auth:    controllers.NewAuthController(client, log),
		Health:  controllers.NewHealthController(store),
	}, nil
}

func (a *App) Router() chi.Router {
	return routes.NewRouter(routes.Controllers{
		Agents: a.Agents,
		Chat:   a.Chat,
		Auth:   a.Auth,
		Health: a.Health,
	}, a.Config)
}

// Serve runs the proxy on Config.ListenAddr until ctx is done, then shuts down gracefully.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.Config.ListenAddr,
		Handler: a.Router(),
	}
	errCh := make(chan error, 1)
	go func() {
		logging.AppLogger.Info("proxy listening", zap.String("addr", srv.Addr), zap.String("backend", a.Config.BackendURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.ErrorLogger.Error("server listen error", zap.Error(err))
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.ErrorLogger.Error("server shutdown error", zap.Error(err))
		return err
	}
	logging.AppLogger.Info("server shutdown complete")
	return nil
}
