// twinchat/controllers/auth.go
package controllers

import (
	"context"
	"strings"

	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/logging"

	"go.uber.org/zap"
)

type LoginBackend interface {
	TelegramLogin(ctx context.Context, telegramID, username string) (*types.User, error)
}

type AuthController struct {
	backend LoginBackend
	log     logging.Logger
}

func NewAuthController(backend LoginBackend, log logging.Logger) *AuthController {
	if log == nil {
		log = logging.Nop()
	}
	return &AuthController{backend: backend, log: log}
}

// TelegramLogin exchanges a Telegram account for the backend user id that
// every chat send needs.
func (c *AuthController) TelegramLogin(ctx context.Context, telegramID, username string) (*types.User, error) {
	telegramID = strings.TrimSpace(telegramID)
	username = strings.TrimPrefix(strings.TrimSpace(username), "@")
	if telegramID == "" || username == "" {
		return nil, apierror.ErrMissingTelegramID
	}
	user, err := c.backend.TelegramLogin(ctx, telegramID, username)
	if err != nil {
		return nil, err
	}
	c.log.Info("telegram login", zap.String("telegram_id", telegramID), zap.String("user_id", user.ID))
	return user, nil
}
