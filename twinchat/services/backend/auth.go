// twinchat/services/backend/auth.go
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"

	"go.uber.org/zap"
)

// TelegramLogin creates or fetches the backend user for a Telegram account.
// The parameters travel in the query string; there is no body.
func (c *Client) TelegramLogin(ctx context.Context, telegramID, username string) (*types.User, error) {
	env, err := c.Do(ctx, Request{
		Op:        "telegram_login",
		Method:    http.MethodPost,
		Path:      "/auth/telegram/login",
		Query:     url.Values{"telegram_id": {telegramID}, "username": {username}},
		LogFields: []zap.Field{zap.String("telegram_id", telegramID), zap.String("username", username)},
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to login")
	}
	var raw struct {
		ID         json.RawMessage `json:"id"`
		TelegramID json.RawMessage `json:"telegram_id"`
		Username   string          `json:"username"`
	}
	if err := env.Decode(&raw); err != nil {
		return nil, err
	}
	user := &types.User{
		ID:         scalarString(raw.ID),
		TelegramID: scalarString(raw.TelegramID),
		Username:   raw.Username,
	}
	if user.ID == "" {
		return nil, apierror.Transport(errors.New("login response has no user id"))
	}
	return user, nil
}

// scalarString renders a JSON string or number as text.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
