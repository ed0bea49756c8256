// twinchat/services/backend/chat.go
package backend

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type chatReply struct {
	Message  string `json:"message"`
	Response string `json:"response"`
	Content  string `json:"content"`
}

// SendMessage posts one user message to the agent and returns the reply text.
func (c *Client) SendMessage(ctx context.Context, agentID, userID, text string) (string, error) {
	env, err := c.Do(ctx, Request{
		Op:         "send_message",
		Method:     http.MethodPost,
		Path:       "/agent/{id}/chat",
		PathParams: map[string]string{"id": agentID},
		Form:       url.Values{"message": {text}, "user_id": {userID}},
		Encoding:   EncodingForm,
		LogFields:  []zap.Field{zap.String("agent_id", agentID), zap.String("user_id", userID)},
	})
	if err != nil {
		return "", err
	}
	if !env.OK() {
		return "", env.Err("Failed to send message")
	}
	var reply chatReply
	if err := env.Decode(&reply); err != nil {
		return "", err
	}
	switch {
	case reply.Message != "":
		return reply.Message, nil
	case reply.Response != "":
		return reply.Response, nil
	case reply.Content != "":
		return reply.Content, nil
	}
	return "", apierror.Transport(errors.New("chat reply has no message"))
}

type historyMessage struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Timestamp string `json:"timestamp"`
}

// FetchHistory loads the stored conversation between userID and the agent.
func (c *Client) FetchHistory(ctx context.Context, agentID, userID string) ([]types.Message, error) {
	env, err := c.Do(ctx, Request{
		Op:         "fetch_history",
		Method:     http.MethodGet,
		Path:       "/agent/{id}/chat_history",
		PathParams: map[string]string{"id": agentID},
		Query:      url.Values{"user_id": {userID}},
		LogFields:  []zap.Field{zap.String("agent_id", agentID), zap.String("user_id", userID)},
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to fetch chat history")
	}

	var raw []historyMessage
	if bytes.HasPrefix(env.Body, []byte("[")) {
		err = env.Decode(&raw)
	} else {
		var wrapped struct {
			Messages []historyMessage `json:"messages"`
		}
		err = env.Decode(&wrapped)
		raw = wrapped.Messages
	}
	if err != nil {
		return nil, err
	}

	out := make([]types.Message, 0, len(raw))
	for _, m := range raw {
		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}
		stamp := m.CreatedAt
		if stamp == "" {
			stamp = m.Timestamp
		}
		out = append(out, types.Message{
			ID:        id,
			Role:      types.ParseRole(m.Role),
			Content:   m.Content,
			CreatedAt: parseTimestamp(stamp),
		})
	}
	return out, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999-07:00",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTimestamp reads the timestamp formats the backend emits; zero time if none match.
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
