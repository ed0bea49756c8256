// twinchat/types/chat.go
package types

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// ParseRole maps the role names the backend uses onto user/agent.
func ParseRole(s string) Role {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return RoleUser
	default:
		return RoleAgent
	}
}

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	// Pending is set while an optimistically inserted message awaits the reply.
	Pending bool `json:"pending,omitempty"`
}

// Exchange is the outcome of one successful send.
type Exchange struct {
	AgentID string  `json:"agent_id"`
	User    Message `json:"user"`
	Agent   Message `json:"agent"`
}

type ChatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}
