// twinchat/types/agent.go
package types

import "encoding/json"

type AgentStatus string

const (
	AgentPending   AgentStatus = "pending"
	AgentCreated   AgentStatus = "created"
	AgentIngesting AgentStatus = "ingesting"
	AgentReady     AgentStatus = "ready"
	AgentError     AgentStatus = "error"
	AgentFailed    AgentStatus = "failed"
)

type Agent struct {
	ID              string      `json:"id"`
	ExpertName      string      `json:"expert_name"`
	Status          AgentStatus `json:"status"`
	CreatedAt       string      `json:"created_at,omitempty"`
	ProfilePhotoURL string      `json:"profile_photo_url,omitempty"`
	ChannelLink     string      `json:"channel_link,omitempty"`
	OwnerID         string      `json:"owner_id,omitempty"`
}

// UnmarshalJSON accepts the older backend spellings (name, user_id).
func (a *Agent) UnmarshalJSON(data []byte) error {
	type plain Agent
	var aux struct {
		plain
		Name   string `json:"name"`
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*a = Agent(aux.plain)
	if a.ExpertName == "" {
		a.ExpertName = aux.Name
	}
	if a.OwnerID == "" {
		a.OwnerID = aux.UserID
	}
	return nil
}

// CreatedAgent is what the creation workflow hands back.
type CreatedAgent struct {
	ID              string      `json:"agent_id"`
	Status          AgentStatus `json:"status"`
	MessageCount    int         `json:"message_count,omitempty"`
	VectorCount     int         `json:"vector_count,omitempty"`
	ProfilePhotoURL string      `json:"profile_photo_url,omitempty"`
}

// UnmarshalJSON takes the id from agent_id or id, whichever is set.
func (c *CreatedAgent) UnmarshalJSON(data []byte) error {
	type plain CreatedAgent
	var aux struct {
		plain
		AltID string `json:"id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = CreatedAgent(aux.plain)
	if c.ID == "" {
		c.ID = aux.AltID
	}
	return nil
}

// ChannelInfo is fetched once during agent creation and never stored.
type ChannelInfo struct {
	Title             *string `json:"title,omitempty"`
	Username          *string `json:"username,omitempty"`
	Description       *string `json:"description,omitempty"`
	ParticipantsCount *int    `json:"participants_count,omitempty"`
	// ProfilePhoto is base64, optionally as a data URL.
	ProfilePhoto *string `json:"profile_photo,omitempty"`
}

func (c *ChannelInfo) UnmarshalJSON(data []byte) error {
	type plain ChannelInfo
	var aux struct {
		plain
		ParticipantCount *int `json:"participant_count"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = ChannelInfo(aux.plain)
	if c.ParticipantsCount == nil {
		c.ParticipantsCount = aux.ParticipantCount
	}
	return nil
}

type User struct {
	ID         string `json:"id"`
	TelegramID string `json:"telegram_id,omitempty"`
	Username   string `json:"username,omitempty"`
}

type TelegramLoginRequest struct {
	TelegramID string `json:"telegram_id"`
	Username   string `json:"username"`
}
