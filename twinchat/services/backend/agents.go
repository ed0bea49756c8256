// twinchat/services/backend/agents.go
package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"

	"go.uber.org/zap"
)

// CreateAgentRequest is the multipart payload of POST /agent/create.
type CreateAgentRequest struct {
	ChannelLink    string
	PromptTemplate string
	OwnerID        string

	Title        *string
	Username     *string
	Description  *string
	Participants *int
	ProfilePhoto *FilePart
}

// fields flattens the request into form fields, skipping absent metadata.
func (r CreateAgentRequest) fields() url.Values {
	v := url.Values{}
	v.Set("channel_link", r.ChannelLink)
	v.Set("prompt_template", r.PromptTemplate)
	v.Set("owner_id", r.OwnerID)
	if r.Title != nil {
		v.Set("channel_title", *r.Title)
	}
	if r.Username != nil {
		v.Set("channel_username", *r.Username)
	}
	if r.Description != nil {
		v.Set("channel_description", *r.Description)
	}
	if r.Participants != nil {
		v.Set("channel_participants", strconv.Itoa(*r.Participants))
	}
	return v
}

func (c *Client) FetchChannelInfo(ctx context.Context, channelLink string) (*types.ChannelInfo, error) {
	env, err := c.Do(ctx, Request{
		Op:        "fetch_channel_info",
		Method:    http.MethodGet,
		Path:      "/telegram/channel-info",
		Query:     url.Values{"channel_link": {channelLink}},
		LogFields: []zap.Field{zap.String("channel_link", channelLink)},
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to fetch channel info")
	}
	var info types.ChannelInfo
	if err := env.Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) CreateAgent(ctx context.Context, req CreateAgentRequest) (*types.CreatedAgent, error) {
	var files []FilePart
	if req.ProfilePhoto != nil {
		files = append(files, *req.ProfilePhoto)
	}
	env, err := c.Do(ctx, Request{
		Op:       "create_agent",
		Method:   http.MethodPost,
		Path:     "/agent/create",
		Form:     req.fields(),
		Files:    files,
		Encoding: EncodingMultipart,
		LogFields: []zap.Field{
			zap.String("channel_link", req.ChannelLink),
			zap.String("owner_id", req.OwnerID),
			zap.Bool("has_photo", req.ProfilePhoto != nil),
		},
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to create agent")
	}
	var created types.CreatedAgent
	if err := env.Decode(&created); err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, apierror.Transport(errors.New("create response has no agent id"))
	}
	return &created, nil
}

func (c *Client) ListAgents(ctx context.Context) ([]types.Agent, error) {
	env, err := c.Do(ctx, Request{
		Op:     "list_agents",
		Method: http.MethodGet,
		Path:   "/agent/list",
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to list agents")
	}
	var out struct {
		Agents []types.Agent `json:"agents"`
	}
	if err := env.Decode(&out); err != nil {
		return nil, err
	}
	if out.Agents == nil {
		out.Agents = []types.Agent{}
	}
	return out.Agents, nil
}

func (c *Client) GetAgent(ctx context.Context, agentID string) (*types.Agent, error) {
	env, err := c.Do(ctx, Request{
		Op:         "get_agent",
		Method:     http.MethodGet,
		Path:       "/agent/{id}",
		PathParams: map[string]string{"id": agentID},
		LogFields:  []zap.Field{zap.String("agent_id", agentID)},
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to fetch agent details")
	}
	var agent types.Agent
	if err := env.Decode(&agent); err != nil {
		return nil, err
	}
	return &agent, nil
}

// DeleteAgent returns the backend's acknowledgment as-is.
func (c *Client) DeleteAgent(ctx context.Context, agentID string) (map[string]any, error) {
	env, err := c.Do(ctx, Request{
		Op:         "delete_agent",
		Method:     http.MethodDelete,
		Path:       "/agent/{id}",
		PathParams: map[string]string{"id": agentID},
		LogFields:  []zap.Field{zap.String("agent_id", agentID)},
	})
	if err != nil {
		return nil, err
	}
	if !env.OK() {
		return nil, env.Err("Failed to delete agent")
	}
	var ack map[string]any
	if err := env.Decode(&ack); err != nil {
		return nil, err
	}
	if ack == nil {
		ack = map[string]any{}
	}
	return ack, nil
}
