// twinchat/controllers/agents.go
package controllers

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"twinchat/twinchat/agents/configs"
	"twinchat/twinchat/services/backend"
	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/imageutils"
	"twinchat/twinchat/utils/logging"

	"go.uber.org/zap"
)

// AgentBackend is the part of the backend client agent management needs.
type AgentBackend interface {
	FetchChannelInfo(ctx context.Context, channelLink string) (*types.ChannelInfo, error)
	CreateAgent(ctx context.Context, req backend.CreateAgentRequest) (*types.CreatedAgent, error)
	ListAgents(ctx context.Context) ([]types.Agent, error)
	GetAgent(ctx context.Context, agentID string) (*types.Agent, error)
	DeleteAgent(ctx context.Context, agentID string) (map[string]any, error)
}

// PhotoMirror keeps a copy of a created agent's profile photo.
type PhotoMirror interface {
	UploadProfilePhoto(ctx context.Context, agentID string, photo []byte) (string, error)
	GetProfilePhoto(ctx context.Context, agentID string) ([]byte, error)
}

// SessionCloser drops every user's local chat state for an agent.
type SessionCloser interface {
	CloseAgent(agentID string)
}

type AgentController struct {
	backend  AgentBackend
	sessions SessionCloser
	photos   PhotoMirror
	log      logging.Logger
}

// NewAgentController wires agent management. sessions and photos may be nil.
func NewAgentController(backend AgentBackend, sessions SessionCloser, photos PhotoMirror, log logging.Logger) *AgentController {
	if log == nil {
		log = logging.Nop()
	}
	return &AgentController{backend: backend, sessions: sessions, photos: photos, log: log}
}

type CreateAgentInput struct {
	ChannelLink string `json:"channel_link"`
	OwnerID     string `json:"user_id"`
}

var channelLinkPattern = regexp.MustCompile(`^(?:(?:https?://)?t\.me/[A-Za-z0-9_]{5,}/?|@[A-Za-z0-9_]{5,})$`)

// ValidChannelLink accepts https://t.me/name, t.me/name and @name.
func ValidChannelLink(link string) bool {
	return channelLinkPattern.MatchString(link)
}

// Create runs the creation pipeline: validate, fetch channel info, build the
// multipart request, create. It stops at the first failure and never retries.
func (c *AgentController) Create(ctx context.Context, in CreateAgentInput) (*types.CreatedAgent, error) {
	link := strings.TrimSpace(in.ChannelLink)
	owner := strings.TrimSpace(in.OwnerID)
	if link == "" {
		return nil, apierror.ErrMissingChannel
	}
	if owner == "" {
		return nil, apierror.ErrMissingUser
	}
	if !ValidChannelLink(link) {
		return nil, apierror.ErrInvalidChannelLink
	}
	c.log.Info("creating agent", zap.String("channel_link", link), zap.String("owner_id", owner))

	info, err := c.backend.FetchChannelInfo(ctx, link)
	if err != nil {
		return nil, err
	}

	req, photo, err := BuildCreateRequest(link, owner, info)
	if err != nil {
		c.log.Error("channel photo could not be decoded", zap.String("channel_link", link), zap.Error(err))
		return nil, err
	}

	created, err := c.backend.CreateAgent(ctx, req)
	if err != nil {
		return nil, err
	}
	c.log.Info("agent created",
		zap.String("agent_id", created.ID),
		zap.String("status", string(created.Status)),
		zap.Bool("has_photo", photo != nil),
	)

	if c.photos != nil && photo != nil {
		url, err := c.photos.UploadProfilePhoto(ctx, created.ID, photo)
		if err != nil {
			c.log.Error("profile photo mirror failed", zap.String("agent_id", created.ID), zap.Error(err))
		} else {
			created.ProfilePhotoURL = url
		}
	}
	return created, nil
}

// BuildCreateRequest turns channel metadata into the creation payload. Text
// fields are copied when present; an inline photo becomes profile.jpg.
func BuildCreateRequest(link, owner string, info *types.ChannelInfo) (backend.CreateAgentRequest, []byte, error) {
	req := backend.CreateAgentRequest{
		ChannelLink:    link,
		PromptTemplate: configs.DefaultPromptTemplate,
		OwnerID:        owner,
	}
	if info == nil {
		return req, nil, nil
	}
	req.Title = nonEmpty(info.Title)
	req.Username = nonEmpty(info.Username)
	req.Description = nonEmpty(info.Description)
	req.Participants = info.ParticipantsCount

	if info.ProfilePhoto == nil || strings.TrimSpace(*info.ProfilePhoto) == "" {
		return req, nil, nil
	}
	photo, err := imageutils.DecodeInlineImage(*info.ProfilePhoto)
	if err != nil {
		return req, nil, &apierror.Error{
			Kind:    apierror.KindBackend,
			Message: "channel profile photo is not valid base64",
			Status:  http.StatusBadGateway,
		}
	}
	req.ProfilePhoto = &backend.FilePart{
		Field:       "profile_photo",
		FileName:    imageutils.ProfilePhotoName,
		ContentType: imageutils.ProfilePhotoContentType,
		Data:        photo,
	}
	return req, photo, nil
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

func (c *AgentController) List(ctx context.Context) ([]types.Agent, error) {
	return c.backend.ListAgents(ctx)
}

func (c *AgentController) Get(ctx context.Context, agentID string) (*types.Agent, error) {
	if agentID == "" {
		return nil, apierror.ErrMissingAgent
	}
	return c.backend.GetAgent(ctx, agentID)
}

// ProfilePhoto returns the mirrored photo of an agent.
func (c *AgentController) ProfilePhoto(ctx context.Context, agentID string) ([]byte, error) {
	if agentID == "" {
		return nil, apierror.ErrMissingAgent
	}
	if c.photos == nil {
		return nil, &apierror.Error{Kind: apierror.KindBackend, Message: "photo mirror is not configured", Status: http.StatusNotFound}
	}
	photo, err := c.photos.GetProfilePhoto(ctx, agentID)
	if err != nil {
		c.log.Error("profile photo read failed", zap.String("agent_id", agentID), zap.Error(err))
		return nil, &apierror.Error{Kind: apierror.KindBackend, Message: "profile photo not found", Status: http.StatusNotFound}
	}
	return photo, nil
}

// Delete removes the agent on the backend and drops the local chat sessions for it.
func (c *AgentController) Delete(ctx context.Context, agentID string) (map[string]any, error) {
	if agentID == "" {
		return nil, apierror.ErrMissingAgent
	}
	ack, err := c.backend.DeleteAgent(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if c.sessions != nil {
		c.sessions.CloseAgent(agentID)
	}
	c.log.Info("agent deleted", zap.String("agent_id", agentID))
	return ack, nil
}
