// twinchat/controllers/chat.go
package controllers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/logging"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ChatBackend is the part of the backend client the chat engine needs.
type ChatBackend interface {
	SendMessage(ctx context.Context, agentID, userID, text string) (string, error)
	FetchHistory(ctx context.Context, agentID, userID string) ([]types.Message, error)
}

// MessageStore holds the per-session message lists, keyed by SessionKey.
type MessageStore interface {
	GetMessages(key string) []types.Message
	ReplaceMessages(key string, msgs []types.Message)
	AppendMessage(key string, msg types.Message) error
	SetPending(key, msgID string, pending bool) bool
	Evict(key string)
}

// SessionKey names one user's conversation with one agent. History is per
// user, so two users of the same agent never share a session.
func SessionKey(userID, agentID string) string {
	return userID + "/" + agentID
}

// State is where a session is in its send cycle.
type State int

const (
	Idle State = iota
	Sending
)

func (s State) String() string {
	if s == Sending {
		return "sending"
	}
	return "idle"
}

type event int

const (
	evSubmit event = iota
	evSettle
)

// nextState is the whole send state machine: one submit at a time, settle
// always returns to Idle.
func nextState(s State, ev event) (State, error) {
	switch ev {
	case evSubmit:
		if s == Sending {
			return s, apierror.ErrSessionBusy
		}
		return Sending, nil
	case evSettle:
		return Idle, nil
	}
	return s, fmt.Errorf("unknown event %d", ev)
}

type chatSession struct {
	key     string
	agentID string
	gen     uint64
	state   State
	loaded  bool
	cancel  context.CancelFunc
	lastErr *apierror.Error
}

type ChatController struct {
	backend ChatBackend
	store   MessageStore
	log     logging.Logger
	timeout time.Duration

	now   func() time.Time
	newID func() string

	mu       sync.Mutex
	sessions map[string]*chatSession
	gen      uint64
	loads    singleflight.Group
}

// NewChatController wires the engine. timeout bounds every backend call; zero disables it.
func NewChatController(backend ChatBackend, store MessageStore, log logging.Logger, timeout time.Duration) *ChatController {
	if log == nil {
		log = logging.Nop()
	}
	return &ChatController{
		backend:  backend,
		store:    store,
		log:      log,
		timeout:  timeout,
		now:      time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]*chatSession),
	}
}

// sessionLocked returns the live session for key, creating it. c.mu must be held.
func (c *ChatController) sessionLocked(key, agentID string) *chatSession {
	sess, ok := c.sessions[key]
	if !ok {
		c.gen++
		sess = &chatSession{key: key, agentID: agentID, gen: c.gen}
		c.sessions[key] = sess
	}
	return sess
}

func (c *ChatController) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Open loads the session's history from the backend the first time it is
// called for the user and agent; later calls return the session as it stands.
// Messages appended locally while the load was in flight are kept after the
// history. Callers opening the same session at once share one backend call,
// which is not tied to any single caller: each caller stops waiting when its
// own ctx is done.
func (c *ChatController) Open(ctx context.Context, agentID, userID string) ([]types.Message, error) {
	if agentID == "" {
		return nil, apierror.ErrMissingAgent
	}
	if userID == "" {
		return nil, apierror.ErrMissingUser
	}
	key := SessionKey(userID, agentID)

	c.mu.Lock()
	sess := c.sessionLocked(key, agentID)
	loaded := sess.loaded
	c.mu.Unlock()
	if loaded {
		return c.store.GetMessages(key), nil
	}

	flight := fmt.Sprintf("%s#%d", key, sess.gen)
	loadCtx := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(flight, func() (any, error) {
		return nil, c.loadHistory(loadCtx, sess, agentID, userID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			apiErr := apierror.Normalize(res.Err)
			c.log.Error("chat history load failed", zap.String("agent_id", agentID), zap.String("user_id", userID), zap.Error(apiErr))
			return nil, apiErr
		}
	case <-ctx.Done():
		return nil, apierror.Normalize(ctx.Err())
	}
	return c.store.GetMessages(key), nil
}

func (c *ChatController) loadHistory(ctx context.Context, sess *chatSession, agentID, userID string) error {
	c.mu.Lock()
	done := sess.loaded
	c.mu.Unlock()
	if done {
		return nil
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()
	history, err := c.backend.FetchHistory(ctx, agentID, userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[sess.key] != sess {
		return apierror.ErrSessionClosed
	}
	if sess.loaded {
		return nil
	}
	merged := mergeHistory(history, c.store.GetMessages(sess.key))
	c.store.ReplaceMessages(sess.key, merged)
	sess.loaded = true
	c.log.Info("chat history loaded",
		zap.String("agent_id", agentID),
		zap.String("user_id", userID),
		zap.Int("history", len(history)),
		zap.Int("messages", len(merged)),
	)
	return nil
}

// mergeHistory puts the server history first and keeps local messages it does not already contain.
func mergeHistory(history, local []types.Message) []types.Message {
	out := make([]types.Message, 0, len(history)+len(local))
	seen := make(map[string]struct{}, len(history))
	for _, m := range history {
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	for _, m := range local {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Submit sends text to the agent as userID. The user's message is appended
// before the backend is called; the agent's reply is appended when it
// arrives. On failure the user's message stays and the error is returned
// and kept as the session's last error.
func (c *ChatController) Submit(ctx context.Context, agentID, userID, text string) (*types.Exchange, error) {
	text = strings.TrimSpace(text)
	if agentID == "" {
		return nil, apierror.ErrMissingAgent
	}
	if text == "" {
		return nil, apierror.ErrEmptyMessage
	}
	if userID == "" {
		return nil, apierror.ErrMissingUser
	}

	key := SessionKey(userID, agentID)

	c.mu.Lock()
	sess := c.sessionLocked(key, agentID)
	next, err := nextState(sess.state, evSubmit)
	if err != nil {
		c.mu.Unlock()
		c.log.Info("chat submit ignored, send in flight", zap.String("agent_id", agentID))
		return nil, err
	}
	userMsg := types.Message{
		ID:        c.newID(),
		Role:      types.RoleUser,
		Content:   text,
		CreatedAt: c.now(),
		Pending:   true,
	}
	if err := c.store.AppendMessage(key, userMsg); err != nil {
		c.mu.Unlock()
		return nil, apierror.Normalize(err)
	}
	sendCtx, cancel := c.withTimeout(ctx)
	sess.state = next
	sess.cancel = cancel
	sess.lastErr = nil
	c.mu.Unlock()

	reply, sendErr := c.backend.SendMessage(sendCtx, agentID, userID, text)
	cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions[key] != sess {
		c.log.Info("chat reply discarded, session closed", zap.String("agent_id", agentID))
		return nil, apierror.ErrSessionClosed
	}
	sess.state, _ = nextState(sess.state, evSettle)
	sess.cancel = nil
	c.store.SetPending(key, userMsg.ID, false)
	userMsg.Pending = false

	if sendErr != nil {
		apiErr := apierror.Normalize(sendErr)
		sess.lastErr = apiErr
		c.log.Error("chat send failed",
			zap.String("agent_id", agentID),
			zap.String("user_id", userID),
			zap.String("kind", apiErr.Kind.String()),
			zap.Int("status", apiErr.Status),
			zap.String("error", apiErr.Message),
		)
		return nil, apiErr
	}

	agentMsg := types.Message{
		ID:        c.newID(),
		Role:      types.RoleAgent,
		Content:   reply,
		CreatedAt: c.now(),
	}
	if err := c.store.AppendMessage(key, agentMsg); err != nil {
		return nil, apierror.Normalize(err)
	}
	c.log.Info("chat exchange completed",
		zap.String("agent_id", agentID),
		zap.String("user_id", userID),
		zap.Int("reply_len", len(reply)),
	)
	return &types.Exchange{AgentID: agentID, User: userMsg, Agent: agentMsg}, nil
}

// Close abandons one user's session with an agent: an in-flight send is
// canceled and its result dropped, and the messages are evicted. Other
// sessions are untouched.
func (c *ChatController) Close(agentID, userID string) {
	key := SessionKey(userID, agentID)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked(key)
}

// CloseAgent closes every user's session with agentID.
func (c *ChatController) CloseAgent(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key, sess := range c.sessions {
		if sess.agentID == agentID {
			c.closeLocked(key)
		}
	}
}

func (c *ChatController) closeLocked(key string) {
	if sess, ok := c.sessions[key]; ok {
		if sess.cancel != nil {
			sess.cancel()
		}
		delete(c.sessions, key)
	}
	c.store.Evict(key)
}

func (c *ChatController) Messages(agentID, userID string) []types.Message {
	return c.store.GetMessages(SessionKey(userID, agentID))
}

func (c *ChatController) State(agentID, userID string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, ok := c.sessions[SessionKey(userID, agentID)]; ok {
		return sess.state
	}
	return Idle
}

// LastError is the error of the session's most recent failed send, nil after a success.
func (c *ChatController) LastError(agentID, userID string) *apierror.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sess, ok := c.sessions[SessionKey(userID, agentID)]; ok {
		return sess.lastErr
	}
	return nil
}

// Loaded reports whether the session's history has been loaded.
func (c *ChatController) Loaded(agentID, userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[SessionKey(userID, agentID)]
	return ok && sess.loaded
}
