package controllers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"twinchat/twinchat/agents/configs"
	"twinchat/twinchat/services/backend"
	"twinchat/twinchat/sources/memory"
	"twinchat/twinchat/types"
	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/logging"
)

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }

type fakeMirror struct {
	agentID string
	photo   []byte
	err     error
}

func (m *fakeMirror) UploadProfilePhoto(ctx context.Context, agentID string, photo []byte) (string, error) {
	m.agentID, m.photo = agentID, photo
	if m.err != nil {
		return "", m.err
	}
	return "http://minio.local/photos/agents/" + agentID + "/profile.jpg", nil
}

func (m *fakeMirror) GetProfilePhoto(ctx context.Context, agentID string) ([]byte, error) {
	if agentID != m.agentID {
		return nil, errors.New("no such object")
	}
	return m.photo, nil
}

func TestValidChannelLink(t *testing.T) {
	good := []string{"https://t.me/startup_daily", "http://t.me/growthhacks", "t.me/growthhacks/", "@growthhacks"}
	bad := []string{"", "startup_daily", "https://example.com/startup", "@abc", "https://t.me/"}
	for _, l := range good {
		if !ValidChannelLink(l) {
			t.Errorf("expected %q to be valid", l)
		}
	}
	for _, l := range bad {
		if ValidChannelLink(l) {
			t.Errorf("expected %q to be invalid", l)
		}
	}
}

func TestBuildCreateRequestDecodesPhoto(t *testing.T) {
	raw := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	info := &types.ChannelInfo{
		Title:             strPtr("Startup Daily"),
		Username:          strPtr(""),
		ParticipantsCount: intPtr(0),
		ProfilePhoto:      strPtr(base64.StdEncoding.EncodeToString(raw)),
	}

	req, photo, err := BuildCreateRequest("https://t.me/startup_daily", "user-1", info)
	if err != nil {
		t.Fatalf("BuildCreateRequest: %v", err)
	}
	if req.PromptTemplate != configs.DefaultPromptTemplate {
		t.Errorf("expected the default prompt template")
	}
	if req.Title == nil || *req.Title != "Startup Daily" {
		t.Errorf("title not copied")
	}
	if req.Username != nil || req.Description != nil {
		t.Errorf("empty or missing fields must be omitted")
	}
	if req.Participants == nil || *req.Participants != 0 {
		t.Errorf("zero participants is still a value")
	}
	if req.ProfilePhoto == nil || req.ProfilePhoto.FileName != "profile.jpg" || req.ProfilePhoto.ContentType != "image/jpeg" {
		t.Fatalf("unexpected photo part %+v", req.ProfilePhoto)
	}
	if !bytes.Equal(req.ProfilePhoto.Data, raw) || !bytes.Equal(photo, raw) {
		t.Errorf("photo bytes changed in decoding")
	}
}

func TestBuildCreateRequestRejectsBadPhoto(t *testing.T) {
	info := &types.ChannelInfo{ProfilePhoto: strPtr("!!not base64!!")}
	_, _, err := BuildCreateRequest("@startup_daily", "user-1", info)
	e := apierror.Normalize(err)
	if e == nil || e.Kind != apierror.KindBackend {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestBuildCreateRequestNoPhoto(t *testing.T) {
	req, photo, err := BuildCreateRequest("@startup_daily", "user-1", &types.ChannelInfo{})
	if err != nil || photo != nil || req.ProfilePhoto != nil {
		t.Errorf("expected no photo part, got %+v %v", req.ProfilePhoto, err)
	}
}

func TestCreateValidationMakesNoCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()
	ctrl := NewAgentController(backend.NewClient(srv.URL, time.Second, logging.Nop()), nil, nil, nil)

	cases := []struct {
		in   CreateAgentInput
		want error
	}{
		{CreateAgentInput{ChannelLink: "", OwnerID: "u"}, apierror.ErrMissingChannel},
		{CreateAgentInput{ChannelLink: "https://t.me/startup_daily", OwnerID: " "}, apierror.ErrMissingUser},
		{CreateAgentInput{ChannelLink: "not a link", OwnerID: "u"}, apierror.ErrInvalidChannelLink},
	}
	for _, tc := range cases {
		if _, err := ctrl.Create(context.Background(), tc.in); !errors.Is(err, tc.want) {
			t.Errorf("%+v: expected %v, got %v", tc.in, tc.want, err)
		}
	}
	if calls.Load() != 0 {
		t.Errorf("validation failures reached the backend %d times", calls.Load())
	}
}

func TestCreateStopsWhenChannelInfoFails(t *testing.T) {
	var createCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/telegram/channel-info":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Channel not found"})
		case "/agent/create":
			createCalls.Add(1)
		}
	}))
	defer srv.Close()
	ctrl := NewAgentController(backend.NewClient(srv.URL, time.Second, logging.Nop()), nil, nil, nil)

	_, err := ctrl.Create(context.Background(), CreateAgentInput{ChannelLink: "https://t.me/missing_channel", OwnerID: "user-1"})
	e := apierror.Normalize(err)
	if e == nil || e.Message != "Channel not found" || e.Status != http.StatusNotFound {
		t.Fatalf("expected the channel-info error verbatim, got %v", err)
	}
	if createCalls.Load() != 0 {
		t.Errorf("create must not be called after a channel-info failure")
	}
}

func TestCreateFullPipeline(t *testing.T) {
	raw := []byte("jpeg-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/telegram/channel-info":
			json.NewEncoder(w).Encode(map[string]any{
				"title":         "Startup Daily",
				"profile_photo": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw),
			})
		case "/agent/create":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if got := r.FormValue("owner_id"); got != "user-1" {
				t.Errorf("expected owner_id user-1, got %q", got)
			}
			if got := r.FormValue("prompt_template"); got != configs.DefaultPromptTemplate {
				t.Errorf("prompt template not sent")
			}
			f, hdr, err := r.FormFile("profile_photo")
			if err != nil {
				t.Errorf("profile_photo missing: %v", err)
				return
			}
			data, _ := io.ReadAll(f)
			if hdr.Filename != "profile.jpg" || !bytes.Equal(data, raw) {
				t.Errorf("unexpected photo %q %q", hdr.Filename, data)
			}
			json.NewEncoder(w).Encode(map[string]any{"agent_id": "agent-7", "status": "created", "message_count": 120})
		}
	}))
	defer srv.Close()

	mirror := &fakeMirror{}
	ctrl := NewAgentController(backend.NewClient(srv.URL, time.Second, logging.Nop()), nil, mirror, nil)
	created, err := ctrl.Create(context.Background(), CreateAgentInput{ChannelLink: "https://t.me/startup_daily", OwnerID: "user-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "agent-7" || created.Status != types.AgentCreated || created.MessageCount != 120 {
		t.Errorf("unexpected result %+v", created)
	}
	if mirror.agentID != "agent-7" || !bytes.Equal(mirror.photo, raw) {
		t.Errorf("photo was not mirrored")
	}
	if created.ProfilePhotoURL == "" {
		t.Errorf("expected mirrored photo url")
	}

	got, err := ctrl.ProfilePhoto(context.Background(), "agent-7")
	if err != nil || !bytes.Equal(got, raw) {
		t.Errorf("mirrored photo not readable: %v", err)
	}
	if _, err := ctrl.ProfilePhoto(context.Background(), "agent-9"); apierror.Normalize(err).HTTPStatus() != http.StatusNotFound {
		t.Errorf("expected 404 for missing photo, got %v", err)
	}
}

func TestCreateMirrorFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/telegram/channel-info":
			json.NewEncoder(w).Encode(map[string]any{"profile_photo": base64.StdEncoding.EncodeToString([]byte("x"))})
		case "/agent/create":
			json.NewEncoder(w).Encode(map[string]any{"agent_id": "agent-8", "status": "created"})
		}
	}))
	defer srv.Close()

	mirror := &fakeMirror{err: errors.New("bucket missing")}
	ctrl := NewAgentController(backend.NewClient(srv.URL, time.Second, logging.Nop()), nil, mirror, nil)
	created, err := ctrl.Create(context.Background(), CreateAgentInput{ChannelLink: "@startup_daily", OwnerID: "user-1"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != "agent-8" || created.ProfilePhotoURL != "" {
		t.Errorf("unexpected result %+v", created)
	}
}

func TestDeleteClosesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/agent/agent-1" {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "deleted"})
	}))
	defer srv.Close()

	store := memory.NewSessionStore()
	chat := NewChatController(&fakeChatBackend{reply: "hello"}, store, nil, time.Second)
	for _, s := range []struct{ agent, user string }{{"agent-1", "alice"}, {"agent-1", "bob"}, {"agent-2", "alice"}} {
		if _, err := chat.Submit(context.Background(), s.agent, s.user, "hi"); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	ctrl := NewAgentController(backend.NewClient(srv.URL, time.Second, logging.Nop()), chat, nil, nil)
	ack, err := ctrl.Delete(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ack["status"] != "deleted" {
		t.Errorf("unexpected ack %v", ack)
	}
	if store.Len(SessionKey("alice", "agent-1")) != 0 || store.Len(SessionKey("bob", "agent-1")) != 0 {
		t.Errorf("expected every user's agent-1 session evicted")
	}
	if store.Len(SessionKey("alice", "agent-2")) != 2 {
		t.Errorf("agent-2 session should be untouched")
	}
}

func TestGetRequiresAgentID(t *testing.T) {
	ctrl := NewAgentController(nil, nil, nil, nil)
	if _, err := ctrl.Get(context.Background(), ""); !errors.Is(err, apierror.ErrMissingAgent) {
		t.Errorf("expected ErrMissingAgent, got %v", err)
	}
	if _, err := ctrl.Delete(context.Background(), ""); !errors.Is(err, apierror.ErrMissingAgent) {
		t.Errorf("expected ErrMissingAgent, got %v", err)
	}
}

type fakeLogin struct {
	calls int
}

func (f *fakeLogin) TelegramLogin(ctx context.Context, telegramID, username string) (*types.User, error) {
	f.calls++
	return &types.User{ID: "user-" + telegramID, TelegramID: telegramID, Username: username}, nil
}

func TestTelegramLogin(t *testing.T) {
	fl := &fakeLogin{}
	auth := NewAuthController(fl, nil)

	user, err := auth.TelegramLogin(context.Background(), " 12345 ", "@founder")
	if err != nil {
		t.Fatalf("TelegramLogin: %v", err)
	}
	if user.ID != "user-12345" || user.Username != "founder" {
		t.Errorf("unexpected user %+v", user)
	}

	if _, err := auth.TelegramLogin(context.Background(), "", "founder"); !errors.Is(err, apierror.ErrMissingTelegramID) {
		t.Errorf("expected ErrMissingTelegramID, got %v", err)
	}
	if fl.calls != 1 {
		t.Errorf("expected one backend call, got %d", fl.calls)
	}
}
