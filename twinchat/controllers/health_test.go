package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"twinchat/twinchat/sources/memory"
	"twinchat/twinchat/types"
)

func TestHealthCheck(t *testing.T) {
	store := memory.NewSessionStore()
	_ = store.AppendMessage(SessionKey("user-1", "agent-1"), types.Message{ID: "m1", Role: types.RoleUser, Content: "hi"})
	_ = store.AppendMessage(SessionKey("user-1", "agent-1"), types.Message{ID: "m2", Role: types.RoleAgent, Content: "hello"})
	hc := NewHealthController(store)
	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()

	hc.HealthCheck(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	expectedBody := `{"messages":2,"sessions":1,"status":"ok"}`
	if strings.TrimSpace(rr.Body.String()) != expectedBody {
		t.Errorf("expected body %q, got %q", expectedBody, rr.Body.String())
	}

	if rr.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected Content-Type application/json, got %v", rr.Header().Get("Content-Type"))
	}
}
