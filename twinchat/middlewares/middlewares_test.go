package middlewares

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"twinchat/twinchat/config"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserID(r.Context())))
	})
}

func TestIdentitySources(t *testing.T) {
	h := Identity(config.Config{UserID: "default-user"})(echoUser())

	form := url.Values{"user_id": {"form-user"}}
	cases := []struct {
		name string
		req  *http.Request
		want string
	}{
		{"header", func() *http.Request {
			r := httptest.NewRequest("GET", "/?user_id=query-user", nil)
			r.Header.Set(UserIDHeader, "header-user")
			return r
		}(), "header-user"},
		{"query", httptest.NewRequest("GET", "/?user_id=query-user", nil), "query-user"},
		{"form", func() *http.Request {
			r := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			return r
		}(), "form-user"},
		{"default", httptest.NewRequest("GET", "/", nil), "default-user"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, tc.req)
		if rr.Body.String() != tc.want {
			t.Errorf("%s: expected %q, got %q", tc.name, tc.want, rr.Body.String())
		}
	}
}

func TestIdentityLeavesJSONBodyAlone(t *testing.T) {
	h := Identity(config.Config{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Write(body)
	}))
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"message":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Body.String() != `{"message":"hi"}` {
		t.Errorf("body was consumed: %q", rr.Body.String())
	}
}

func TestRequestLoggerOnlySlowOrFailed(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {})
	mux.HandleFunc("/fail", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(15 * time.Millisecond)
	})
	h := middleware.RequestID(RequestLogger(log, 10*time.Millisecond)(mux))

	for _, p := range []string{"/ok", "/fail", "/slow"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", p, nil))
	}

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ContextMap()["path"] != "/fail" || entries[0].ContextMap()["status"] != int64(http.StatusBadGateway) {
		t.Errorf("unexpected first entry %v", entries[0].ContextMap())
	}
	if entries[1].ContextMap()["path"] != "/slow" {
		t.Errorf("unexpected second entry %v", entries[1].ContextMap())
	}
	if entries[0].ContextMap()["request_id"] == "" {
		t.Errorf("request id missing")
	}
}
