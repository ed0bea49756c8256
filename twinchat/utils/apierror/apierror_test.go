package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFromResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"detail string", `{"detail":"LLM unavailable"}`, "LLM unavailable"},
		{"error string", `{"error":"Missing required fields"}`, "Missing required fields"},
		{"detail object", `{"detail":{"message":"Telegram channel_access operation failed","details":{}}}`, "Telegram channel_access operation failed"},
		{"fastapi validation", `{"detail":[{"loc":["query","user_id"],"msg":"field required"},{"msg":"value too short"}]}`, "field required; value too short"},
		{"detail wins over error", `{"detail":"first","error":"second"}`, "first"},
		{"empty detail falls through", `{"detail":"","error":"second"}`, "second"},
		{"no known field", `{"status":"failed"}`, "fallback"},
		{"not json", `<html>bad gateway</html>`, "fallback"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := FromResponse(http.StatusInternalServerError, []byte(tc.body), "fallback")
			if err.Message != tc.want {
				t.Errorf("expected %q, got %q", tc.want, err.Message)
			}
			if err.Status != http.StatusInternalServerError || err.Kind != KindBackend {
				t.Errorf("unexpected status/kind %d/%v", err.Status, err.Kind)
			}
		})
	}
}

func TestFromResponseWithoutFallback(t *testing.T) {
	err := FromResponse(http.StatusTeapot, nil, "")
	if err.Message != "request failed with status 418" {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestNormalize(t *testing.T) {
	if Normalize(nil) != nil {
		t.Fatalf("nil must stay nil")
	}

	wrapped := fmt.Errorf("send: %w", ErrEmptyMessage)
	if got := Normalize(wrapped); got != ErrEmptyMessage {
		t.Errorf("expected sentinel back, got %v", got)
	}

	timeout := Normalize(fmt.Errorf("post: %w", context.DeadlineExceeded))
	if timeout.Kind != KindTimeout || timeout.Message != TimeoutMessage {
		t.Errorf("unexpected timeout error %+v", timeout)
	}

	canceled := Normalize(context.Canceled)
	if canceled.Kind != KindCanceled {
		t.Errorf("unexpected canceled error %+v", canceled)
	}

	cause := errors.New("dial tcp: connection refused")
	transport := Normalize(cause)
	if transport.Kind != KindTransport || transport.Message != UnreachableMessage {
		t.Errorf("unexpected transport error %+v", transport)
	}
	if !errors.Is(transport, cause) {
		t.Errorf("transport error should unwrap to its cause")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[*Error]int{
		ErrMissingUser:                     http.StatusBadRequest,
		Transport(errors.New("x")):         http.StatusBadGateway,
		Normalize(context.DeadlineExceeded): http.StatusGatewayTimeout,
		FromResponse(404, nil, "missing"):  http.StatusNotFound,
		{Kind: KindBackend, Status: 200}:   http.StatusInternalServerError,
	}
	for e, want := range cases {
		if got := e.HTTPStatus(); got != want {
			t.Errorf("%v: expected %d, got %d", e, want, got)
		}
	}
}

func TestEnvelopeJSON(t *testing.T) {
	data, _ := json.Marshal(FromResponse(500, []byte(`{"detail":"LLM unavailable"}`), ""))
	if string(data) != `{"message":"LLM unavailable","status":500}` {
		t.Errorf("unexpected envelope %s", data)
	}
	data, _ = json.Marshal(ErrEmptyMessage)
	if string(data) != `{"message":"message must not be empty"}` {
		t.Errorf("unexpected envelope %s", data)
	}
}
