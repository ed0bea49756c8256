// Package apierror turns every failure the client can see into one shape:
// a message plus, when it came from HTTP, a status code.
package apierror

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindTransport
	KindBackend
	KindTimeout
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindBackend:
		return "backend"
	case KindTimeout:
		return "timeout"
	case KindCanceled:
		return "canceled"
	}
	return "unknown"
}

const (
	UnreachableMessage = "could not reach service"
	TimeoutMessage     = "request timed out"
	CanceledMessage    = "request canceled"
)

// Error is the normalized error envelope.
type Error struct {
	Kind    Kind   `json:"-"`
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches sentinel errors by kind and message so wrapped copies still compare.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message && e.Status == t.Status
}

// HTTPStatus is the status a proxy should answer with for this error.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindTransport:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindCanceled:
		return 499
	}
	if e.Status >= 400 {
		return e.Status
	}
	return http.StatusInternalServerError
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

var (
	ErrEmptyMessage       = Validation("message must not be empty")
	ErrMissingUser        = Validation("user id is required")
	ErrMissingAgent       = Validation("agent id is required")
	ErrMissingChannel     = Validation("channel link is required")
	ErrInvalidChannelLink = Validation("invalid Telegram channel link (e.g. https://t.me/channelname)")
	ErrMissingTelegramID  = Validation("telegram id and username are required")
	ErrSessionBusy        = Validation("a message is already being sent in this session")
	ErrSessionClosed      = Validation("session was closed")
)

// Transport wraps a network or decoding failure.
func Transport(cause error) *Error {
	return &Error{Kind: KindTransport, Message: UnreachableMessage, cause: cause}
}

// Normalize maps any error onto *Error. nil stays nil.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Message: TimeoutMessage, cause: err}
	case errors.Is(err, context.Canceled):
		return &Error{Kind: KindCanceled, Message: CanceledMessage, cause: err}
	}
	return Transport(err)
}

// FromResponse builds a backend error from a non-2xx response body. The
// message is taken from "detail", then "error", then "message"; fallback is
// used when none of them carries text.
func FromResponse(status int, body []byte, fallback string) *Error {
	msg := extractMessage(body)
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return &Error{Kind: KindBackend, Message: msg, Status: status}
}

func extractMessage(body []byte) string {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message"} {
		raw, ok := payload[key]
		if !ok {
			continue
		}
		if msg := messageFrom(raw); msg != "" {
			return msg
		}
	}
	return ""
}

// messageFrom accepts a plain string, an object with "message" or "msg"
// (or a nested "detail"), or a list of such objects as FastAPI emits for
// validation failures.
func messageFrom(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		for _, key := range []string{"message", "msg", "detail", "error"} {
			if v, ok := obj[key]; ok {
				if msg := messageFrom(v); msg != "" {
					return msg
				}
			}
		}
		return ""
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if msg := messageFrom(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
