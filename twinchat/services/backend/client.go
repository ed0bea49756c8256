// twinchat/services/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"twinchat/twinchat/utils/apierror"
	"twinchat/twinchat/utils/logging"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Encoding is how a request's payload goes on the wire.
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingForm
	EncodingMultipart
	EncodingJSON
)

func (e Encoding) String() string {
	switch e {
	case EncodingForm:
		return "form"
	case EncodingMultipart:
		return "multipart"
	case EncodingJSON:
		return "json"
	}
	return "none"
}

// FilePart is one binary part of a multipart request.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// Request describes one backend call. Path may hold {name} placeholders
// filled from PathParams.
type Request struct {
	Op         string
	Method     string
	Path       string
	PathParams map[string]string
	Query      url.Values
	Form       url.Values
	Files      []FilePart
	JSON       any
	Encoding   Encoding
	// LogFields are the identifiers worth seeing next to the route in the logs.
	LogFields []zap.Field
}

// Envelope is a parsed backend response. Body is always valid JSON.
type Envelope struct {
	Status int
	Body   json.RawMessage
}

func (e *Envelope) OK() bool {
	return e.Status >= 200 && e.Status < 300
}

// Decode unmarshals the body into v.
func (e *Envelope) Decode(v any) error {
	if err := json.Unmarshal(e.Body, v); err != nil {
		return apierror.Transport(fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// Err is the normalized error for a non-2xx envelope.
func (e *Envelope) Err(fallback string) *apierror.Error {
	return apierror.FromResponse(e.Status, e.Body, fallback)
}

type Client struct {
	client *resty.Client
	log    logging.Logger
}

func NewClient(baseURL string, timeout time.Duration, log logging.Logger) *Client {
	if log == nil {
		log = logging.Nop()
	}
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "application/json")
	client.SetLogger(restyLogger{log: log})
	return &Client{client: client, log: log}
}

// Do sends req and parses the response. A 4xx/5xx answer with a JSON body is
// not an error here; only transport failures and non-JSON bodies are.
func (c *Client) Do(ctx context.Context, req Request) (*Envelope, error) {
	defer logging.LogDuration(ctx, "backend_"+req.Op)()

	r := c.client.R().SetContext(ctx)
	if len(req.PathParams) > 0 {
		r.SetPathParams(req.PathParams)
	}
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	switch req.Encoding {
	case EncodingForm:
		r.SetFormDataFromValues(req.Form)
	case EncodingMultipart:
		fields := make(map[string]string, len(req.Form))
		for k := range req.Form {
			fields[k] = req.Form.Get(k)
		}
		r.SetMultipartFormData(fields)
		for _, f := range req.Files {
			r.SetMultipartField(f.Field, f.FileName, f.ContentType, bytes.NewReader(f.Data))
		}
	case EncodingJSON:
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.JSON)
	}

	fields := append([]zap.Field{
		zap.String("op", req.Op),
		zap.String("method", req.Method),
		zap.String("route", req.Path),
		zap.String("encoding", req.Encoding.String()),
	}, req.LogFields...)

	resp, err := r.Execute(req.Method, req.Path)
	if err != nil {
		c.log.Error("backend call failed", append(fields, zap.Error(err))...)
		return nil, apierror.Normalize(err)
	}

	body := bytes.TrimSpace(resp.Body())
	if len(body) == 0 {
		body = []byte("null")
	}
	fields = append(fields, zap.Int("status", resp.StatusCode()))
	if !json.Valid(body) {
		c.log.Error("backend returned a non-JSON body", fields...)
		return nil, apierror.Transport(fmt.Errorf("%s: response is not JSON (status %d)", req.Op, resp.StatusCode()))
	}

	env := &Envelope{Status: resp.StatusCode(), Body: json.RawMessage(body)}
	if env.OK() {
		c.log.Info("backend call", fields...)
	} else {
		c.log.Error("backend returned error", append(fields, zap.ByteString("body", truncate(body, 512)))...)
	}
	return env, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}

// restyLogger routes resty's own warnings into our logger.
type restyLogger struct {
	log logging.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Error(fmt.Sprintf(format, v...))
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Info(fmt.Sprintf(format, v...))
}

func (l restyLogger) Debugf(format string, v ...interface{}) {}

var _ resty.Logger = restyLogger{}
