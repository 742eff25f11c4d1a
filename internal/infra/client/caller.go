package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hernanbl/gandolfo-recordatorios/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 1 << 20

// maxRawMessage is the longest non-JSON error body used verbatim.
const maxRawMessage = 100

// ErrInvalidJSON is returned when a 2xx body is not valid JSON.
var ErrInvalidJSON = errors.New("invalid JSON response from server")

// HTTPError is a failed call normalized from a non-2xx status or an HTML
// error page. Message prefers the server's JSON "message" field; Detail
// holds that field alone and is empty when the server sent none.
type HTTPError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// Caller sends JSON requests with retry, HTML-page detection and error
// normalization. It is the only place that talks HTTP to the reservation API.
type Caller struct {
	httpClient *http.Client
	policy     resilience.RetryPolicy
	bulkhead   *resilience.Bulkhead
	logger     *zap.Logger
}

// NewCaller creates a Caller. bulkhead may be nil.
func NewCaller(httpClient *http.Client, policy resilience.RetryPolicy, bulkhead *resilience.Bulkhead, logger *zap.Logger) *Caller {
	if policy.NonRetryable == nil {
		policy.NonRetryable = resilience.IsPermanent
	}
	return &Caller{
		httpClient: httpClient,
		policy:     policy,
		bulkhead:   bulkhead,
		logger:     logger,
	}
}

// Call sends body (JSON-encoded, nil for no body) and decodes the response
// into out. An empty 2xx body leaves out untouched. After the retry policy
// is exhausted the last error is returned; 405 is never retried.
func (c *Caller) Call(ctx context.Context, method, url string, body, out any) error {
	ctx, span := tracer.Start(ctx, "Caller.Call")
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.url", url),
	)

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return resilience.Permanent(fmt.Errorf("encode request: %w", err))
		}
		payload = b
	}

	if c.bulkhead != nil {
		if err := c.bulkhead.Acquire(ctx); err != nil {
			return err
		}
		defer c.bulkhead.Release()
	}

	err := c.policy.Do(ctx, func(attempt int) error {
		err := c.do(ctx, method, url, payload, out)
		if err != nil {
			c.logger.Warn("api call attempt failed",
				zap.String("method", method),
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.policy.Attempts()),
				zap.Bool("permanent", resilience.IsPermanent(err)),
				zap.Error(err),
			)
		}
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (c *Caller) do(ctx context.Context, method, url string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return resilience.Permanent(err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusMethodNotAllowed {
		return resilience.Permanent(newHTTPError(resp.StatusCode, raw))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "text/html") {
		return &HTTPError{StatusCode: resp.StatusCode, Message: "received HTML response instead of JSON"}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp.StatusCode, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

// newHTTPError picks the server's JSON message, then a short raw body,
// then the bare status.
func newHTTPError(status int, raw []byte) *HTTPError {
	e := &HTTPError{StatusCode: status}

	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		e.Detail = body.Message
		if e.Detail == "" {
			e.Detail = body.Error
		}
		e.Message = e.Detail
	} else if text := strings.TrimSpace(string(raw)); text != "" && len(text) < maxRawMessage {
		e.Message = text
	}

	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP error! status: %d", status)
	}
	return e
}
