// Package api talks to the Toman REST backend and normalizes its responses
// into the models package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tgienger/toman/internal/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the local development backend
const DefaultBaseURL = "http://localhost:5000"

// maxBody caps how much of a response is read
const maxBody = 8 << 20

var tracer = otel.Tracer("github.com/tgienger/toman/internal/api")

// TokenSource supplies the bearer token sent with every request
type TokenSource interface {
	Token() string
}

// Config for a Client
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxFailures uint32        // consecutive transport or 5xx failures before the breaker opens
	Cooldown    time.Duration // how long the breaker stays open
}

// Client is the REST adapter for the Toman backend
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	breaker *gobreaker.CircuitBreaker
	log     logrus.FieldLogger
}

// Option customises a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a Client. An empty BaseURL falls back to DefaultBaseURL.
func New(cfg Config, tokens TokenSource, log logrus.FieldLogger, opts ...Option) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		tokens:  tokens,
		log:     log,
	}
	maxFailures := cfg.MaxFailures
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "toman-api",
		MaxRequests: 1,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: breakerSuccess,
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{
				"operation": "api.breaker",
				"from":      from.String(),
				"to":        to.String(),
			}).Warn("circuit breaker state changed")
		},
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend root the client talks to
func (c *Client) BaseURL() string { return c.baseURL }

// breakerSuccess counts only transport failures and server errors against
// the backend's health.
func breakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var e *apperr.Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case apperr.KindNetwork:
		return false
	case apperr.KindHTTP:
		return e.Status < 500
	}
	return true
}

// do sends one request and returns the raw response body
func (c *Client) do(ctx context.Context, method, path string, in any) ([]byte, error) {
	const op = "api.Client.do"
	reqID := uuid.NewString()
	log := c.log.WithFields(logrus.Fields{
		"operation":  op,
		"method":     method,
		"path":       path,
		"request_id": reqID,
	})

	ctx, span := tracer.Start(ctx, method+" "+route(path), trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("request.id", reqID),
	)

	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return nil, fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
	}

	start := time.Now()
	status := 0
	out, err := c.breaker.Execute(func() (any, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return nil, fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", reqID)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if tok := c.tokens.Token(); tok != "" {
				req.Header.Set("Authorization", "Bearer "+tok)
			}
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, apperr.Network(method+" "+path, err)
		}
		defer resp.Body.Close()
		status = resp.StatusCode

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
		if err != nil {
			return nil, apperr.Network(method+" "+path, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, statusError(resp.StatusCode, path, data)
		}
		return data, nil
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = apperr.Network(method+" "+path, err)
	}

	span.SetAttributes(attribute.Int("http.status_code", status))
	log = log.WithFields(logrus.Fields{"status": status, "elapsed": time.Since(start).String()})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.WithError(err).Debug("request failed")
		return nil, err
	}
	log.Debug("request completed")
	return out.([]byte), nil
}

// call sends a request and decodes the (possibly wrapped) response into out
func (c *Client) call(ctx context.Context, method, path string, in, out any, keys ...string) error {
	data, err := c.do(ctx, method, path, in)
	if err != nil {
		return err
	}
	if out == nil {
		// still honour {success:false} on bodies we otherwise ignore
		_, err := unwrap(data)
		return err
	}
	return decode(data, out, keys...)
}

func statusError(status int, path string, body []byte) error {
	msg := http.StatusText(status)
	var env map[string]json.RawMessage
	if json.Unmarshal(body, &env) == nil {
		msg = serverMessage(env, msg)
	}
	if status == http.StatusNotFound {
		return &apperr.Error{Kind: apperr.KindNotFound, Status: status, Message: fmt.Sprintf("%s: %s", path, msg)}
	}
	return apperr.HTTP(status, msg)
}

// route collapses ids out of a path so span names stay low-cardinality
func route(path string) string {
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) > 1 {
		return "/" + parts[0] + "/:id"
	}
	return path
}
