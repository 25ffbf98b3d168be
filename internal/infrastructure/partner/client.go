// Package partner is the client for the refinancing partner's REST API.
//
// A Client authenticates lazily, caches the bearer token for TokenValidity
// and reports every failure as a *Error. It never retries; retry policy
// belongs to the caller.
package partner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/beneficios/backend/internal/domain/refinancing"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024

	tracerName = "github.com/beneficios/backend/internal/infrastructure/partner"
)

// Operation names used for logs, spans and metrics
const (
	OpAuthenticate = "authenticate"
	OpContracts    = "contracts"
	OpSimulate     = "simulate"
)

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Recorder observes partner round trips. Status is 0 when no response arrived.
type Recorder interface {
	ObserveRequest(operation string, status int, duration time.Duration)
}

type noopRecorder struct{}

func (noopRecorder) ObserveRequest(string, int, time.Duration) {}

// Client talks to the partner API
type Client struct {
	config   *Config
	http     Doer
	now      func() time.Time
	logger   *zap.Logger
	recorder Recorder
	tracer   trace.Tracer

	// tokenSem is a one-slot semaphore held for the whole acquisition so
	// concurrent callers share a single authentication round trip. Waiters
	// give up when their own context ends.
	tokenSem chan struct{}
	token    authToken
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP transport
func WithHTTPClient(doer Doer) Option {
	return func(c *Client) {
		c.http = doer
	}
}

// WithClock replaces time.Now, mainly for token expiry tests
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// NewClient creates a partner client with the given configuration
func NewClient(config *Config, opts ...Option) (*Client, error) {
	if config == nil {
		return nil, ErrConfigMissingBaseURL
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: config,
		http: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		now:      time.Now,
		logger:   zap.NewNop(),
		recorder: noopRecorder{},
		tracer:   otel.Tracer(tracerName),
		tokenSem: make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("partner")

	return c, nil
}

// GetContracts lists the contracts of the given document number.
// The document number is sent as given; validate it beforehand.
func (c *Client) GetContracts(ctx context.Context, documentNumber string) ([]refinancing.Contract, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("CpfCliente", documentNumber)

	status, body, err := c.send(ctx, OpContracts, http.MethodGet, pathContracts+"?"+query.Encode(), token, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newStatusError(status, MsgContractsFailed, body)
	}

	var resp contractsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newMalformedError(MsgInvalidResponse, body, err)
	}
	if resp.Data == nil {
		return []refinancing.Contract{}, nil
	}
	return resp.Data, nil
}

// SimulateRefinancing asks the partner for refinancing offers.
// The partner's envelope is returned as is, including business errors it
// reports with a 2xx status.
func (c *Client) SimulateRefinancing(ctx context.Context, req refinancing.SimulationRequest) (*refinancing.SimulationEnvelope, error) {
	token, err := c.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	status, body, err := c.send(ctx, OpSimulate, http.MethodPost, pathSimulations, token, newSimulationBody(req))
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, newStatusError(status, SimulationMessage(status), body)
	}

	var envelope refinancing.SimulationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, newMalformedError(MsgInvalidResponse, body, err)
	}
	return &envelope, nil
}

// authenticate returns the cached token, acquiring a new one when it has expired
func (c *Client) authenticate(ctx context.Context) (string, error) {
	select {
	case c.tokenSem <- struct{}{}:
	case <-ctx.Done():
		return "", newTransportError(ctx.Err())
	}
	defer func() { <-c.tokenSem }()

	if c.token.validAt(c.now()) {
		return c.token.value, nil
	}

	payload := authRequest{
		Username: c.config.Username,
		Password: c.config.Password,
	}
	status, body, err := c.send(ctx, OpAuthenticate, http.MethodPost, pathAuthenticate, "", payload)
	if err != nil {
		return "", err
	}
	if !isSuccess(status) {
		return "", newStatusError(status, MsgAuthenticationFailed, body)
	}

	var resp authResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", newMalformedError(MsgMissingToken, body, err)
	}
	if resp.Data == nil || resp.Data.Token == "" {
		return "", newMalformedError(MsgMissingToken, body, nil)
	}

	acquiredAt := c.now()
	c.token = authToken{
		value:     resp.Data.Token,
		expiresAt: tokenExpiry(resp.Data.Token, acquiredAt),
	}
	c.logger.Debug("Partner token acquired", zap.Time("expires_at", c.token.expiresAt))

	return c.token.value, nil
}

// send performs one round trip. A non-nil error is always a transport
// failure; HTTP status handling is left to the caller.
func (c *Client) send(ctx context.Context, op, method, path, token string, payload any) (int, []byte, error) {
	ctx, span := c.tracer.Start(ctx, "partner."+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("partner.operation", op),
			attribute.String("http.request.method", method),
		),
	)
	defer span.End()

	start := time.Now()
	status, body, err := c.roundTrip(ctx, method, path, token, payload)
	elapsed := time.Since(start)

	c.recorder.ObserveRequest(op, status, elapsed)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, MsgConnectionProblem)
		c.logger.Warn("Partner request failed",
			zap.String("operation", op),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return 0, nil, newTransportError(err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", status))
	if !isSuccess(status) {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
	c.logger.Debug("Partner request",
		zap.String("operation", op),
		zap.Int("status", status),
		zap.Duration("latency", elapsed),
	)

	return status, body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, payload any) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.config.BaseURL, "/") + path
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
