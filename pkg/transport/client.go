package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mypos-ipc/ipc-go/pkg/types"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"

	// maxResponseBytes caps how much of a gateway response is read
	maxResponseBytes = 4 << 20
)

// FormSubmission is a prepared browser redirect. The caller renders it as an
// auto-submitting form; no request is made by this package.
type FormSubmission struct {
	Action string
	Method string
	Fields []types.Field
}

// Encode returns the urlencoded form body with fields in signed order
func (f *FormSubmission) Encode() string {
	return EncodeForm(f.Fields)
}

// Client delivers signed envelopes to the gateway endpoint
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a transport client. timeout bounds each exchange.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// SetHttpClient replaces the HTTP client; used by tests
func (c *Client) SetHttpClient(client *http.Client) {
	c.httpClient = client
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// PrepareRedirect returns the exact field set for a client-driven form post
func (c *Client) PrepareRedirect(env *types.SignedEnvelope) *FormSubmission {
	c.logger.Sugar().Debugw("Prepared redirect form",
		"method", env.Method,
		"key_index", env.KeyIndex,
		"field_count", len(env.Order)+1,
	)
	return &FormSubmission{
		Action: c.endpoint,
		Method: http.MethodPost,
		Fields: env.WireFields(),
	}
}

// Exchange posts the envelope and returns the raw response body.
// Exactly one round trip is made.
func (c *Client) Exchange(ctx context.Context, env *types.SignedEnvelope) ([]byte, error) {
	body := EncodeForm(env.WireFields())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBufferString(body))
	if err != nil {
		return nil, &types.TransportError{Op: "build request", Cause: err}
	}
	req.Header.Set("Content-Type", contentTypeForm)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Sugar().Warnw("Gateway request failed",
			"method", env.Method,
			"error", err,
		)
		return nil, &types.TransportError{Op: "request", Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &types.TransportError{Op: "read body", StatusCode: resp.StatusCode, Cause: err}
	}

	c.logger.Sugar().Debugw("Gateway responded",
		"method", env.Method,
		"status", resp.StatusCode,
		"body_length", len(respBody),
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &types.TransportError{
			Op:         "request",
			StatusCode: resp.StatusCode,
			Cause:      fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
	if len(bytes.TrimSpace(respBody)) == 0 {
		return nil, &types.TransportError{Op: "read body", StatusCode: resp.StatusCode, Cause: types.ErrEmptyBody}
	}

	return respBody, nil
}
