package ipcClient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mypos-ipc/ipc-go/pkg/config"
	"github.com/mypos-ipc/ipc-go/pkg/encryption"
	"github.com/mypos-ipc/ipc-go/pkg/operations"
	"github.com/mypos-ipc/ipc-go/pkg/response"
	"github.com/mypos-ipc/ipc-go/pkg/transport"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner/inMemoryTransportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// ClientConfig holds the dependencies of a gateway client
type ClientConfig struct {
	GatewayConfig *config.GatewayConfig
	Logger        *zap.Logger

	// Signer is optional; when nil the private key of GatewayConfig is used
	Signer transportSigner.ITransportSigner

	// Params replaces the default protocol settings; nil means operations.DefaultParams
	Params *operations.Params
}

// Client runs gateway operations. It holds only read-only state and may be
// used from many goroutines at once.
type Client struct {
	gatewayConfig *config.GatewayConfig
	signer        transportSigner.ITransportSigner
	transport     *transport.Client
	verifier      *response.Verifier
	encryptor     *encryption.FieldEncryptor
	header        operations.Header
	params        operations.Params
	logger        *zap.Logger
}

// NewClient creates a new gateway client
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.GatewayConfig == nil {
		return nil, fmt.Errorf("gateway config is required")
	}
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	gc := cfg.GatewayConfig

	signer := cfg.Signer
	if signer == nil {
		if gc.PrivateKey() == nil {
			return nil, &types.ConfigurationError{Field: "privateKey", Cause: fmt.Errorf("no signer given and no private key configured")}
		}
		s, err := inMemoryTransportSigner.NewInMemoryTransportSigner(gc.PrivateKey(), gc.KeyIndex(), cfg.Logger)
		if err != nil {
			return nil, err
		}
		signer = s
	}
	if signer.KeyIndex() != gc.KeyIndex() {
		return nil, &types.ConfigurationError{
			Field: "keyIndex",
			Cause: fmt.Errorf("signer key index %d does not match configured key index %d", signer.KeyIndex(), gc.KeyIndex()),
		}
	}

	encryptor, err := encryption.NewFieldEncryptor(gc.EncryptPublicKey())
	if err != nil {
		return nil, &types.ConfigurationError{Field: "encryptPublicKey", Cause: err}
	}

	params := operations.DefaultParams()
	if cfg.Params != nil {
		params = *cfg.Params
	}

	return &Client{
		gatewayConfig: gc,
		signer:        signer,
		transport:     transport.NewClient(gc.Endpoint(), gc.Timeout(), cfg.Logger),
		verifier:      response.NewVerifier(gc.APIPublicKeys(), cfg.Logger),
		encryptor:     encryptor,
		header:        operations.HeaderFromConfig(gc),
		params:        params,
		logger:        cfg.Logger,
	}, nil
}

// SetHttpClient replaces the HTTP client used for direct exchanges
func (c *Client) SetHttpClient(client *http.Client) {
	c.transport.SetHttpClient(client)
}

// callParams merges per-call options over a copy of the client defaults
func (c *Client) callParams(opts []operations.ParamOption) operations.Params {
	return operations.Merge(c.params, opts...)
}

// redirect signs req and prepares the browser form without sending it
func (c *Client) redirect(ctx context.Context, req *operations.Request) (*transport.FormSubmission, error) {
	env, err := transportSigner.CreateSignedEnvelope(ctx, c.signer, req.Fields, req.Schema)
	if err != nil {
		return nil, err
	}
	return c.transport.PrepareRedirect(env), nil
}

// exchange signs req, sends it and returns the verified response
func (c *Client) exchange(ctx context.Context, req *operations.Request) (*response.VerifiedDocument, error) {
	start := time.Now()

	env, err := transportSigner.CreateSignedEnvelope(ctx, c.signer, req.Fields, req.Schema)
	if err != nil {
		return nil, err
	}

	body, err := c.transport.Exchange(ctx, env)
	if err != nil {
		return nil, err
	}

	doc, err := response.ParseDocument(body)
	if err != nil {
		return nil, err
	}

	verified, err := c.verifier.Verify(doc)
	if err != nil {
		return nil, err
	}

	if err := verified.Status(); err != nil {
		c.logger.Sugar().Infow("Gateway reported failure",
			"method", req.Method,
			"error", err,
		)
		return nil, err
	}

	c.logger.Sugar().Debugw("Gateway operation completed",
		"method", req.Method,
		"key_index", env.KeyIndex,
		"duration", time.Since(start),
	)
	return verified, nil
}

// ParseResponseSignature verifies fields the gateway posted to a portal URL
// and returns them without the Signature
func (c *Client) ParseResponseSignature(fields []types.Field) ([]types.Field, error) {
	return c.verifier.VerifyFields(fields)
}

// Verifier returns the response verifier, for notify handlers
func (c *Client) Verifier() *response.Verifier {
	return c.verifier
}
