package config

import (
	"crypto/rsa"
	"time"

	"github.com/pkg/errors"

	"github.com/mypos-ipc/ipc-go/pkg/keystore"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// GatewayConfig is a validated, parsed configuration. It is never mutated
// after construction and may be shared by concurrent requests.
type GatewayConfig struct {
	privateKey       *rsa.PrivateKey
	apiPublicKeys    *keystore.PublicKeySet
	encryptPublicKey *rsa.PublicKey

	keyIndex     int
	sid          string
	wallet       string
	lang         string
	version      string
	developerKey string
	source       string

	mode     Mode
	endpoint string
	timeout  time.Duration

	urls         PortalURLs
	remoteSigner *RemoteSignerConfig
}

// NewGatewayConfig validates cfg and urls and parses the key material.
// urls may be nil when no browser-facing operation is used.
func NewGatewayConfig(cfg *IPCConfig, urls *PortalURLs) (*GatewayConfig, error) {
	if cfg == nil {
		return nil, &types.ConfigurationError{Field: "config", Cause: errors.New("config is nil")}
	}
	if urls == nil {
		urls = &PortalURLs{}
	}

	allErrors := cfg.validate()
	allErrors = append(allErrors, urls.validate()...)
	if err := toConfigurationError(allErrors); err != nil {
		return nil, err
	}

	gc := &GatewayConfig{
		keyIndex:     cfg.KeyIndex,
		sid:          cfg.SID,
		wallet:       cfg.WalletNumber,
		lang:         cfg.Lang,
		version:      cfg.Version,
		developerKey: cfg.DeveloperKey,
		source:       cfg.Source,
		mode:         cfg.Mode(),
		endpoint:     cfg.Endpoint(),
		timeout:      cfg.Timeout,
		urls:         *urls,
	}

	if cfg.RemoteSigner != nil {
		rs := *cfg.RemoteSigner
		gc.remoteSigner = &rs
	} else {
		priv, err := loadPrivateKey(cfg.PrivateKey)
		if err != nil {
			return nil, &types.ConfigurationError{Field: "privateKey", Cause: err}
		}
		gc.privateKey = priv
	}

	active, err := loadPublicKey(cfg.APIPublicKey)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "apiPublicKey", Cause: err}
	}
	keys := map[int]*rsa.PublicKey{cfg.KeyIndex: active}
	for idx, material := range cfg.PreviousAPIPublicKeys {
		pub, err := loadPublicKey(material)
		if err != nil {
			return nil, &types.ConfigurationError{Field: "previousApiPublicKeys", Cause: errors.Wrapf(err, "key index %d", idx)}
		}
		keys[idx] = pub
	}
	gc.apiPublicKeys, err = keystore.NewPublicKeySet(cfg.KeyIndex, keys)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "apiPublicKey", Cause: err}
	}

	gc.encryptPublicKey, err = loadPublicKey(cfg.EncryptPublicKey)
	if err != nil {
		return nil, &types.ConfigurationError{Field: "encryptPublicKey", Cause: err}
	}

	return gc, nil
}

func loadPrivateKey(value string) (*rsa.PrivateKey, error) {
	data, err := keystore.ReadKeyMaterial(value)
	if err != nil {
		return nil, err
	}
	return keystore.ParsePrivateKey(data)
}

func loadPublicKey(value string) (*rsa.PublicKey, error) {
	data, err := keystore.ReadKeyMaterial(value)
	if err != nil {
		return nil, err
	}
	return keystore.ParsePublicKey(data)
}

// PrivateKey returns the local signing key, or nil when a remote signer is configured
func (g *GatewayConfig) PrivateKey() *rsa.PrivateKey { return g.privateKey }

func (g *GatewayConfig) APIPublicKeys() *keystore.PublicKeySet { return g.apiPublicKeys }

func (g *GatewayConfig) EncryptPublicKey() *rsa.PublicKey { return g.encryptPublicKey }

func (g *GatewayConfig) KeyIndex() int { return g.keyIndex }

func (g *GatewayConfig) SID() string { return g.sid }

func (g *GatewayConfig) WalletNumber() string { return g.wallet }

func (g *GatewayConfig) Lang() string { return g.lang }

func (g *GatewayConfig) Version() string { return g.version }

func (g *GatewayConfig) DeveloperKey() string { return g.developerKey }

func (g *GatewayConfig) Source() string { return g.source }

func (g *GatewayConfig) Mode() Mode { return g.mode }

// Endpoint is the URL used for both browser redirects and direct exchanges
func (g *GatewayConfig) Endpoint() string { return g.endpoint }

func (g *GatewayConfig) Timeout() time.Duration { return g.timeout }

// URLs returns a copy of the portal URLs
func (g *GatewayConfig) URLs() PortalURLs { return g.urls }

// RemoteSigner returns a copy of the KMS signer settings, or nil
func (g *GatewayConfig) RemoteSigner() *RemoteSignerConfig {
	if g.remoteSigner == nil {
		return nil
	}
	rs := *g.remoteSigner
	return &rs
}
