package testutil

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/config"
	"github.com/mypos-ipc/ipc-go/pkg/response"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// TestKeys are the three key pairs of a merchant/gateway setup
type TestKeys struct {
	Merchant   *rsa.PrivateKey // signs requests
	Gateway    *rsa.PrivateKey // signs responses
	Encryption *rsa.PrivateKey // decrypts card data
}

var (
	keysOnce sync.Once
	keys     *TestKeys
	keysErr  error
)

// Keys returns process-wide test keys, generated on first use
func Keys(t *testing.T) *TestKeys {
	t.Helper()
	keysOnce.Do(func() {
		k := &TestKeys{}
		for _, dst := range []**rsa.PrivateKey{&k.Merchant, &k.Gateway, &k.Encryption} {
			*dst, keysErr = rsa.GenerateKey(rand.Reader, 2048)
			if keysErr != nil {
				return
			}
		}
		keys = k
	})
	require.NoError(t, keysErr)
	return keys
}

// PrivateKeyPEM encodes key as PKCS#1 PEM
func PrivateKeyPEM(key *rsa.PrivateKey) string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}))
}

// PublicKeyPEM encodes the public half of key as PKIX PEM
func PublicKeyPEM(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

// NewIPCConfig returns a config wired to the test keys and endpoint
func NewIPCConfig(t *testing.T, endpoint string) *config.IPCConfig {
	k := Keys(t)
	cfg := config.DefaultIPCConfig()
	cfg.PrivateKey = PrivateKeyPEM(k.Merchant)
	cfg.APIPublicKey = PublicKeyPEM(t, k.Gateway)
	cfg.EncryptPublicKey = PublicKeyPEM(t, k.Encryption)
	cfg.IPCURL = endpoint
	return cfg
}

// TestURLs are portal URLs accepted by every operation
var TestURLs = config.PortalURLs{
	OK:     "https://shop.example/ok",
	Cancel: "https://shop.example/cancel",
	Notify: "https://shop.example/notify",
}

// NewGatewayConfig is NewIPCConfig followed by config.NewGatewayConfig
func NewGatewayConfig(t *testing.T, endpoint string) *config.GatewayConfig {
	urls := TestURLs
	gc, err := config.NewGatewayConfig(NewIPCConfig(t, endpoint), &urls)
	require.NoError(t, err)
	return gc
}

// Sign returns the base64 signature of canonical bytes
func Sign(key *rsa.PrivateKey, payload types.CanonicalBytes) (string, error) {
	hashed := sha256.Sum256(transportSigner.EncodeMessage(payload))
	sig, err := rsa.SignPKCS1v15(nil, key, crypto.SHA256, hashed[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// SignJSON signs a JSON object body and appends the Signature member
func SignJSON(key *rsa.PrivateKey, body string) ([]byte, error) {
	doc, err := response.ParseDocument([]byte(body))
	if err != nil {
		return nil, err
	}
	sig, err := Sign(key, canonical.Join(doc.Flatten()))
	if err != nil {
		return nil, err
	}
	root := doc.Root()
	root.Members = append(root.Members, response.Member{
		Name:  types.FieldSignature,
		Value: &response.Node{Kind: response.KindString, Text: sig},
	})
	return root.MarshalJSON()
}

// SignFields returns fields followed by their Signature, as the gateway posts them
func SignFields(key *rsa.PrivateKey, fields []types.Field) ([]types.Field, error) {
	sig, err := Sign(key, canonical.Join(fields))
	if err != nil {
		return nil, err
	}
	out := make([]types.Field, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, types.Field{Name: types.FieldSignature, Value: sig}), nil
}
