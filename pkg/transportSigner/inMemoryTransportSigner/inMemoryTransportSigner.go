package inMemoryTransportSigner

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"

	"github.com/mypos-ipc/ipc-go/pkg/keystore"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
	"go.uber.org/zap"
)

// InMemoryTransportSigner signs with an RSA key held in process memory.
// PKCS#1 v1.5 signatures are deterministic, so equal messages always yield
// equal signatures.
type InMemoryTransportSigner struct {
	logger     *zap.Logger
	privateKey *rsa.PrivateKey
	keyIndex   int
}

var _ transportSigner.ITransportSigner = (*InMemoryTransportSigner)(nil)

// NewRSAInMemoryTransportSigner parses PEM or JWK key material
func NewRSAInMemoryTransportSigner(
	privateKey []byte,
	keyIndex int,
	logger *zap.Logger,
) (*InMemoryTransportSigner, error) {
	key, err := keystore.ParsePrivateKey(privateKey)
	if err != nil {
		return nil, &types.SignatureError{Op: "load key", Cause: fmt.Errorf("error loading private key: %w", err)}
	}

	return NewInMemoryTransportSigner(key, keyIndex, logger)
}

func NewInMemoryTransportSigner(
	key *rsa.PrivateKey,
	keyIndex int,
	logger *zap.Logger,
) (*InMemoryTransportSigner, error) {
	if key == nil {
		return nil, &types.SignatureError{Op: "load key", Cause: fmt.Errorf("private key is nil")}
	}
	if thumbprint, err := keystore.Thumbprint(&key.PublicKey); err == nil {
		logger.Sugar().Debugw("Loaded in-memory transport signer",
			"key_index", keyIndex,
			"key_thumbprint", thumbprint,
		)
	}
	return &InMemoryTransportSigner{
		logger:     logger,
		privateKey: key,
		keyIndex:   keyIndex,
	}, nil
}

// SignMessage hashes data with SHA-256 and signs it with PKCS#1 v1.5
func (its *InMemoryTransportSigner) SignMessage(_ context.Context, data []byte) ([]byte, error) {
	hashed := sha256.Sum256(data)
	sig, err := rsa.SignPKCS1v15(nil, its.privateKey, crypto.SHA256, hashed[:])
	if err != nil {
		return nil, &types.SignatureError{Op: "sign", Cause: err}
	}
	return sig, nil
}

func (its *InMemoryTransportSigner) KeyIndex() int {
	return its.keyIndex
}

// PublicKey returns the verifying half of the signing key
func (its *InMemoryTransportSigner) PublicKey() *rsa.PublicKey {
	return &its.privateKey.PublicKey
}
