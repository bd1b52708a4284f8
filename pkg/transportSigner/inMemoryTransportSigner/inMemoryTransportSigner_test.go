package inMemoryTransportSigner

import (
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mypos-ipc/ipc-go/pkg/encryption"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

func TestNewRSAInMemoryTransportSigner(t *testing.T) {
	privPEM, _, err := encryption.GenerateKeyPair(2048)
	require.NoError(t, err)

	signer, err := NewRSAInMemoryTransportSigner(privPEM, 3, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 3, signer.KeyIndex())

	msg := []byte("bWVzc2FnZQ==")
	sig, err := signer.SignMessage(context.Background(), msg)
	require.NoError(t, err)

	hashed := sha256.Sum256(msg)
	assert.NoError(t, rsa.VerifyPKCS1v15(signer.PublicKey(), crypto.SHA256, hashed[:], sig))

	again, err := signer.SignMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Equal(t, sig, again)
}

func TestNewRSAInMemoryTransportSigner_BadKey(t *testing.T) {
	_, err := NewRSAInMemoryTransportSigner([]byte("not a key"), 1, zaptest.NewLogger(t))
	var sigErr *types.SignatureError
	require.True(t, errors.As(err, &sigErr))

	_, err = NewInMemoryTransportSigner(nil, 1, zaptest.NewLogger(t))
	require.True(t, errors.As(err, &sigErr))
}
