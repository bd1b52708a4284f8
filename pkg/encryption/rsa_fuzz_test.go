package encryption

import (
	"bytes"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fuzzEncryptor and fuzzPrivKey are generated once to avoid expensive keygen
// in each fuzz iteration
var (
	fuzzEncryptor *FieldEncryptor
	fuzzPrivKey   *rsa.PrivateKey
)

func init() {
	privPEM, _, err := GenerateKeyPair(1024)
	if err != nil {
		return
	}
	block, _ := pem.Decode(privPEM)
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return
	}
	fuzzPrivKey = key
	fuzzEncryptor, _ = NewFieldEncryptor(&key.PublicKey)
}

func FuzzEncryptFieldRoundTrip(f *testing.F) {
	if fuzzEncryptor == nil {
		f.Skip("failed to generate RSA keypair for fuzzing")
	}

	const maxPKCS1MsgLen = 117 // 1024-bit modulus minus 11 bytes of padding
	f.Add("4111111111111111")
	f.Add("123")
	f.Add("2506")
	f.Add(string(bytes.Repeat([]byte{'9'}, maxPKCS1MsgLen)))

	f.Fuzz(func(t *testing.T, plaintext string) {
		if len(plaintext) > maxPKCS1MsgLen {
			plaintext = plaintext[:maxPKCS1MsgLen]
		}
		if plaintext == "" {
			return
		}

		encoded, err := fuzzEncryptor.EncryptField(plaintext)
		require.NoError(t, err)

		decrypted, err := DecryptField(encoded, fuzzPrivKey)
		require.NoError(t, err)
		require.Equal(t, plaintext, decrypted)
	})
}

func TestEncryptField(t *testing.T) {
	if fuzzEncryptor == nil {
		t.Skip("failed to generate RSA keypair")
	}

	t.Run("empty passes through", func(t *testing.T) {
		out, err := fuzzEncryptor.EncryptField("")
		require.NoError(t, err)
		assert.Equal(t, "", out)
	})

	t.Run("ciphertext is base64 and randomized", func(t *testing.T) {
		a, err := fuzzEncryptor.EncryptField("4111111111111111")
		require.NoError(t, err)
		b, err := fuzzEncryptor.EncryptField("4111111111111111")
		require.NoError(t, err)

		raw, err := base64.StdEncoding.DecodeString(a)
		require.NoError(t, err)
		assert.Len(t, raw, 128)
		assert.NotEqual(t, a, b)
	})

	t.Run("oversized value rejected", func(t *testing.T) {
		_, err := fuzzEncryptor.EncryptField(string(bytes.Repeat([]byte{'x'}, 200)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exceeds")
	})

	t.Run("invalid base64 on decrypt", func(t *testing.T) {
		_, err := DecryptField("%%%", fuzzPrivKey)
		require.Error(t, err)
	})
}

func TestNewFieldEncryptor_NilKey(t *testing.T) {
	_, err := NewFieldEncryptor(nil)
	require.Error(t, err)
}
