package encryption

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
)

// FieldEncryptor encrypts sensitive card fields (PAN, CVC, expiry) for the
// gateway with its encryption public key. The gateway expects RSA PKCS#1 v1.5
// padding and standard base64 text.
type FieldEncryptor struct {
	publicKey *rsa.PublicKey
}

// NewFieldEncryptor creates an encryptor for the given public key
func NewFieldEncryptor(publicKey *rsa.PublicKey) (*FieldEncryptor, error) {
	if publicKey == nil {
		return nil, fmt.Errorf("encryption public key cannot be nil")
	}
	return &FieldEncryptor{publicKey: publicKey}, nil
}

// EncryptField encrypts a single field value and returns it base64 encoded
func (e *FieldEncryptor) EncryptField(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	limit := e.publicKey.Size() - 11
	if len(value) > limit {
		return "", fmt.Errorf("value of %d bytes exceeds the %d byte limit for this key", len(value), limit)
	}

	ciphertext, err := rsa.EncryptPKCS1v15(rand.Reader, e.publicKey, []byte(value))
	if err != nil {
		return "", fmt.Errorf("encryption failed: %w", err)
	}

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptField reverses EncryptField; used by gateway simulators in tests
func DecryptField(encoded string, privateKey *rsa.PrivateKey) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("invalid base64: %w", err)
	}

	plaintext, err := rsa.DecryptPKCS1v15(rand.Reader, privateKey, ciphertext)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}

// GenerateKeyPair generates a new RSA key pair for testing
func GenerateKeyPair(bits int) (privateKeyPEM, publicKeyPEM []byte, err error) {
	// Generate private key
	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate key: %w", err)
	}

	// Encode private key to PEM
	privKeyBytes := x509.MarshalPKCS1PrivateKey(privateKey)
	privKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: privKeyBytes,
	})

	// Encode public key to PEM
	pubKeyBytes, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	pubKeyPEM := pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: pubKeyBytes,
	})

	return privKeyPEM, pubKeyPEM, nil
}
