package keystore

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/pkg/errors"
)

// MinKeyBits is the smallest RSA modulus accepted for protocol keys
const MinKeyBits = 1024

// ReadKeyMaterial returns inline key material as-is, or reads it from disk
// when the value is a path. Inline values are detected by a PEM header or a
// leading JSON brace.
func ReadKeyMaterial(value string) ([]byte, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("key material is empty")
	}
	if strings.HasPrefix(trimmed, "-----BEGIN") || strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}
	data, err := os.ReadFile(trimmed)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read key file %s", trimmed)
	}
	return data, nil
}

// ParsePrivateKey parses an RSA private key given as PEM (PKCS#1 or PKCS#8) or as a JWK
func ParsePrivateKey(data []byte) (*rsa.PrivateKey, error) {
	raw, err := parseRaw(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse private key")
	}
	priv, ok := raw.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA private key: %T", raw)
	}
	if err := priv.Validate(); err != nil {
		return nil, errors.Wrap(err, "RSA private key is inconsistent")
	}
	if priv.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("RSA key too weak: %d bits, need at least %d", priv.N.BitLen(), MinKeyBits)
	}
	return priv, nil
}

// ParsePublicKey parses an RSA public key given as PEM (PKIX, PKCS#1 or
// certificate) or as a JWK
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	raw, err := parseRaw(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse public key")
	}
	var pub *rsa.PublicKey
	switch k := raw.(type) {
	case *rsa.PublicKey:
		pub = k
	case *rsa.PrivateKey:
		return nil, fmt.Errorf("expected a public key, got private key material")
	default:
		return nil, fmt.Errorf("not an RSA public key: %T", raw)
	}
	if pub.N.BitLen() < MinKeyBits {
		return nil, fmt.Errorf("RSA key too weak: %d bits, need at least %d", pub.N.BitLen(), MinKeyBits)
	}
	return pub, nil
}

// Thumbprint returns the RFC 7638 SHA-256 thumbprint of pub, base64url encoded.
// It identifies a key in logs without exposing it.
func Thumbprint(pub *rsa.PublicKey) (string, error) {
	key, err := jwk.Import(pub)
	if err != nil {
		return "", errors.Wrap(err, "failed to import public key")
	}
	tp, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", errors.Wrap(err, "failed to compute thumbprint")
	}
	return base64.RawURLEncoding.EncodeToString(tp), nil
}

func parseRaw(data []byte) (interface{}, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return nil, fmt.Errorf("key material is empty")
	}

	if strings.HasPrefix(trimmed, "{") {
		key, err := jwk.ParseKey([]byte(trimmed))
		if err != nil {
			return nil, errors.Wrap(err, "invalid JWK")
		}
		var raw interface{}
		if err := jwk.Export(key, &raw); err != nil {
			return nil, errors.Wrap(err, "failed to export JWK")
		}
		return raw, nil
	}

	if key, err := jwk.ParseKey([]byte(trimmed), jwk.WithPEM(true)); err == nil {
		var raw interface{}
		if err := jwk.Export(key, &raw); err == nil {
			return raw, nil
		}
	}

	return parsePEM([]byte(trimmed))
}

// parsePEM covers the PEM block types not handled by the JWK parser
func parsePEM(data []byte) (interface{}, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	switch block.Type {
	case "RSA PRIVATE KEY":
		return x509.ParsePKCS1PrivateKey(block.Bytes)
	case "PRIVATE KEY":
		return x509.ParsePKCS8PrivateKey(block.Bytes)
	case "RSA PUBLIC KEY":
		return x509.ParsePKCS1PublicKey(block.Bytes)
	case "PUBLIC KEY":
		return x509.ParsePKIXPublicKey(block.Bytes)
	case "CERTIFICATE":
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		return cert.PublicKey, nil
	default:
		return nil, fmt.Errorf("unsupported PEM block type %q", block.Type)
	}
}

// PublicKeySet maps key indexes to gateway public keys so verifiers can
// follow key rotation. It is read-only after construction.
type PublicKeySet struct {
	keys   map[int]*rsa.PublicKey
	active int
}

// NewPublicKeySet builds a set whose active index must be present in keys
func NewPublicKeySet(active int, keys map[int]*rsa.PublicKey) (*PublicKeySet, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("at least one public key is required")
	}
	copied := make(map[int]*rsa.PublicKey, len(keys))
	for idx, k := range keys {
		if k == nil {
			return nil, fmt.Errorf("public key for key index %d is nil", idx)
		}
		copied[idx] = k
	}
	if _, ok := copied[active]; !ok {
		return nil, fmt.Errorf("no public key for active key index %d", active)
	}
	return &PublicKeySet{keys: copied, active: active}, nil
}

// SingleKeySet is a set holding one key under index
func SingleKeySet(index int, key *rsa.PublicKey) (*PublicKeySet, error) {
	return NewPublicKeySet(index, map[int]*rsa.PublicKey{index: key})
}

// Key returns the public key registered under index
func (s *PublicKeySet) Key(index int) (*rsa.PublicKey, error) {
	k, ok := s.keys[index]
	if !ok {
		return nil, fmt.Errorf("no public key for key index %d", index)
	}
	return k, nil
}

// Active returns the active key index and its key
func (s *PublicKeySet) Active() (int, *rsa.PublicKey) {
	return s.active, s.keys[s.active]
}

// Indexes returns the registered key indexes in ascending order
func (s *PublicKeySet) Indexes() []int {
	out := make([]int, 0, len(s.keys))
	for idx := range s.keys {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}
