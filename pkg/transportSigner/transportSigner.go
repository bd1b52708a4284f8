package transportSigner

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// SignedMessage is the signing input and output for one canonical payload
type SignedMessage struct {
	Payload   types.CanonicalBytes `json:"payload"`   // "-" joined field values
	Message   []byte               `json:"message"`   // base64(payload), the bytes actually signed
	Signature []byte               `json:"signature"` // RSASSA-PKCS1-v1_5 over SHA-256(message)
}

// Encoded returns the signature in its transport text form
func (m *SignedMessage) Encoded() string {
	return base64.StdEncoding.EncodeToString(m.Signature)
}

type ITransportSigner interface {
	// SignMessage signs raw message bytes and returns the signature
	SignMessage(ctx context.Context, data []byte) ([]byte, error)
	// KeyIndex identifies the key on the gateway side
	KeyIndex() int
}

// EncodeMessage turns canonical bytes into the message that is signed
func EncodeMessage(payload types.CanonicalBytes) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(payload)))
	base64.StdEncoding.Encode(out, payload)
	return out
}

// CreateAuthenticatedMessage encodes and signs a canonical payload
func CreateAuthenticatedMessage(ctx context.Context, signer ITransportSigner, payload types.CanonicalBytes) (*SignedMessage, error) {
	msg := EncodeMessage(payload)
	sig, err := signer.SignMessage(ctx, msg)
	if err != nil {
		return nil, asSignatureError(err)
	}
	return &SignedMessage{
		Payload:   payload,
		Message:   msg,
		Signature: sig,
	}, nil
}

// CreateSignedEnvelope serializes fm under schema, signs the result and
// returns an envelope whose Order is the exact signed field sequence
func CreateSignedEnvelope(ctx context.Context, signer ITransportSigner, fm types.FieldMap, schema canonical.Schema) (*types.SignedEnvelope, error) {
	ordered, err := canonical.OrderedFields(fm, schema)
	if err != nil {
		return nil, err
	}

	signed, err := CreateAuthenticatedMessage(ctx, signer, canonical.Join(ordered))
	if err != nil {
		return nil, err
	}

	method, _ := fm.Get(types.FieldMethod)
	return &types.SignedEnvelope{
		Method:    method,
		Order:     ordered,
		Signature: signed.Encoded(),
		KeyIndex:  signer.KeyIndex(),
	}, nil
}

func asSignatureError(err error) error {
	var sigErr *types.SignatureError
	if errors.As(err, &sigErr) {
		return err
	}
	return &types.SignatureError{Op: "sign", Cause: fmt.Errorf("failed to sign message: %w", err)}
}
