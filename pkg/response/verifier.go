package response

import (
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/keystore"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Verifier checks gateway signatures. It holds no mutable state.
type Verifier struct {
	keys   *keystore.PublicKeySet
	logger *zap.Logger
}

func NewVerifier(keys *keystore.PublicKeySet, logger *zap.Logger) *Verifier {
	return &Verifier{keys: keys, logger: logger}
}

// VerifiedDocument is a response whose signature has been confirmed.
// Only Verify constructs a usable one; the zero value decodes as an empty
// response and reports every field as missing.
type VerifiedDocument struct {
	doc      *Document
	keyIndex int
}

// KeyIndex is the index of the key that verified the document
func (v *VerifiedDocument) KeyIndex() int {
	return v.keyIndex
}

// Verify recomputes the canonical form of every field except the top-level
// Signature and checks the signature over it. Any failure rejects the document.
func (v *Verifier) Verify(doc *Document) (*VerifiedDocument, error) {
	root := doc.Root()

	sigNode, ok := root.Get(types.FieldSignature)
	if !ok || sigNode.Kind != KindString || sigNode.Text == "" {
		return nil, unverified(types.ErrMissingSignature)
	}

	stripped := &Node{Kind: KindObject}
	for _, m := range root.Members {
		if m.Name != types.FieldSignature {
			stripped.Members = append(stripped.Members, m)
		}
	}

	index, pub, err := v.selectKey(stripped)
	if err != nil {
		return nil, unverified(err)
	}
	if err := verifyLeaves(FlattenNode(stripped), sigNode.Text, pub); err != nil {
		v.logger.Sugar().Warnw("Rejected gateway response",
			"key_index", index,
			"error", err,
		)
		return nil, err
	}

	return &VerifiedDocument{
		doc:      &Document{root: stripped},
		keyIndex: index,
	}, nil
}

// VerifyFields checks an ordered set of form fields carrying a Signature,
// as posted by the gateway to notify URLs.
func (v *Verifier) VerifyFields(fields []types.Field) ([]types.Field, error) {
	var signature string
	var found bool
	rest := make([]types.Field, 0, len(fields))
	for _, f := range fields {
		if f.Name == types.FieldSignature {
			signature = f.Value
			found = true
			continue
		}
		rest = append(rest, f)
	}
	if !found || signature == "" {
		return nil, unverified(types.ErrMissingSignature)
	}

	_, pub := v.keys.Active()
	if err := verifyLeaves(rest, signature, pub); err != nil {
		return nil, err
	}
	return rest, nil
}

// VerifyCanonical checks a base64 signature over canonical bytes with the active key
func (v *Verifier) VerifyCanonical(payload types.CanonicalBytes, signature string) error {
	_, pub := v.keys.Active()
	return VerifyCanonical(pub, payload, signature)
}

// VerifyCanonical checks a base64 signature over canonical bytes
func VerifyCanonical(pub *rsa.PublicKey, payload types.CanonicalBytes, signature string) error {
	sig, err := base64.StdEncoding.DecodeString(signature)
	if err != nil {
		return unverified(fmt.Errorf("signature is not base64: %w", err))
	}
	hashed := sha256.Sum256(transportSigner.EncodeMessage(payload))
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hashed[:], sig); err != nil {
		return unverified(err)
	}
	return nil
}

// verifyLeaves checks signature over the leaf values in document order.
// Leaf names are not part of the signed form.
func verifyLeaves(leaves []types.Field, signature string, pub *rsa.PublicKey) error {
	return VerifyCanonical(pub, canonical.Join(leaves), signature)
}

// selectKey uses the response KeyIndex when it names a known key, otherwise the active key
func (v *Verifier) selectKey(root *Node) (int, *rsa.PublicKey, error) {
	if n, ok := root.Get(types.FieldKeyIndex); ok && n.IsScalar() {
		if idx, err := strconv.Atoi(n.Text); err == nil {
			if pub, err := v.keys.Key(idx); err == nil {
				return idx, pub, nil
			}
		}
	}
	idx, pub := v.keys.Active()
	if pub == nil {
		return 0, nil, fmt.Errorf("no active gateway public key")
	}
	return idx, pub, nil
}

func unverified(cause error) error {
	return &types.SignatureError{
		Op:    "verify",
		Cause: fmt.Errorf("%w: %w", types.ErrUnverifiedResponse, cause),
	}
}
