package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldMap_SetGetDelete(t *testing.T) {
	fm := NewFieldMap()
	fm.Set("SID", "000000000000010")
	fm.Set("Amount", "10.00")
	fm.Set("SID", "123")
	fm.SetIf("Note", "")

	assert.Equal(t, 2, fm.Len())
	assert.Equal(t, []string{"SID", "Amount"}, fm.Names())
	v, ok := fm.Get("SID")
	require.True(t, ok)
	assert.Equal(t, "123", v)
	assert.False(t, fm.Has("Note"))

	fm.Delete("SID")
	assert.Equal(t, []string{"Amount"}, fm.Names())
	assert.False(t, fm.Has("SID"))
}

func TestFieldMap_CloneIsIndependent(t *testing.T) {
	fm := FieldMapFrom(Field{Name: "A", Value: "1"})
	clone := fm.Clone()
	clone.Set("A", "2")
	clone.Set("B", "3")

	v, _ := fm.Get("A")
	assert.Equal(t, "1", v)
	assert.Equal(t, 1, fm.Len())
}

func TestFieldMap_StringHidesValues(t *testing.T) {
	fm := FieldMapFrom(Field{Name: "PAN", Value: "4111111111111111"})
	assert.NotContains(t, fm.String(), "4111")
}

func TestErrors_Unwrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", &SignatureError{Op: "verify", Cause: ErrUnverifiedResponse})

	var sigErr *SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, "verify", sigErr.Op)
	assert.True(t, errors.Is(err, ErrUnverifiedResponse))

	tErr := &TransportError{Op: "exchange", StatusCode: 502, Cause: ErrEmptyBody}
	assert.Contains(t, tErr.Error(), "502")
	assert.True(t, errors.Is(tErr, ErrEmptyBody))

	cErr := &ConfigurationError{Field: "sid"}
	assert.Equal(t, "invalid configuration: sid", cErr.Error())
}

func TestSignedEnvelope_WireFieldsAppendsSignature(t *testing.T) {
	env := &SignedEnvelope{
		Order:     []Field{{Name: "IPCmethod", Value: "IPCRefund"}, {Name: "KeyIndex", Value: "1"}},
		Signature: "c2ln",
	}
	wire := env.WireFields()
	require.Len(t, wire, 3)
	assert.Equal(t, Field{Name: FieldSignature, Value: "c2ln"}, wire[2])
}
