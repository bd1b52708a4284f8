package response

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
	"github.com/mypos-ipc/ipc-go/pkg/keystore"
	"github.com/mypos-ipc/ipc-go/pkg/transportSigner"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

var (
	gatewayKeyOnce sync.Once
	gatewayKey     *rsa.PrivateKey
	otherKey       *rsa.PrivateKey
)

func keys(t *testing.T) (*rsa.PrivateKey, *rsa.PrivateKey) {
	t.Helper()
	gatewayKeyOnce.Do(func() {
		var err error
		gatewayKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		otherKey, err = rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
	})
	return gatewayKey, otherKey
}

// signJSON appends a Signature member computed the way the gateway does
func signJSON(t *testing.T, key *rsa.PrivateKey, body string) []byte {
	t.Helper()
	doc, err := ParseDocument([]byte(body))
	require.NoError(t, err)

	msg := transportSigner.EncodeMessage(canonical.Join(doc.Flatten()))
	hashed := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(nil, key, crypto.SHA256, hashed[:])
	require.NoError(t, err)

	root := doc.Root()
	root.Members = append(root.Members, Member{
		Name:  types.FieldSignature,
		Value: &Node{Kind: KindString, Text: base64.StdEncoding.EncodeToString(sig)},
	})
	out, err := root.MarshalJSON()
	require.NoError(t, err)
	return out
}

func newVerifier(t *testing.T) *Verifier {
	gw, _ := keys(t)
	set, err := keystore.SingleKeySet(1, &gw.PublicKey)
	require.NoError(t, err)
	return NewVerifier(set, zaptest.NewLogger(t))
}

func verify(t *testing.T, body []byte) (*VerifiedDocument, error) {
	doc, err := ParseDocument(body)
	require.NoError(t, err)
	return newVerifier(t).Verify(doc)
}

func TestParseDocument_KeepsOrder(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"b":"1","a":{"z":2,"y":[true,null]},"c":1.50}`))
	require.NoError(t, err)

	assert.Equal(t, []types.Field{
		{Name: "b", Value: "1"},
		{Name: "a.z", Value: "2"},
		{Name: "a.y[0]", Value: "true"},
		{Name: "a.y[1]", Value: ""},
		{Name: "c", Value: "1.50"},
	}, doc.Flatten())
}

func TestParseDocument_UnescapesStringsAndKeys(t *testing.T) {
	doc, err := ParseDocument([]byte(`{"a\u0062":"x\"y","n":-0.10e2}`))
	require.NoError(t, err)
	assert.Equal(t, []types.Field{
		{Name: "ab", Value: `x"y`},
		{Name: "n", Value: "-0.10e2"},
	}, doc.Flatten())
}

func TestParseDocument_Malformed(t *testing.T) {
	for _, body := range []string{``, `{"a":`, `[1,2]`, `{"a":1}{}`, `{"a":1,"a":2}`} {
		_, err := ParseDocument([]byte(body))
		var tErr *types.TransportError
		assert.True(t, errors.As(err, &tErr), "body %q", body)
	}
}

func TestVerify(t *testing.T) {
	gw, other := keys(t)
	body := `{"Status":"0","StatusMsg":"Success","IPC_Trnref":"12345","Amount":"10.00"}`

	vd, err := verify(t, signJSON(t, gw, body))
	require.NoError(t, err)
	assert.Equal(t, 1, vd.KeyIndex())
	trnref, err := vd.Trnref()
	require.NoError(t, err)
	assert.Equal(t, "12345", trnref)
	assert.NoError(t, vd.Status())
	_, hasSig := vd.String(types.FieldSignature)
	assert.False(t, hasSig)

	_, err = verify(t, signJSON(t, other, body))
	assert.ErrorIs(t, err, types.ErrUnverifiedResponse)

	_, err = verify(t, []byte(body))
	assert.ErrorIs(t, err, types.ErrMissingSignature)
}

func TestVerify_TamperSensitive(t *testing.T) {
	gw, _ := keys(t)
	signed := signJSON(t, gw, `{"Status":"0","IPC_Trnref":"12345"}`)

	doc, err := ParseDocument(signed)
	require.NoError(t, err)
	for _, m := range doc.Root().Members {
		if m.Name == "IPC_Trnref" {
			m.Value.Text = "12346"
		}
	}

	_, err = newVerifier(t).Verify(doc)
	var sigErr *types.SignatureError
	require.True(t, errors.As(err, &sigErr))
	assert.Equal(t, "verify", sigErr.Op)
}

func TestVerify_ReorderedFieldsFail(t *testing.T) {
	gw, _ := keys(t)
	signed := signJSON(t, gw, `{"A":"1","B":"2"}`)

	doc, err := ParseDocument(signed)
	require.NoError(t, err)
	root := doc.Root()
	root.Members[0], root.Members[1] = root.Members[1], root.Members[0]

	_, err = newVerifier(t).Verify(doc)
	assert.ErrorIs(t, err, types.ErrUnverifiedResponse)
}

func TestVerify_SelectsKeyByIndex(t *testing.T) {
	gw, other := keys(t)
	set, err := keystore.NewPublicKeySet(2, map[int]*rsa.PublicKey{1: &gw.PublicKey, 2: &other.PublicKey})
	require.NoError(t, err)
	v := NewVerifier(set, zaptest.NewLogger(t))

	doc, err := ParseDocument(signJSON(t, gw, `{"Status":"0","KeyIndex":"1"}`))
	require.NoError(t, err)
	vd, err := v.Verify(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, vd.KeyIndex())
}

func TestVerifyFields(t *testing.T) {
	gw, _ := keys(t)
	fields := []types.Field{
		{Name: "IPCmethod", Value: "IPCPurchaseNotify"},
		{Name: "OrderID", Value: "o-1"},
		{Name: "Amount", Value: "5.00"},
	}
	msg := transportSigner.EncodeMessage(canonical.Join(fields))
	hashed := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(nil, gw, crypto.SHA256, hashed[:])
	require.NoError(t, err)

	posted := append(append([]types.Field{}, fields...), types.Field{Name: types.FieldSignature, Value: base64.StdEncoding.EncodeToString(sig)})
	got, err := newVerifier(t).VerifyFields(posted)
	require.NoError(t, err)
	assert.Equal(t, fields, got)

	posted[1].Value = "o-2"
	_, err = newVerifier(t).VerifyFields(posted)
	assert.ErrorIs(t, err, types.ErrUnverifiedResponse)

	_, err = newVerifier(t).VerifyFields(fields)
	assert.ErrorIs(t, err, types.ErrMissingSignature)
}

func TestDecodeResult(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		kind  ResultKind
		value interface{}
	}{
		{name: "sentinel", in: "OK", kind: ResultSentinel},
		{name: "escaped json", in: `{&quot;code&quot;:&quot;05&quot;,&quot;n&quot;:1}`, kind: ResultStructured, value: map[string]interface{}{"code": "05", "n": float64(1)}},
		{name: "plain json", in: `["a"]`, kind: ResultStructured, value: []interface{}{"a"}},
		{name: "not json", in: "Declined by issuer", kind: ResultRaw},
		{name: "broken json", in: `{&quot;code&quot;:`, kind: ResultRaw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeResult(tt.in)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.in, got.Raw)
			assert.Equal(t, tt.value, got.Value)
		})
	}
}

func TestTxnLog(t *testing.T) {
	gw, _ := keys(t)
	body := `{"Status":"0","log":{"request":[` +
		`{"item":[{"date":"2025-01-02","type":"Purchase","result":"OK"},{"date":"2025-01-03","result":"{&quot;err&quot;:&quot;x&quot;}"}]},` +
		`{"item":{"date":"2025-01-04","result":"timeout"}}` +
		`]}}`

	vd, err := verify(t, signJSON(t, gw, body))
	require.NoError(t, err)

	log, err := vd.TxnLog()
	require.NoError(t, err)
	require.Len(t, log, 2)
	require.Len(t, log[0], 2)
	require.Len(t, log[1], 1)

	assert.Equal(t, ResultSentinel, log[0][0].Result.Kind)
	assert.Equal(t, []types.Field{{Name: "date", Value: "2025-01-02"}, {Name: "type", Value: "Purchase"}}, log[0][0].Fields)
	assert.Equal(t, ResultStructured, log[0][1].Result.Kind)
	assert.Equal(t, map[string]interface{}{"err": "x"}, log[0][1].Result.Value)
	assert.Equal(t, ResultRaw, log[1][0].Result.Kind)
	assert.Equal(t, "timeout", log[1][0].Result.Raw)
}

func TestTxnLog_MissingLog(t *testing.T) {
	gw, _ := keys(t)
	vd, err := verify(t, signJSON(t, gw, `{"Status":"0"}`))
	require.NoError(t, err)

	_, err = vd.TxnLog()
	var fmtErr *types.ResponseFormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, "log", fmtErr.Field)
}

func TestStoredCard(t *testing.T) {
	gw, _ := keys(t)
	vd, err := verify(t, signJSON(t, gw, `{"Status":"0","CardToken":"tok","CardType":"1","PAN":"5555","ExpDate":"2506","IPC_Trnref":"77"}`))
	require.NoError(t, err)

	card, err := vd.StoredCard()
	require.NoError(t, err)
	assert.Equal(t, &types.StoredCard{Token: "tok", CardType: "1", Number: "5555", Year: 2025, Month: 6, Trnref: "77"}, card)

	vd, err = verify(t, signJSON(t, gw, `{"Status":"0","CardToken":"tok","ExpDate":"25"}`))
	require.NoError(t, err)
	_, err = vd.StoredCard()
	var fmtErr *types.ResponseFormatError
	require.True(t, errors.As(err, &fmtErr))
	assert.Equal(t, FieldExpDate, fmtErr.Field)
}

func TestPaymentStatus(t *testing.T) {
	gw, _ := keys(t)
	tests := []struct {
		body     string
		name     enums.PaymentStatusName
		detailed bool
	}{
		{`{"Status":"0","PaymentStatus":"2"}`, enums.PaymentStatusSuccessful, true},
		{`{"Status":"0","PaymentStatus":3}`, enums.PaymentStatusFailed, true},
		{`{"Status":"0","PaymentStatus":"99"}`, enums.PaymentStatusSuccessNoDetail, false},
		{`{"Status":"0"}`, enums.PaymentStatusSuccessNoDetail, false},
	}
	for _, tt := range tests {
		vd, err := verify(t, signJSON(t, gw, tt.body))
		require.NoError(t, err)
		got := vd.PaymentStatus()
		assert.Equal(t, tt.name, got.Name, tt.body)
		assert.Equal(t, tt.detailed, got.Detailed, tt.body)
	}
}

func TestStatus_GatewayError(t *testing.T) {
	gw, _ := keys(t)
	vd, err := verify(t, signJSON(t, gw, `{"Status":"5","StatusMsg":"Duplicate OrderID"}`))
	require.NoError(t, err)

	err = vd.Status()
	var gwErr *types.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "5", gwErr.Status)
	assert.Equal(t, "Duplicate OrderID", gwErr.Message)

	vd, err = verify(t, signJSON(t, gw, `{"Status":"3"}`))
	require.NoError(t, err)
	require.True(t, errors.As(vd.Status(), &gwErr))
	assert.Equal(t, "technical error", gwErr.Message)
}

func TestVerify_CollidingLeafPaths(t *testing.T) {
	gw, _ := keys(t)

	vd, err := verify(t, signJSON(t, gw, `{"Status":"0","a":{"b":"1"},"a.b":"2"}`))
	require.NoError(t, err)
	assert.Equal(t, []types.Field{
		{Name: "Status", Value: "0"},
		{Name: "a.b", Value: "1"},
		{Name: "a.b", Value: "2"},
	}, vd.Fields())
}

func TestVerifiedDocument_ZeroValue(t *testing.T) {
	var vd VerifiedDocument

	_, err := vd.Trnref()
	var formatErr *types.ResponseFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, FieldTrnref, formatErr.Field)

	assert.Error(t, vd.Status())
	assert.Nil(t, vd.Fields())
	assert.Nil(t, vd.Node())
	_, err = vd.TxnLog()
	assert.Error(t, err)
	assert.Equal(t, enums.PaymentStatusSuccessNoDetail, vd.PaymentStatus().Name)
}
