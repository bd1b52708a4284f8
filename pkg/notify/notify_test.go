package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mypos-ipc/ipc-go/pkg/keystore"
	"github.com/mypos-ipc/ipc-go/pkg/response"
	"github.com/mypos-ipc/ipc-go/pkg/testutil"
	"github.com/mypos-ipc/ipc-go/pkg/transport"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

func newHandler(t *testing.T, cb Callback) *Handler {
	k := testutil.Keys(t)
	set, err := keystore.SingleKeySet(1, &k.Gateway.PublicKey)
	require.NoError(t, err)
	l := zaptest.NewLogger(t)
	return NewHandler(response.NewVerifier(set, l), cb, l)
}

func signedBody(t *testing.T) string {
	posted, err := testutil.SignFields(testutil.Keys(t).Gateway, []types.Field{
		{Name: types.FieldMethod, Value: "IPCPurchaseNotify"},
		{Name: "OrderID", Value: "o-1"},
		{Name: "Amount", Value: "10.00"},
		{Name: "IPC_Trnref", Value: "trn-1"},
	})
	require.NoError(t, err)
	return transport.EncodeForm(posted)
}

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/notify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandler_AcceptsVerifiedNotify(t *testing.T) {
	var got []types.Field
	h := newHandler(t, func(_ context.Context, fields []types.Field) error {
		got = fields
		return nil
	})

	rec := post(h, signedBody(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, Acknowledgement, rec.Body.String())
	require.Len(t, got, 4)
	assert.Equal(t, "trn-1", got[3].Value)
}

func TestHandler_RejectsTampered(t *testing.T) {
	called := false
	h := newHandler(t, func(context.Context, []types.Field) error {
		called = true
		return nil
	})

	body := strings.Replace(signedBody(t), "Amount=10.00", "Amount=99.00", 1)
	rec := post(h, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	rec = post(h, "OrderID=o-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)
}

func TestHandler_CallbackError(t *testing.T) {
	h := newHandler(t, func(context.Context, []types.Field) error {
		return errors.New("db down")
	})

	rec := post(h, signedBody(t))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	h := newHandler(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/notify", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestLoggingCallback_MasksCardData(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	k := testutil.Keys(t)
	set, err := keystore.SingleKeySet(1, &k.Gateway.PublicKey)
	require.NoError(t, err)
	h := NewHandler(response.NewVerifier(set, zaptest.NewLogger(t)), LoggingCallback(zap.New(core)), zaptest.NewLogger(t))

	posted, err := testutil.SignFields(k.Gateway, []types.Field{
		{Name: types.FieldMethod, Value: "IPCPurchaseNotify"},
		{Name: "OrderID", Value: "o-1"},
		{Name: "IPC_Trnref", Value: "trn-1"},
		{Name: "CardToken", Value: "tok-secret"},
		{Name: "PAN", Value: "5555555555554444"},
		{Name: "ExpDate", Value: "2712"},
	})
	require.NoError(t, err)

	rec := post(h, transport.EncodeForm(posted))
	require.Equal(t, http.StatusOK, rec.Code)

	entries := logs.FilterMessage("Received verified notify").All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "o-1", ctx["OrderID"])
	assert.Equal(t, "trn-1", ctx["IPC_Trnref"])
	assert.Equal(t, "****", ctx["CardToken"])
	assert.Equal(t, "****", ctx["PAN"])
	assert.Equal(t, "****", ctx["ExpDate"])
	for _, e := range logs.All() {
		for _, v := range e.ContextMap() {
			assert.NotEqual(t, "tok-secret", v)
			assert.NotEqual(t, "5555555555554444", v)
		}
	}
}

func TestLogFields(t *testing.T) {
	kv := LogFields([]types.Field{
		{Name: "OrderID", Value: "o-1"},
		{Name: "CVC", Value: "123"},
		{Name: "PAN", Value: ""},
	})
	assert.Equal(t, []interface{}{"OrderID", "o-1", "CVC", "****", "PAN", ""}, kv)
}
