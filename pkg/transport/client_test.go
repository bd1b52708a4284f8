package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mypos-ipc/ipc-go/pkg/types"
)

func testEnvelope() *types.SignedEnvelope {
	return &types.SignedEnvelope{
		Method: "IPCGetTxnStatus",
		Order: []types.Field{
			{Name: "IPCmethod", Value: "IPCGetTxnStatus"},
			{Name: "SID", Value: "000000000000010"},
			{Name: "OrderID", Value: "a b&c=d"},
		},
		Signature: "c2ln+/==",
		KeyIndex:  1,
	}
}

func TestPrepareRedirect(t *testing.T) {
	c := NewClient("https://gateway.example/checkout", time.Second, zaptest.NewLogger(t))

	form := c.PrepareRedirect(testEnvelope())
	assert.Equal(t, "https://gateway.example/checkout", form.Action)
	assert.Equal(t, http.MethodPost, form.Method)
	require.Len(t, form.Fields, 4)
	assert.Equal(t, types.FieldSignature, form.Fields[3].Name)
	assert.Equal(t, "IPCmethod=IPCGetTxnStatus&SID=000000000000010&OrderID=a+b%26c%3Dd&Signature=c2ln%2B%2F%3D%3D", form.Encode())
}

func TestFormRoundTripKeepsOrder(t *testing.T) {
	fields := testEnvelope().WireFields()
	parsed, err := ParseForm(EncodeForm(fields))
	require.NoError(t, err)
	assert.Equal(t, fields, parsed)
}

func TestParseForm_RejectsDuplicates(t *testing.T) {
	_, err := ParseForm("a=1&b=2&a=3")
	require.Error(t, err)

	_, err = ParseForm("a=%zz")
	require.Error(t, err)
}

func TestExchange(t *testing.T) {
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, contentTypeForm, r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		_, _ = w.Write([]byte(`{"Status":"0"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
	c.SetHttpClient(srv.Client())

	body, err := c.Exchange(context.Background(), testEnvelope())
	require.NoError(t, err)
	assert.JSONEq(t, `{"Status":"0"}`, string(body))
	assert.Equal(t, EncodeForm(testEnvelope().WireFields()), gotBody)
}

func TestExchange_Failures(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantIs     error
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			wantStatus: http.StatusOK,
			wantIs:     types.ErrEmptyBody,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			c := NewClient(srv.URL, time.Second, zaptest.NewLogger(t))
			_, err := c.Exchange(context.Background(), testEnvelope())

			var tErr *types.TransportError
			require.True(t, errors.As(err, &tErr))
			assert.Equal(t, tt.wantStatus, tErr.StatusCode)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestExchange_TimeoutIsNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, zaptest.NewLogger(t))
	_, err := c.Exchange(context.Background(), testEnvelope())

	var tErr *types.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestExchange_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zaptest.NewLogger(t))
	_, err := c.Exchange(context.Background(), testEnvelope())

	var tErr *types.TransportError
	require.True(t, errors.As(err, &tErr))
	assert.Equal(t, 0, tErr.StatusCode)
}
