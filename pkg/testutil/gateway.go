package testutil

import (
	"crypto/rsa"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/mypos-ipc/ipc-go/pkg/encryption"
	"github.com/mypos-ipc/ipc-go/pkg/keystore"
	"github.com/mypos-ipc/ipc-go/pkg/response"
	"github.com/mypos-ipc/ipc-go/pkg/transport"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// GatewayRequest is a request the simulator received and verified
type GatewayRequest struct {
	Method string
	Fields []types.Field

	encKey *rsa.PrivateKey
}

func (r *GatewayRequest) Get(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Decrypt returns the plaintext of an encrypted card field
func (r *GatewayRequest) Decrypt(name string) (string, error) {
	return encryption.DecryptField(r.Get(name), r.encKey)
}

// HandlerFunc answers one verified request with a JSON object body;
// the simulator adds the Signature.
type HandlerFunc func(req *GatewayRequest) string

// Gateway is an in-process stand-in for the payment gateway
type Gateway struct {
	Server *httptest.Server

	keys     *TestKeys
	verifier *response.Verifier
	logger   *zap.Logger

	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	requests atomic.Int64
	tamper   atomic.Bool
}

// NewGateway starts a simulator that is closed when the test ends
func NewGateway(t *testing.T) *Gateway {
	t.Helper()
	k := Keys(t)
	set, err := keystore.SingleKeySet(1, &k.Merchant.PublicKey)
	if err != nil {
		t.Fatalf("failed to build merchant key set: %v", err)
	}

	l := zaptest.NewLogger(t)
	g := &Gateway{
		keys:     k,
		verifier: response.NewVerifier(set, l),
		logger:   l,
		handlers: make(map[string]HandlerFunc),
	}
	g.Server = httptest.NewServer(http.HandlerFunc(g.serve))
	t.Cleanup(g.Server.Close)
	return g
}

func (g *Gateway) URL() string {
	return g.Server.URL
}

// Handle registers the answer for an IPCmethod
func (g *Gateway) Handle(method string, h HandlerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handlers[method] = h
}

// SetTamper makes the simulator corrupt the signature of every response
func (g *Gateway) SetTamper(v bool) {
	g.tamper.Store(v)
}

// Requests returns how many requests reached the simulator
func (g *Gateway) Requests() int64 {
	return g.requests.Load()
}

func (g *Gateway) serve(w http.ResponseWriter, r *http.Request) {
	g.requests.Add(1)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fields, err := transport.ParseForm(string(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	verified, err := g.verifier.VerifyFields(fields)
	if err != nil {
		g.logger.Sugar().Infow("Simulator rejected request signature", "error", err)
		g.reply(w, `{"Status":"4","StatusMsg":"Invalid signature"}`)
		return
	}

	req := &GatewayRequest{Fields: verified, encKey: g.keys.Encryption}
	req.Method = req.Get(types.FieldMethod)

	g.mu.RLock()
	h, ok := g.handlers[req.Method]
	g.mu.RUnlock()
	if !ok {
		g.reply(w, `{"Status":"2","StatusMsg":"Unsupported method"}`)
		return
	}
	g.reply(w, h(req))
}

func (g *Gateway) reply(w http.ResponseWriter, body string) {
	signed, err := SignJSON(g.keys.Gateway, body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if g.tamper.Load() {
		// the signature is the last member; flip a character inside it
		idx := len(signed) - 20
		if signed[idx] == 'A' {
			signed[idx] = 'B'
		} else {
			signed[idx] = 'A'
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(signed)
}
