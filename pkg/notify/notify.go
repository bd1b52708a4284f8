// Package notify serves the URL the gateway posts payment results to.
// Posts are verified before the callback sees them.
package notify

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mypos-ipc/ipc-go/pkg/operations"
	"github.com/mypos-ipc/ipc-go/pkg/response"
	"github.com/mypos-ipc/ipc-go/pkg/transport"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Acknowledgement is the body the gateway expects after a successful notify
const Acknowledgement = "OK"

const redacted = "****"

// sensitiveFields hold card data; their values never reach a log
var sensitiveFields = map[string]struct{}{
	response.FieldPAN:       {},
	response.FieldExpDate:   {},
	response.FieldCardToken: {},
	operations.FieldCVC:     {},
}

const maxNotifyBytes = 1 << 20

// Callback receives verified notify fields without the Signature.
// A returned error makes the handler answer 500 so the gateway retries.
type Callback func(ctx context.Context, fields []types.Field) error

type Handler struct {
	verifier *response.Verifier
	callback Callback
	logger   *zap.Logger
}

func NewHandler(verifier *response.Verifier, callback Callback, logger *zap.Logger) *Handler {
	return &Handler{
		verifier: verifier,
		callback: callback,
		logger:   logger,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// read the raw body; r.ParseForm would lose field order
	body, err := io.ReadAll(io.LimitReader(r.Body, maxNotifyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	fields, err := transport.ParseForm(string(body))
	if err != nil {
		h.logger.Sugar().Warnw("Malformed notify body", "error", err)
		http.Error(w, "malformed form body", http.StatusBadRequest)
		return
	}

	verified, err := h.verifier.VerifyFields(fields)
	if err != nil {
		h.logger.Sugar().Warnw("Rejected unverified notify",
			"remote_addr", r.RemoteAddr,
			"field_count", len(fields),
			"error", err,
		)
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	if h.callback != nil {
		if err := h.callback(r.Context(), verified); err != nil {
			h.logger.Sugar().Errorw("Notify callback failed", "error", err)
			http.Error(w, "notify processing failed", http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, Acknowledgement)
}

// LogFields returns key/value pairs for a sugared logger with card data masked
func LogFields(fields []types.Field) []interface{} {
	kv := make([]interface{}, 0, len(fields)*2)
	for _, f := range fields {
		value := f.Value
		if _, ok := sensitiveFields[f.Name]; ok && value != "" {
			value = redacted
		}
		kv = append(kv, f.Name, value)
	}
	return kv
}

// LoggingCallback logs every verified notify with card data masked
func LoggingCallback(logger *zap.Logger) Callback {
	return func(_ context.Context, fields []types.Field) error {
		logger.Sugar().Infow("Received verified notify", LogFields(fields)...)
		return nil
	}
}
