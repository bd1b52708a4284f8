package operations

import "github.com/mypos-ipc/ipc-go/pkg/enums"

// Params are the tunable per-request protocol settings
type Params struct {
	CardTokenRequest  enums.CardTokenRequest
	PurchaseType      enums.PurchaseType
	PaymentMethod     enums.PaymentMethod
	OutputFormat      enums.CommunicationFormat
	CardVerification  enums.CardVerification
	AccountSettlement bool
}

// DefaultParams returns a fresh copy of the default settings
func DefaultParams() Params {
	return Params{
		CardTokenRequest:  enums.CardTokenRequestPayAndStore,
		PurchaseType:      enums.PurchaseTypeSimplifiedPaymentPage,
		PaymentMethod:     enums.PaymentMethodStandard,
		OutputFormat:      enums.CommunicationFormatJSON,
		CardVerification:  enums.CardVerificationYes,
		AccountSettlement: false,
	}
}

// ParamOption overrides one setting for a single call
type ParamOption func(*Params)

func WithCardTokenRequest(v enums.CardTokenRequest) ParamOption {
	return func(p *Params) { p.CardTokenRequest = v }
}

func WithPurchaseType(v enums.PurchaseType) ParamOption {
	return func(p *Params) { p.PurchaseType = v }
}

func WithPaymentMethod(v enums.PaymentMethod) ParamOption {
	return func(p *Params) { p.PaymentMethod = v }
}

func WithCardVerification(v enums.CardVerification) ParamOption {
	return func(p *Params) { p.CardVerification = v }
}

func WithAccountSettlement(v bool) ParamOption {
	return func(p *Params) { p.AccountSettlement = v }
}

// Merge returns base with opts applied. base is passed by value and the
// caller's copy is never changed.
func Merge(base Params, opts ...ParamOption) Params {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

func boolFlag(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
