// Package operations builds the protocol field set and signing schema of
// every gateway operation. Builders validate their arguments and never touch
// the network.
package operations

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/config"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Protocol field names
const (
	FieldVersion      = "IPCVersion"
	FieldLanguage     = "IPCLanguage"
	FieldSID          = "SID"
	FieldWalletNumber = "WalletNumber"
	FieldSource       = "Source"
	FieldDeveloperKey = "DeveloperKey"

	FieldAmount       = "Amount"
	FieldCurrency     = "Currency"
	FieldOrderID      = "OrderID"
	FieldOutputFormat = "OutputFormat"
	FieldNote         = "Note"
	FieldTrnref       = "IPC_Trnref"

	FieldURLOk     = "URL_OK"
	FieldURLCancel = "URL_Cancel"
	FieldURLNotify = "URL_Notify"

	FieldCardTokenRequest          = "CardTokenRequest"
	FieldPaymentParametersRequired = "PaymentParametersRequired"
	FieldPaymentMethod             = "PaymentMethod"

	FieldCustomerEmail     = "customeremail"
	FieldCustomerPhone     = "customerphone"
	FieldCustomerFirstName = "customerfirstnames"
	FieldCustomerLastName  = "customerfamilyname"
	FieldCustomerCountry   = "customercountry"
	FieldCustomerCity      = "customercity"
	FieldCustomerZIPCode   = "customerzipcode"
	FieldCustomerAddress   = "customeraddress"

	FieldCartItems = "CartItems"

	FieldCardType          = "CardType"
	FieldPAN               = "PAN"
	FieldCardholderName    = "CardholderName"
	FieldExpDate           = "ExpDate"
	FieldCVC               = "CVC"
	FieldCardToken         = "CardToken"
	FieldECI               = "ECI"
	FieldAVV               = "AVV"
	FieldDSTransID         = "DSTransID"
	FieldCardVerification  = "CardVerification"
	FieldAccountSettlement = "AccountSettlement"

	FieldMandateReference     = "MandateReference"
	FieldCustomerWalletNumber = "CustomerWalletNumber"
	FieldReversalIndicator    = "ReversalIndicator"
	FieldReason               = "Reason"
	FieldAction               = "Action"
	FieldMandateText          = "MandateText"
)

// Request is a built operation ready for signing
type Request struct {
	Method enums.Method
	Fields types.FieldMap
	Schema canonical.Schema
}

// Header carries the fields every operation starts with
type Header struct {
	Version      string
	Lang         string
	SID          string
	WalletNumber string
	KeyIndex     int
	Source       string
	DeveloperKey string
}

// HeaderFromConfig copies the header fields out of a gateway config
func HeaderFromConfig(gc *config.GatewayConfig) Header {
	return Header{
		Version:      gc.Version(),
		Lang:         gc.Lang(),
		SID:          gc.SID(),
		WalletNumber: gc.WalletNumber(),
		KeyIndex:     gc.KeyIndex(),
		Source:       gc.Source(),
		DeveloperKey: gc.DeveloperKey(),
	}
}

var headerSchema = canonical.NewSchema(
	canonical.Required(types.FieldMethod),
	canonical.Required(FieldVersion),
	canonical.Required(FieldLanguage),
	canonical.Required(FieldSID),
	canonical.Required(FieldWalletNumber),
	canonical.Required(types.FieldKeyIndex),
	canonical.Required(FieldSource),
	canonical.Optional(FieldDeveloperKey),
)

func newRequest(h Header, method enums.Method, body ...canonical.Field) *Request {
	fm := types.NewFieldMap()
	fm.Set(types.FieldMethod, method.String())
	fm.Set(FieldVersion, h.Version)
	fm.Set(FieldLanguage, h.Lang)
	fm.Set(FieldSID, h.SID)
	fm.Set(FieldWalletNumber, h.WalletNumber)
	fm.Set(types.FieldKeyIndex, strconv.Itoa(h.KeyIndex))
	fm.Set(FieldSource, h.Source)
	fm.SetIf(FieldDeveloperKey, h.DeveloperKey)

	return &Request{
		Method: method,
		Fields: fm,
		Schema: headerSchema.Append(body...),
	}
}

// extend appends fields to the request schema
func (r *Request) extend(fields ...canonical.Field) {
	r.Schema = r.Schema.Append(fields...)
}

func invalid(method enums.Method, allErrors field.ErrorList) error {
	if len(allErrors) == 0 {
		return nil
	}
	return fmt.Errorf("invalid %s request: %w", method, allErrors.ToAggregate())
}

// FormatAmount renders an amount the way the gateway expects it
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}

func validateAmount(path *field.Path, amount float64) field.ErrorList {
	if amount <= 0 {
		return field.ErrorList{field.Invalid(path, amount, "amount must be positive")}
	}
	return nil
}

func validateCurrency(path *field.Path, currency string) field.ErrorList {
	if len(currency) != 3 {
		return field.ErrorList{field.Invalid(path, currency, "currency must be a three letter ISO 4217 code")}
	}
	for _, r := range currency {
		if r < 'A' || r > 'Z' {
			return field.ErrorList{field.Invalid(path, currency, "currency must be upper case")}
		}
	}
	return nil
}

func validateRequired(path *field.Path, value string) field.ErrorList {
	if value == "" {
		return field.ErrorList{field.Required(path, "")}
	}
	return nil
}

func validateOrder(path *field.Path, o *types.Order) field.ErrorList {
	if o == nil {
		return field.ErrorList{field.Required(path, "order is required")}
	}
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateRequired(path.Child("id"), o.ID)...)
	allErrors = append(allErrors, validateAmount(path.Child("amount"), o.Amount)...)
	allErrors = append(allErrors, validateCurrency(path.Child("currency"), o.Currency)...)
	return allErrors
}
