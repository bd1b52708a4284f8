package enums

import "fmt"

// Method is the IPCmethod value selecting a gateway operation
type Method string

const (
	MethodPurchase           Method = "IPCPurchase"
	MethodPurchaseByIcard    Method = "IPCPurchaseByIcard"
	MethodRefund             Method = "IPCRefund"
	MethodRequestMoney       Method = "IPCRequestMoney"
	MethodReversal           Method = "IPCReversal"
	MethodIAPurchase         Method = "IPCIAPurchase"
	MethodIAStoreCard        Method = "IPCIAStoreCard"
	MethodIAStoredCardUpdate Method = "IPCIAStoredCardUpdate"
	MethodGetPaymentStatus   Method = "IPCGetPaymentStatus"
	MethodGetTxnLog          Method = "IPCGetTxnLog"
	MethodGetTxnStatus       Method = "IPCGetTxnStatus"
	MethodMandateManagement  Method = "IPCMandateManagement"
)

func (m Method) String() string {
	return string(m)
}

// CardTokenRequest asks the gateway to tokenize the card used for a purchase
type CardTokenRequest int

const (
	CardTokenRequestNone        CardTokenRequest = 0
	CardTokenRequestOnlyStore   CardTokenRequest = 1
	CardTokenRequestPayAndStore CardTokenRequest = 2
)

// PurchaseType selects the payment page layout
type PurchaseType int

const (
	PurchaseTypeFull                  PurchaseType = 1
	PurchaseTypeSimplifiedCall        PurchaseType = 2
	PurchaseTypeSimplifiedPaymentPage PurchaseType = 3
)

// PaymentMethod selects which payment instruments the page offers
type PaymentMethod int

const (
	PaymentMethodStandard PaymentMethod = 1
	PaymentMethodIdeal    PaymentMethod = 2
	PaymentMethodBoth     PaymentMethod = 3
)

// CommunicationFormat is the response encoding requested from the gateway
type CommunicationFormat string

const (
	CommunicationFormatXML  CommunicationFormat = "xml"
	CommunicationFormatJSON CommunicationFormat = "json"
)

// CardVerification controls card verification on store operations
type CardVerification int

const (
	CardVerificationNo  CardVerification = 1
	CardVerificationYes CardVerification = 2
)

// CardType identifies the card scheme
type CardType int

const (
	CardTypeMastercard   CardType = 1
	CardTypeMaestro      CardType = 2
	CardTypeVisa         CardType = 3
	CardTypeVisaElectron CardType = 4
	CardTypeVPay         CardType = 5
	CardTypeJCB          CardType = 6
)

// MandateAction is the requested change for a direct debit mandate
type MandateAction int

const (
	MandateActionRegister MandateAction = 1
	MandateActionCancel   MandateAction = 2
)

// ReversalIndicator marks a money request as a reversal of an earlier one
type ReversalIndicator int

const (
	ReversalIndicatorNo  ReversalIndicator = 0
	ReversalIndicatorYes ReversalIndicator = 1
)

// Response status codes reported in the Status field
const (
	StatusSuccess              = "0"
	StatusMissingRequiredParam = "1"
	StatusInvalidParamValue    = "2"
	StatusTechnicalError       = "3"
	StatusInvalidRequest       = "4"
	StatusDuplicateOrderID     = "5"
)

var statusMessages = map[string]string{
	StatusSuccess:              "success",
	StatusMissingRequiredParam: "missing required parameters",
	StatusInvalidParamValue:    "invalid parameter value",
	StatusTechnicalError:       "technical error",
	StatusInvalidRequest:       "invalid request",
	StatusDuplicateOrderID:     "duplicate order id",
}

// StatusMessage returns a description for a gateway status code
func StatusMessage(code string) string {
	if msg, ok := statusMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("unknown status %s", code)
}
