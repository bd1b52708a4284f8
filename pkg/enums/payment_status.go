package enums

import "fmt"

// PaymentStatusName is the symbolic name of a payment status code
type PaymentStatusName string

const (
	PaymentStatusPending    PaymentStatusName = "PAYMENT_STATUS_PENDING"
	PaymentStatusSuccessful PaymentStatusName = "PAYMENT_STATUS_SUCCESSFUL"
	PaymentStatusFailed     PaymentStatusName = "PAYMENT_STATUS_FAILED"
	PaymentStatusCancelled  PaymentStatusName = "PAYMENT_STATUS_CANCELLED"
	PaymentStatusReversed   PaymentStatusName = "PAYMENT_STATUS_REVERSED"
	PaymentStatusRefunded   PaymentStatusName = "PAYMENT_STATUS_REFUNDED"
	PaymentStatusExpired    PaymentStatusName = "PAYMENT_STATUS_EXPIRED"

	// PaymentStatusSuccessNoDetail is returned for a successful query whose
	// status code is absent or not in the table
	PaymentStatusSuccessNoDetail PaymentStatusName = "PAYMENT_STATUS_SUCCESS_WITHOUT_DETAIL"
)

func (n PaymentStatusName) String() string {
	return string(n)
}

var paymentStatusCodes = []struct {
	code int
	name PaymentStatusName
}{
	{1, PaymentStatusPending},
	{2, PaymentStatusSuccessful},
	{3, PaymentStatusFailed},
	{4, PaymentStatusCancelled},
	{5, PaymentStatusReversed},
	{6, PaymentStatusRefunded},
	{7, PaymentStatusExpired},
}

// PaymentStatusCodeToName and PaymentStatusNameToCode are built once at init
// and never written afterwards
var (
	PaymentStatusCodeToName = map[int]PaymentStatusName{}
	PaymentStatusNameToCode = map[PaymentStatusName]int{}
)

func init() {
	for _, entry := range paymentStatusCodes {
		if _, dup := PaymentStatusCodeToName[entry.code]; dup {
			panic(fmt.Sprintf("enums: payment status code %d declared twice", entry.code))
		}
		PaymentStatusCodeToName[entry.code] = entry.name
		PaymentStatusNameToCode[entry.name] = entry.code
	}
}

// LookupPaymentStatus maps a numeric code to its name
func LookupPaymentStatus(code int) (PaymentStatusName, bool) {
	name, ok := PaymentStatusCodeToName[code]
	return name, ok
}

// PaymentStatusCode maps a name back to its numeric code
func PaymentStatusCode(name PaymentStatusName) (int, error) {
	code, ok := PaymentStatusNameToCode[name]
	if !ok {
		return 0, fmt.Errorf("unknown payment status name: %s", name)
	}
	return code, nil
}
