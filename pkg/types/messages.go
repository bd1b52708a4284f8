package types

// Well-known protocol field names shared by the signing and transport layers
const (
	FieldSignature = "Signature"
	FieldKeyIndex  = "KeyIndex"
	FieldMethod    = "IPCmethod"
	FieldStatus    = "Status"
	FieldStatusMsg = "StatusMsg"
)

// CanonicalBytes is the deterministic serialization of a FieldMap
type CanonicalBytes []byte

// SignedEnvelope is a field set ready for transport.
// Order is the canonical field order the signature was computed over;
// transports must emit fields in exactly this order.
type SignedEnvelope struct {
	Method    string
	Order     []Field
	Signature string
	KeyIndex  int
}

// WireFields returns the signed fields followed by the signature
func (e *SignedEnvelope) WireFields() []Field {
	out := make([]Field, 0, len(e.Order)+1)
	out = append(out, e.Order...)
	out = append(out, Field{Name: FieldSignature, Value: e.Signature})
	return out
}

// CartItem is a single cart line
type CartItem struct {
	Name     string
	Quantity int
	Price    float64
	Currency string
}

// Cart is an ordered list of purchased items
type Cart struct {
	Currency string
	Items    []CartItem
}

// Total returns the cart amount
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		total += float64(item.Quantity) * item.Price
	}
	return total
}

// Customer holds payer details sent with a purchase
type Customer struct {
	Email     string
	Phone     string
	FirstName string
	LastName  string
	Country   string
	City      string
	ZIPCode   string
	Address   string
}

// Card holds cardholder data for in-app operations; the
// sensitive members are encrypted before they enter a FieldMap
type Card struct {
	CardType   int
	Number     string
	HolderName string
	ExpDate    string // YYMM
	CVC        string
	Token      string
	ECI        string
	AVV        string
	DSTransID  string
}

// StoredCard is the decoded result of a card storage operation
type StoredCard struct {
	Token    string
	CardType string
	Number   string
	Year     int
	Month    int
	Trnref   string
}

// Order identifies a merchant order
type Order struct {
	ID       string
	Amount   float64
	Currency string
	Note     string
}
