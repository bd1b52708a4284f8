package response

import (
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/mypos-ipc/ipc-go/internal/expiry"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// SentinelOK is the literal a transaction log result carries on success
const SentinelOK = "OK"

// Response field names read by the decoder
const (
	FieldTrnref        = "IPC_Trnref"
	FieldCardToken     = "CardToken"
	FieldCardType      = "CardType"
	FieldPAN           = "PAN"
	FieldExpDate       = "ExpDate"
	FieldPaymentStatus = "PaymentStatus"
	FieldOrderStatus   = "OrderStatus"
	FieldLog           = "log"
	FieldLogRequest    = "request"
	FieldLogItem       = "item"
	FieldLogResult     = "result"
)

type ResultKind int

const (
	ResultRaw ResultKind = iota
	ResultSentinel
	ResultStructured
)

func (k ResultKind) String() string {
	switch k {
	case ResultSentinel:
		return "sentinel"
	case ResultStructured:
		return "structured"
	default:
		return "raw"
	}
}

// DecodedResult is a transaction log result. Raw always holds the text the
// gateway sent; Value is set only for structured results.
type DecodedResult struct {
	Kind  ResultKind
	Raw   string
	Value interface{}
}

// DecodeResult decodes a result string that may carry entity-escaped JSON.
// Text that does not parse is kept as a raw result; this never fails.
func DecodeResult(s string) DecodedResult {
	if s == SentinelOK {
		return DecodedResult{Kind: ResultSentinel, Raw: s}
	}
	var v interface{}
	if err := json.Unmarshal([]byte(html.UnescapeString(s)), &v); err != nil {
		return DecodedResult{Kind: ResultRaw, Raw: s}
	}
	return DecodedResult{Kind: ResultStructured, Raw: s, Value: v}
}

// LogItem is one entry of a transaction log request
type LogItem struct {
	Fields []types.Field // leaves other than result, in document order
	Result DecodedResult
}

// String returns the value of a top-level scalar field
func (v *VerifiedDocument) String(name string) (string, bool) {
	n, ok := v.root().Get(name)
	if !ok || !n.IsScalar() {
		return "", false
	}
	return n.Text, true
}

// Require is String for a field the caller cannot do without
func (v *VerifiedDocument) Require(name string) (string, error) {
	s, ok := v.String(name)
	if !ok {
		return "", &types.ResponseFormatError{Field: name}
	}
	return s, nil
}

// Fields returns every verified leaf in document order
func (v *VerifiedDocument) Fields() []types.Field {
	if v.root() == nil {
		return nil
	}
	return v.doc.Flatten()
}

// Node exposes the verified tree for callers reading nested data
func (v *VerifiedDocument) Node() *Node {
	return v.root()
}

func (v *VerifiedDocument) root() *Node {
	if v == nil || v.doc == nil {
		return nil
	}
	return v.doc.root
}

// Status converts a failing gateway status into a GatewayError
func (v *VerifiedDocument) Status() error {
	status, err := v.Require(types.FieldStatus)
	if err != nil {
		return err
	}
	if status == enums.StatusSuccess {
		return nil
	}
	msg, ok := v.String(types.FieldStatusMsg)
	if !ok || msg == "" {
		msg = enums.StatusMessage(status)
	}
	return &types.GatewayError{Status: status, Message: msg}
}

// Trnref returns the gateway transaction reference
func (v *VerifiedDocument) Trnref() (string, error) {
	return v.Require(FieldTrnref)
}

// OrderStatus returns the status string of a GetTxnStatus response
func (v *VerifiedDocument) OrderStatus() (string, error) {
	return v.Require(FieldOrderStatus)
}

// StoredCard reads the card fields of a store or update response.
// IPC_Trnref is empty for updates.
func (v *VerifiedDocument) StoredCard() (*types.StoredCard, error) {
	token, err := v.Require(FieldCardToken)
	if err != nil {
		return nil, err
	}
	exp, err := v.Require(FieldExpDate)
	if err != nil {
		return nil, err
	}
	year, month, err := expiry.ParseYYMM(exp)
	if err != nil {
		return nil, &types.ResponseFormatError{Field: FieldExpDate, Cause: err}
	}

	cardType, _ := v.String(FieldCardType)
	pan, _ := v.String(FieldPAN)
	trnref, _ := v.String(FieldTrnref)

	return &types.StoredCard{
		Token:    token,
		CardType: cardType,
		Number:   pan,
		Year:     year,
		Month:    month,
		Trnref:   trnref,
	}, nil
}

type PaymentStatusResult struct {
	Code     string
	Name     enums.PaymentStatusName
	Detailed bool // false when the gateway sent no known status code
}

// PaymentStatus maps the PaymentStatus code to its name
func (v *VerifiedDocument) PaymentStatus() PaymentStatusResult {
	code, ok := v.String(FieldPaymentStatus)
	if !ok || code == "" {
		return PaymentStatusResult{Name: enums.PaymentStatusSuccessNoDetail}
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return PaymentStatusResult{Code: code, Name: enums.PaymentStatusSuccessNoDetail}
	}
	name, known := enums.LookupPaymentStatus(n)
	if !known {
		return PaymentStatusResult{Code: code, Name: enums.PaymentStatusSuccessNoDetail}
	}
	return PaymentStatusResult{Code: code, Name: name, Detailed: true}
}

// TxnLog reads log.request[].item[] and decodes every item result.
// A single object where a list is expected is read as a one element list.
func (v *VerifiedDocument) TxnLog() ([][]LogItem, error) {
	logNode, ok := v.root().Get(FieldLog)
	if !ok || logNode.Kind != KindObject {
		return nil, &types.ResponseFormatError{Field: FieldLog}
	}
	requests, ok := logNode.Get(FieldLogRequest)
	if !ok {
		return nil, &types.ResponseFormatError{Field: FieldLog + "." + FieldLogRequest}
	}

	var out [][]LogItem
	for i, req := range asList(requests) {
		path := fmt.Sprintf("%s.%s[%d]", FieldLog, FieldLogRequest, i)
		itemsNode, ok := req.Get(FieldLogItem)
		if !ok {
			return nil, &types.ResponseFormatError{Field: path + "." + FieldLogItem}
		}

		var items []LogItem
		for j, item := range asList(itemsNode) {
			if item.Kind != KindObject {
				return nil, &types.ResponseFormatError{
					Field: fmt.Sprintf("%s.%s[%d]", path, FieldLogItem, j),
					Cause: fmt.Errorf("log item is not an object"),
				}
			}
			items = append(items, decodeLogItem(item))
		}
		out = append(out, items)
	}
	return out, nil
}

func decodeLogItem(item *Node) LogItem {
	var li LogItem
	for _, m := range item.Members {
		if m.Name != FieldLogResult {
			for _, f := range FlattenNode(m.Value) {
				name := m.Name
				switch {
				case f.Name == "":
				case strings.HasPrefix(f.Name, "["):
					name += f.Name
				default:
					name += "." + f.Name
				}
				li.Fields = append(li.Fields, types.Field{Name: name, Value: f.Value})
			}
			continue
		}
		switch m.Value.Kind {
		case KindString:
			li.Result = DecodeResult(m.Value.Text)
		case KindObject, KindArray:
			li.Result = DecodedResult{Kind: ResultStructured, Value: m.Value.Interface()}
		default:
			li.Result = DecodedResult{Kind: ResultRaw, Raw: m.Value.Text}
		}
	}
	return li
}

func asList(n *Node) []*Node {
	if n.Kind == KindArray {
		return n.Items
	}
	return []*Node{n}
}
