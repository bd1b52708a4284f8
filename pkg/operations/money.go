package operations

import (
	"strconv"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Refund returns money of an earlier transaction
func Refund(h Header, order *types.Order, trnref string, p Params) (*Request, error) {
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateOrder(field.NewPath("order"), order)...)
	allErrors = append(allErrors, validateRequired(field.NewPath("trnref"), trnref)...)
	if err := invalid(enums.MethodRefund, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodRefund,
		canonical.Required(FieldAmount),
		canonical.Required(FieldCurrency),
		canonical.Required(FieldOrderID),
		canonical.Required(FieldTrnref),
		canonical.Required(FieldOutputFormat),
	)
	fm := &req.Fields
	fm.Set(FieldAmount, FormatAmount(order.Amount))
	fm.Set(FieldCurrency, order.Currency)
	fm.Set(FieldOrderID, order.ID)
	fm.Set(FieldTrnref, trnref)
	fm.Set(FieldOutputFormat, string(p.OutputFormat))
	return req, nil
}

// MoneyRequest describes a direct debit against a registered mandate
type MoneyRequest struct {
	Order                *types.Order
	MandateReference     string
	CustomerWalletNumber string
	ReversalIndicator    enums.ReversalIndicator
	Reason               string
}

// RequestMoney pulls money from a customer wallet under a mandate
func RequestMoney(h Header, mr *MoneyRequest, p Params) (*Request, error) {
	var allErrors field.ErrorList
	if mr == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("request"), ""))
		return nil, invalid(enums.MethodRequestMoney, allErrors)
	}
	allErrors = append(allErrors, validateOrder(field.NewPath("order"), mr.Order)...)
	allErrors = append(allErrors, validateRequired(field.NewPath("mandateReference"), mr.MandateReference)...)
	allErrors = append(allErrors, validateRequired(field.NewPath("customerWalletNumber"), mr.CustomerWalletNumber)...)
	allErrors = append(allErrors, validateRequired(field.NewPath("reason"), mr.Reason)...)
	if mr.ReversalIndicator != enums.ReversalIndicatorNo && mr.ReversalIndicator != enums.ReversalIndicatorYes {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("reversalIndicator"), int(mr.ReversalIndicator), []string{"0", "1"}))
	}
	if err := invalid(enums.MethodRequestMoney, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodRequestMoney,
		canonical.Required(FieldMandateReference),
		canonical.Required(FieldCustomerWalletNumber),
		canonical.Required(FieldReversalIndicator),
		canonical.Required(FieldAmount),
		canonical.Required(FieldCurrency),
		canonical.Required(FieldOrderID),
		canonical.Required(FieldReason),
		canonical.Required(FieldOutputFormat),
	)
	fm := &req.Fields
	fm.Set(FieldMandateReference, mr.MandateReference)
	fm.Set(FieldCustomerWalletNumber, mr.CustomerWalletNumber)
	fm.Set(FieldReversalIndicator, strconv.Itoa(int(mr.ReversalIndicator)))
	fm.Set(FieldAmount, FormatAmount(mr.Order.Amount))
	fm.Set(FieldCurrency, mr.Order.Currency)
	fm.Set(FieldOrderID, mr.Order.ID)
	fm.Set(FieldReason, mr.Reason)
	fm.Set(FieldOutputFormat, string(p.OutputFormat))
	return req, nil
}

// Reversal cancels an authorized transaction
func Reversal(h Header, trnref string, p Params) (*Request, error) {
	if err := invalid(enums.MethodReversal, validateRequired(field.NewPath("trnref"), trnref)); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodReversal,
		canonical.Required(FieldTrnref),
		canonical.Required(FieldOutputFormat),
	)
	req.Fields.Set(FieldTrnref, trnref)
	req.Fields.Set(FieldOutputFormat, string(p.OutputFormat))
	return req, nil
}

// Mandate describes a change to a direct debit mandate
type Mandate struct {
	Reference            string
	CustomerWalletNumber string
	Action               enums.MandateAction
	Text                 string
}

// MandateManagement registers or cancels a mandate
func MandateManagement(h Header, m *Mandate, p Params) (*Request, error) {
	var allErrors field.ErrorList
	if m == nil {
		allErrors = append(allErrors, field.Required(field.NewPath("mandate"), ""))
		return nil, invalid(enums.MethodMandateManagement, allErrors)
	}
	allErrors = append(allErrors, validateRequired(field.NewPath("reference"), m.Reference)...)
	allErrors = append(allErrors, validateRequired(field.NewPath("customerWalletNumber"), m.CustomerWalletNumber)...)
	allErrors = append(allErrors, validateRequired(field.NewPath("text"), m.Text)...)
	if m.Action != enums.MandateActionRegister && m.Action != enums.MandateActionCancel {
		allErrors = append(allErrors, field.NotSupported(field.NewPath("action"), int(m.Action), []string{"1", "2"}))
	}
	if err := invalid(enums.MethodMandateManagement, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodMandateManagement,
		canonical.Required(FieldMandateReference),
		canonical.Required(FieldCustomerWalletNumber),
		canonical.Required(FieldAction),
		canonical.Required(FieldMandateText),
		canonical.Required(FieldOutputFormat),
	)
	fm := &req.Fields
	fm.Set(FieldMandateReference, m.Reference)
	fm.Set(FieldCustomerWalletNumber, m.CustomerWalletNumber)
	fm.Set(FieldAction, strconv.Itoa(int(m.Action)))
	fm.Set(FieldMandateText, m.Text)
	fm.Set(FieldOutputFormat, string(p.OutputFormat))
	return req, nil
}
