package operations

import (
	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
)

func orderQuery(h Header, method enums.Method, orderID string, p Params) (*Request, error) {
	if err := invalid(method, validateRequired(field.NewPath("orderId"), orderID)); err != nil {
		return nil, err
	}

	req := newRequest(h, method,
		canonical.Required(FieldOrderID),
		canonical.Required(FieldOutputFormat),
	)
	req.Fields.Set(FieldOrderID, orderID)
	req.Fields.Set(FieldOutputFormat, string(p.OutputFormat))
	return req, nil
}

func GetPaymentStatus(h Header, orderID string, p Params) (*Request, error) {
	return orderQuery(h, enums.MethodGetPaymentStatus, orderID, p)
}

func GetTxnLog(h Header, orderID string, p Params) (*Request, error) {
	return orderQuery(h, enums.MethodGetTxnLog, orderID, p)
}

func GetTxnStatus(h Header, orderID string, p Params) (*Request, error) {
	return orderQuery(h, enums.MethodGetTxnStatus, orderID, p)
}
