package operations

import (
	"fmt"
	"math"
	"strconv"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/config"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Purchase builds the redirect payment page request
func Purchase(h Header, urls config.PortalURLs, customer *types.Customer, cart *types.Cart, order *types.Order, p Params) (*Request, error) {
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateOrder(field.NewPath("order"), order)...)
	allErrors = append(allErrors, validateURLs(urls)...)
	allErrors = append(allErrors, validateCart(field.NewPath("cart"), cart, order)...)
	if p.PurchaseType == enums.PurchaseTypeFull {
		allErrors = append(allErrors, validateFullCustomer(field.NewPath("customer"), customer)...)
	}
	if err := invalid(enums.MethodPurchase, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodPurchase,
		canonical.Required(FieldAmount),
		canonical.Required(FieldCurrency),
		canonical.Required(FieldOrderID),
		canonical.Required(FieldURLOk),
		canonical.Required(FieldURLCancel),
		canonical.Required(FieldURLNotify),
		canonical.Required(FieldCardTokenRequest),
		canonical.Required(FieldPaymentParametersRequired),
		canonical.Required(FieldPaymentMethod),
	)
	fm := &req.Fields
	fm.Set(FieldAmount, FormatAmount(order.Amount))
	fm.Set(FieldCurrency, order.Currency)
	fm.Set(FieldOrderID, order.ID)
	fm.Set(FieldURLOk, urls.OK)
	fm.Set(FieldURLCancel, urls.Cancel)
	fm.Set(FieldURLNotify, urls.Notify)
	fm.Set(FieldCardTokenRequest, strconv.Itoa(int(p.CardTokenRequest)))
	fm.Set(FieldPaymentParametersRequired, strconv.Itoa(int(p.PurchaseType)))
	fm.Set(FieldPaymentMethod, strconv.Itoa(int(p.PaymentMethod)))

	setCustomer(req, customer)
	req.extend(canonical.Optional(FieldNote))
	fm.SetIf(FieldNote, order.Note)
	setCart(req, cart)

	return req, nil
}

// PurchaseByIcard builds the redirect request for paying with an iCard wallet
func PurchaseByIcard(h Header, urls config.PortalURLs, customer *types.Customer, cart *types.Cart, order *types.Order) (*Request, error) {
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateOrder(field.NewPath("order"), order)...)
	allErrors = append(allErrors, validateURLs(urls)...)
	allErrors = append(allErrors, validateCart(field.NewPath("cart"), cart, order)...)
	if err := invalid(enums.MethodPurchaseByIcard, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodPurchaseByIcard,
		canonical.Required(FieldAmount),
		canonical.Required(FieldCurrency),
		canonical.Required(FieldOrderID),
		canonical.Required(FieldURLOk),
		canonical.Required(FieldURLCancel),
		canonical.Required(FieldURLNotify),
	)
	fm := &req.Fields
	fm.Set(FieldAmount, FormatAmount(order.Amount))
	fm.Set(FieldCurrency, order.Currency)
	fm.Set(FieldOrderID, order.ID)
	fm.Set(FieldURLOk, urls.OK)
	fm.Set(FieldURLCancel, urls.Cancel)
	fm.Set(FieldURLNotify, urls.Notify)

	setCustomer(req, customer)
	req.extend(canonical.Optional(FieldNote))
	fm.SetIf(FieldNote, order.Note)
	setCart(req, cart)

	return req, nil
}

var customerSchema = []canonical.Field{
	canonical.Optional(FieldCustomerEmail),
	canonical.Optional(FieldCustomerPhone),
	canonical.Optional(FieldCustomerFirstName),
	canonical.Optional(FieldCustomerLastName),
	canonical.Optional(FieldCustomerCountry),
	canonical.Optional(FieldCustomerCity),
	canonical.Optional(FieldCustomerZIPCode),
	canonical.Optional(FieldCustomerAddress),
}

func setCustomer(req *Request, c *types.Customer) {
	req.extend(customerSchema...)
	if c == nil {
		return
	}
	fm := &req.Fields
	fm.SetIf(FieldCustomerEmail, c.Email)
	fm.SetIf(FieldCustomerPhone, c.Phone)
	fm.SetIf(FieldCustomerFirstName, c.FirstName)
	fm.SetIf(FieldCustomerLastName, c.LastName)
	fm.SetIf(FieldCustomerCountry, c.Country)
	fm.SetIf(FieldCustomerCity, c.City)
	fm.SetIf(FieldCustomerZIPCode, c.ZIPCode)
	fm.SetIf(FieldCustomerAddress, c.Address)
}

// setCart appends CartItems and the numbered item fields
func setCart(req *Request, cart *types.Cart) {
	req.extend(canonical.Required(FieldCartItems))
	req.Fields.Set(FieldCartItems, strconv.Itoa(len(cart.Items)))

	for i, item := range cart.Items {
		n := i + 1
		currency := item.Currency
		if currency == "" {
			currency = cart.Currency
		}
		names := []string{
			fmt.Sprintf("Article_%d", n),
			fmt.Sprintf("Quantity_%d", n),
			fmt.Sprintf("Price_%d", n),
			fmt.Sprintf("Amount_%d", n),
			fmt.Sprintf("Currency_%d", n),
		}
		values := []string{
			item.Name,
			strconv.Itoa(item.Quantity),
			FormatAmount(item.Price),
			FormatAmount(float64(item.Quantity) * item.Price),
			currency,
		}
		for j, name := range names {
			req.extend(canonical.Required(name))
			req.Fields.Set(name, values[j])
		}
	}
}

func validateCart(path *field.Path, cart *types.Cart, order *types.Order) field.ErrorList {
	if cart == nil || len(cart.Items) == 0 {
		return field.ErrorList{field.Required(path.Child("items"), "cart must contain at least one item")}
	}
	var allErrors field.ErrorList
	for i, item := range cart.Items {
		itemPath := path.Child("items").Index(i)
		allErrors = append(allErrors, validateRequired(itemPath.Child("name"), item.Name)...)
		if item.Quantity < 1 {
			allErrors = append(allErrors, field.Invalid(itemPath.Child("quantity"), item.Quantity, "quantity must be at least 1"))
		}
		if item.Price == 0 {
			allErrors = append(allErrors, field.Invalid(itemPath.Child("price"), item.Price, "price must not be zero"))
		}
		currency := item.Currency
		if currency == "" {
			currency = cart.Currency
		}
		allErrors = append(allErrors, validateCurrency(itemPath.Child("currency"), currency)...)
	}
	if order != nil && math.Abs(cart.Total()-order.Amount) > 0.005 {
		allErrors = append(allErrors, field.Invalid(path, FormatAmount(cart.Total()), fmt.Sprintf("cart total does not match order amount %s", FormatAmount(order.Amount))))
	}
	return allErrors
}

func validateFullCustomer(path *field.Path, c *types.Customer) field.ErrorList {
	if c == nil {
		return field.ErrorList{field.Required(path, "customer is required for the full payment page")}
	}
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateRequired(path.Child("email"), c.Email)...)
	allErrors = append(allErrors, validateRequired(path.Child("firstName"), c.FirstName)...)
	allErrors = append(allErrors, validateRequired(path.Child("lastName"), c.LastName)...)
	return allErrors
}

func validateURLs(urls config.PortalURLs) field.ErrorList {
	path := field.NewPath("urls")
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateRequired(path.Child("ok"), urls.OK)...)
	allErrors = append(allErrors, validateRequired(path.Child("cancel"), urls.Cancel)...)
	allErrors = append(allErrors, validateRequired(path.Child("notify"), urls.Notify)...)
	return allErrors
}
