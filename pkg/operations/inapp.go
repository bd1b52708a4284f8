package operations

import (
	"fmt"
	"strconv"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"

	"github.com/mypos-ipc/ipc-go/internal/expiry"
	"github.com/mypos-ipc/ipc-go/pkg/canonical"
	"github.com/mypos-ipc/ipc-go/pkg/encryption"
	"github.com/mypos-ipc/ipc-go/pkg/enums"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

var cardSchema = []canonical.Field{
	canonical.Optional(FieldCardType),
	canonical.Optional(FieldPAN),
	canonical.Optional(FieldCardholderName),
	canonical.Optional(FieldExpDate),
	canonical.Optional(FieldCVC),
	canonical.Optional(FieldCardToken),
	canonical.Optional(FieldECI),
	canonical.Optional(FieldAVV),
	canonical.Optional(FieldDSTransID),
}

type cardMode int

const (
	cardAny cardMode = iota
	cardFull
	cardToken
)

// now is replaced in tests
var now = time.Now

// IAPurchase charges a card, or a stored card token, without a redirect
func IAPurchase(h Header, enc *encryption.FieldEncryptor, order *types.Order, card *types.Card, cart *types.Cart, p Params) (*Request, error) {
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateOrder(field.NewPath("order"), order)...)
	allErrors = append(allErrors, validateCard(field.NewPath("card"), card, cardAny)...)
	allErrors = append(allErrors, validateCart(field.NewPath("cart"), cart, order)...)
	if err := invalid(enums.MethodIAPurchase, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, enums.MethodIAPurchase,
		canonical.Required(FieldOrderID),
		canonical.Required(FieldAmount),
		canonical.Required(FieldCurrency),
	)
	req.Fields.Set(FieldOrderID, order.ID)
	req.Fields.Set(FieldAmount, FormatAmount(order.Amount))
	req.Fields.Set(FieldCurrency, order.Currency)

	if err := setCard(req, enc, card); err != nil {
		return nil, err
	}

	req.extend(
		canonical.Optional(FieldNote),
		canonical.Required(FieldAccountSettlement),
		canonical.Required(FieldOutputFormat),
	)
	req.Fields.SetIf(FieldNote, order.Note)
	req.Fields.Set(FieldAccountSettlement, boolFlag(p.AccountSettlement))
	req.Fields.Set(FieldOutputFormat, string(p.OutputFormat))
	setCart(req, cart)

	return req, nil
}

// IAStoreCard stores a card for later token payments
func IAStoreCard(h Header, enc *encryption.FieldEncryptor, card *types.Card, currency string, amount float64, p Params) (*Request, error) {
	return storeCard(h, enums.MethodIAStoreCard, enc, card, currency, amount, p, cardFull)
}

// IAStoredCardUpdate refreshes the details behind an existing card token
func IAStoredCardUpdate(h Header, enc *encryption.FieldEncryptor, card *types.Card, currency string, amount float64, p Params) (*Request, error) {
	return storeCard(h, enums.MethodIAStoredCardUpdate, enc, card, currency, amount, p, cardToken)
}

func storeCard(h Header, method enums.Method, enc *encryption.FieldEncryptor, card *types.Card, currency string, amount float64, p Params, mode cardMode) (*Request, error) {
	var allErrors field.ErrorList
	allErrors = append(allErrors, validateCard(field.NewPath("card"), card, mode)...)
	allErrors = append(allErrors, validateCurrency(field.NewPath("currency"), currency)...)
	if amount < 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("amount"), amount, "amount must not be negative"))
	}
	if err := invalid(method, allErrors); err != nil {
		return nil, err
	}

	req := newRequest(h, method,
		canonical.Required(FieldCardVerification),
		canonical.Required(FieldAmount),
		canonical.Required(FieldCurrency),
	)
	req.Fields.Set(FieldCardVerification, strconv.Itoa(int(p.CardVerification)))
	req.Fields.Set(FieldAmount, FormatAmount(amount))
	req.Fields.Set(FieldCurrency, currency)

	if err := setCard(req, enc, card); err != nil {
		return nil, err
	}

	req.extend(canonical.Required(FieldOutputFormat))
	req.Fields.Set(FieldOutputFormat, string(p.OutputFormat))
	return req, nil
}

// setCard encrypts the sensitive card members into the request
func setCard(req *Request, enc *encryption.FieldEncryptor, card *types.Card) error {
	req.extend(cardSchema...)
	if enc == nil {
		return fmt.Errorf("card fields require an encryption public key")
	}

	encrypted := make(map[string]string, 3)
	for name, value := range map[string]string{
		FieldPAN:     card.Number,
		FieldExpDate: card.ExpDate,
		FieldCVC:     card.CVC,
	} {
		ct, err := enc.EncryptField(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt %s: %w", name, err)
		}
		encrypted[name] = ct
	}

	fm := &req.Fields
	if card.CardType != 0 {
		fm.Set(FieldCardType, strconv.Itoa(card.CardType))
	}
	fm.SetIf(FieldPAN, encrypted[FieldPAN])
	fm.SetIf(FieldCardholderName, card.HolderName)
	fm.SetIf(FieldExpDate, encrypted[FieldExpDate])
	fm.SetIf(FieldCVC, encrypted[FieldCVC])
	fm.SetIf(FieldCardToken, card.Token)
	fm.SetIf(FieldECI, card.ECI)
	fm.SetIf(FieldAVV, card.AVV)
	fm.SetIf(FieldDSTransID, card.DSTransID)
	return nil
}

func validateCard(path *field.Path, card *types.Card, mode cardMode) field.ErrorList {
	if card == nil {
		return field.ErrorList{field.Required(path, "card is required")}
	}
	if mode == cardAny {
		mode = cardFull
		if card.Token != "" {
			mode = cardToken
		}
	}

	var allErrors field.ErrorList
	if mode == cardToken {
		allErrors = append(allErrors, validateRequired(path.Child("token"), card.Token)...)
		if card.ExpDate != "" {
			allErrors = append(allErrors, validateExpiry(path.Child("expDate"), card.ExpDate)...)
		}
		return allErrors
	}

	if card.CardType < int(enums.CardTypeMastercard) || card.CardType > int(enums.CardTypeJCB) {
		allErrors = append(allErrors, field.Invalid(path.Child("cardType"), card.CardType, "unknown card type"))
	}
	allErrors = append(allErrors, validateRequired(path.Child("number"), card.Number)...)
	allErrors = append(allErrors, validateRequired(path.Child("holderName"), card.HolderName)...)
	allErrors = append(allErrors, validateRequired(path.Child("cvc"), card.CVC)...)
	allErrors = append(allErrors, validateExpiry(path.Child("expDate"), card.ExpDate)...)
	return allErrors
}

func validateExpiry(path *field.Path, yymm string) field.ErrorList {
	if err := expiry.ValidateYYMM(yymm); err != nil {
		return field.ErrorList{field.Invalid(path, "****", err.Error())}
	}
	expired, err := expiry.IsExpired(yymm, now())
	if err != nil {
		return field.ErrorList{field.Invalid(path, "****", err.Error())}
	}
	if expired {
		return field.ErrorList{field.Invalid(path, "****", "card has expired")}
	}
	return nil
}
