package ipcClient

import (
	"context"

	"github.com/mypos-ipc/ipc-go/pkg/operations"
	"github.com/mypos-ipc/ipc-go/pkg/response"
	"github.com/mypos-ipc/ipc-go/pkg/transport"
	"github.com/mypos-ipc/ipc-go/pkg/types"
)

// Purchase prepares the payment page redirect
func (c *Client) Purchase(ctx context.Context, customer *types.Customer, cart *types.Cart, order *types.Order, opts ...operations.ParamOption) (*transport.FormSubmission, error) {
	req, err := operations.Purchase(c.header, c.gatewayConfig.URLs(), customer, cart, order, c.callParams(opts))
	if err != nil {
		return nil, err
	}
	return c.redirect(ctx, req)
}

// PurchaseByIcard prepares the iCard payment redirect
func (c *Client) PurchaseByIcard(ctx context.Context, customer *types.Customer, cart *types.Cart, order *types.Order) (*transport.FormSubmission, error) {
	req, err := operations.PurchaseByIcard(c.header, c.gatewayConfig.URLs(), customer, cart, order)
	if err != nil {
		return nil, err
	}
	return c.redirect(ctx, req)
}

func (c *Client) Refund(ctx context.Context, order *types.Order, trnref string, opts ...operations.ParamOption) error {
	req, err := operations.Refund(c.header, order, trnref, c.callParams(opts))
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, req)
	return err
}

func (c *Client) RequestMoney(ctx context.Context, mr *operations.MoneyRequest, opts ...operations.ParamOption) error {
	req, err := operations.RequestMoney(c.header, mr, c.callParams(opts))
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, req)
	return err
}

func (c *Client) Reversal(ctx context.Context, trnref string, opts ...operations.ParamOption) error {
	req, err := operations.Reversal(c.header, trnref, c.callParams(opts))
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, req)
	return err
}

// IAPurchase charges a card and returns the transaction reference
func (c *Client) IAPurchase(ctx context.Context, order *types.Order, card *types.Card, cart *types.Cart, opts ...operations.ParamOption) (string, error) {
	req, err := operations.IAPurchase(c.header, c.encryptor, order, card, cart, c.callParams(opts))
	if err != nil {
		return "", err
	}
	doc, err := c.exchange(ctx, req)
	if err != nil {
		return "", err
	}
	return doc.Trnref()
}

func (c *Client) IAStoreCard(ctx context.Context, card *types.Card, currency string, amount float64, opts ...operations.ParamOption) (*types.StoredCard, error) {
	req, err := operations.IAStoreCard(c.header, c.encryptor, card, currency, amount, c.callParams(opts))
	if err != nil {
		return nil, err
	}
	doc, err := c.exchange(ctx, req)
	if err != nil {
		return nil, err
	}
	return doc.StoredCard()
}

func (c *Client) IAStoredCardUpdate(ctx context.Context, card *types.Card, currency string, amount float64, opts ...operations.ParamOption) (*types.StoredCard, error) {
	req, err := operations.IAStoredCardUpdate(c.header, c.encryptor, card, currency, amount, c.callParams(opts))
	if err != nil {
		return nil, err
	}
	doc, err := c.exchange(ctx, req)
	if err != nil {
		return nil, err
	}
	return doc.StoredCard()
}

func (c *Client) GetPaymentStatus(ctx context.Context, orderID string, opts ...operations.ParamOption) (response.PaymentStatusResult, error) {
	req, err := operations.GetPaymentStatus(c.header, orderID, c.callParams(opts))
	if err != nil {
		return response.PaymentStatusResult{}, err
	}
	doc, err := c.exchange(ctx, req)
	if err != nil {
		return response.PaymentStatusResult{}, err
	}
	return doc.PaymentStatus(), nil
}

func (c *Client) GetTxnLog(ctx context.Context, orderID string, opts ...operations.ParamOption) ([][]response.LogItem, error) {
	req, err := operations.GetTxnLog(c.header, orderID, c.callParams(opts))
	if err != nil {
		return nil, err
	}
	doc, err := c.exchange(ctx, req)
	if err != nil {
		return nil, err
	}
	return doc.TxnLog()
}

// GetTxnStatus returns the OrderStatus the gateway reports
func (c *Client) GetTxnStatus(ctx context.Context, orderID string, opts ...operations.ParamOption) (string, error) {
	req, err := operations.GetTxnStatus(c.header, orderID, c.callParams(opts))
	if err != nil {
		return "", err
	}
	doc, err := c.exchange(ctx, req)
	if err != nil {
		return "", err
	}
	return doc.OrderStatus()
}

func (c *Client) MandateManagement(ctx context.Context, m *operations.Mandate, opts ...operations.ParamOption) error {
	req, err := operations.MandateManagement(c.header, m, c.callParams(opts))
	if err != nil {
		return err
	}
	_, err = c.exchange(ctx, req)
	return err
}
