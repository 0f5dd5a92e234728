// Package payment предоставляет адаптер платёжного провайдера Stripe.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// ErrNotConfigured возвращается, когда секретный ключ провайдера не задан.
var ErrNotConfigured = errors.New("payment provider not configured")

// Статусы платёжного намерения, значимые для сценария оформления.
const (
	StatusSucceeded      = "succeeded"
	StatusRequiresAction = "requires_action"
)

// GatewayError — отказ платёжного провайдера.
// Сообщение провайдера показывается пользователю дословно, повтор не выполняется.
type GatewayError struct {
	Code    string
	Message string
}

func (e *GatewayError) Error() string {
	return e.Message
}

// Card содержит данные карты для токенизации.
type Card struct {
	Number   string
	ExpMonth int64
	ExpYear  int64
	CVC      string
}

// BillingDetails содержит платёжные реквизиты покупателя.
type BillingDetails struct {
	Name  string
	Email string
	Phone string
}

// IntentMetadata — метаданные заказа, прикрепляемые к платёжному намерению.
type IntentMetadata struct {
	OrderID       string
	CustomerEmail string
	PackageName   string
}

// Intent описывает платёжное намерение провайдера.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// Client инкапсулирует обращения к API Stripe.
type Client struct {
	api *client.API
}

// NewClient создаёт клиент Stripe с указанным секретным ключом.
// Пустой ключ даёт ненастроенный клиент: все операции вернут ErrNotConfigured.
func NewClient(secretKey string) *Client {
	if secretKey == "" {
		return &Client{}
	}

	api := &client.API{}
	api.Init(secretKey, nil)

	return &Client{api: api}
}

// NewClientWithBackend создаёт клиент с явным транспортом Stripe.
// Используется в тестах для подмены адреса API.
func NewClientWithBackend(secretKey string, backend stripe.Backend) *Client {
	api := &client.API{}
	api.Init(secretKey, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})

	return &Client{api: api}
}

// Configured сообщает, готов ли клиент выполнять запросы.
func (c *Client) Configured() bool {
	return c != nil && c.api != nil
}

// TokenizeCard создаёт платёжный метод по данным карты и возвращает его токен.
func (c *Client) TokenizeCard(ctx context.Context, card Card, billing BillingDetails) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}

	params := &stripe.PaymentMethodParams{
		Type: stripe.String("card"),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
		BillingDetails: &stripe.PaymentMethodBillingDetailsParams{
			Name:  stripe.String(billing.Name),
			Email: stripe.String(billing.Email),
			Phone: stripe.String(billing.Phone),
		},
	}
	params.Context = ctx

	pm, err := c.api.PaymentMethods.New(params)
	if err != nil {
		return "", wrapStripeErr(err)
	}

	return pm.ID, nil
}

// CreateIntent создаёт и сразу подтверждает платёжное намерение на указанную
// сумму в минимальных единицах валюты.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, paymentMethodID string, meta IntentMetadata) (*Intent, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
	}
	params.Context = ctx
	params.AddMetadata("orderId", meta.OrderID)
	params.AddMetadata("customerEmail", meta.CustomerEmail)
	params.AddMetadata("packageName", meta.PackageName)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// Confirm выполняет дополнительное подтверждение платёжного намерения,
// когда провайдер потребовал второй шаг (например, 3-D Secure).
func (c *Client) Confirm(ctx context.Context, intentID string) (*Intent, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := c.api.PaymentIntents.Confirm(intentID, params)
	if err != nil {
		return nil, wrapStripeErr(err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func wrapStripeErr(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		msg := stripeErr.Msg
		if msg == "" {
			msg = "Payment processing failed. Please try again."
		}
		return &GatewayError{
			Code:    string(stripeErr.Code),
			Message: msg,
		}
	}
	return fmt.Errorf("stripe request: %w", err)
}
