// Package payment talks to the payment processor. The server only opens and
// inspects payment intents; card details go from the client straight to the
// processor using the intent's client secret.
package payment

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

// Intent statuses the server settles on. Anything else (processing,
// requires_action, requires_confirmation, requires_capture) means the
// confirmation attempt is still in flight.
const (
	StatusSucceeded             = "succeeded"
	StatusCanceled              = "canceled"
	StatusRequiresPaymentMethod = "requires_payment_method"
)

// IsTerminal reports whether an intent status settles a confirmation
// attempt: the payment went through, was canceled, or the attempted method
// failed and was detached.
func IsTerminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusCanceled, StatusRequiresPaymentMethod:
		return true
	}
	return false
}

// Intent is the subset of a processor payment intent the server cares about.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
	Message      string
}

// Client creates and retrieves payment intents.
type Client interface {
	// CreateIntent opens a payment intent for the given amount in minor
	// currency units. idempotencyKey dedupes retried creations.
	CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string) (*Intent, error)
	GetIntent(ctx context.Context, id string) (*Intent, error)
}

// StripeClient implements Client with the Stripe API.
type StripeClient struct {
	api *client.API
}

// NewStripeClient creates a StripeClient with the given secret key.
func NewStripeClient(secretKey string) *StripeClient {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeClient{api: api}
}

func (s *StripeClient) CreateIntent(ctx context.Context, amountCents int64, currency, idempotencyKey string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.SetIdempotencyKey(idempotencyKey)
	}

	var pi *stripe.PaymentIntent
	err := withRetry(func() error {
		var err error
		pi, err = s.api.PaymentIntents.New(params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fromStripe(pi), nil
}

func (s *StripeClient) GetIntent(ctx context.Context, id string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	var pi *stripe.PaymentIntent
	err := withRetry(func() error {
		var err error
		pi, err = s.api.PaymentIntents.Get(id, params)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fromStripe(pi), nil
}

// withRetry runs fn and retries exactly once on a transient failure.
func withRetry(fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}
	return fn()
}

// isTransient reports whether an error is worth one retry: a processor 5xx
// or a network-level failure. Processor 4xx rejections are final.
func isTransient(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode >= 500
	}
	return true
}

func fromStripe(pi *stripe.PaymentIntent) *Intent {
	intent := &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
	if pi.LastPaymentError != nil {
		intent.Message = pi.LastPaymentError.Msg
	}
	return intent
}
