package services

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"

	"invoicegen-backend/config"
	"invoicegen-backend/models"
)

// Tokenizer converts raw card input into a single-use payment method
// handle without exposing card data to the rest of the pipeline.
type Tokenizer interface {
	Tokenize(ctx context.Context, card models.CardDetails) (string, error)
}

// Charger confirms a charge for an already tokenized payment method.
// Only the relay endpoint calls it; the amount is fixed server-side.
type Charger interface {
	ConfirmCharge(ctx context.Context, paymentMethodID string, amountCents int64, currency string) (string, error)
}

// StripeGateway talks to Stripe with the secret key carried by the
// service config. No package-level key is ever set.
type StripeGateway struct {
	api *client.API
}

func NewStripeGateway(cfg *config.Config) *StripeGateway {
	return &StripeGateway{api: client.New(cfg.StripeSecretKey, nil)}
}

func (g *StripeGateway) Tokenize(ctx context.Context, card models.CardDetails) (string, error) {
	params := &stripe.PaymentMethodParams{
		Params: stripe.Params{Context: ctx},
		Type:   stripe.String(string(stripe.PaymentMethodTypeCard)),
		Card: &stripe.PaymentMethodCardParams{
			Number:   stripe.String(card.Number),
			ExpMonth: stripe.Int64(card.ExpMonth),
			ExpYear:  stripe.Int64(card.ExpYear),
			CVC:      stripe.String(card.CVC),
		},
	}
	pm, err := g.api.PaymentMethods.New(params)
	if err != nil {
		return "", &GatewayError{Reason: stripeMessage(err)}
	}
	return pm.ID, nil
}

func (g *StripeGateway) ConfirmCharge(ctx context.Context, paymentMethodID string, amountCents int64, currency string) (string, error) {
	params := &stripe.PaymentIntentParams{
		Params:        stripe.Params{Context: ctx},
		Amount:        stripe.Int64(amountCents),
		Currency:      stripe.String(currency),
		PaymentMethod: stripe.String(paymentMethodID),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return "", &GatewayError{Reason: stripeMessage(err)}
	}
	return pi.ID, nil
}

// stripeMessage prefers the human-readable message Stripe attaches to
// its errors over the generic Error() dump.
func stripeMessage(err error) string {
	var sErr *stripe.Error
	if errors.As(err, &sErr) && sErr.Msg != "" {
		return sErr.Msg
	}
	return err.Error()
}
