package stripe

import (
	"context"

	stripe "github.com/stripe/stripe-go/v82"
)

// gateway is the slice of the Stripe API the adapter calls.
type gateway interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error)
}

type clientGateway struct {
	client *stripe.Client
}

func (g *clientGateway) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	return g.client.V1PaymentIntents.Create(ctx, params)
}

func (g *clientGateway) RetrievePaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return g.client.V1PaymentIntents.Retrieve(ctx, id, nil)
}

func (g *clientGateway) CreateRefund(ctx context.Context, params *stripe.RefundCreateParams) (*stripe.Refund, error) {
	return g.client.V1Refunds.Create(ctx, params)
}
