package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
)

type StripeGateway struct {
	client   *client.API
	currency string
}

func NewStripeGateway(apiKey string) *StripeGateway {
	return NewStripeGatewayWithBackends(apiKey, nil)
}

// NewStripeGatewayWithBackends points the client at custom backends, which
// tests use to talk to a fake API.
func NewStripeGatewayWithBackends(apiKey string, backends *stripe.Backends) *StripeGateway {
	sc := &client.API{}
	sc.Init(apiKey, backends)
	return &StripeGateway{client: sc, currency: string(stripe.CurrencyUSD)}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if len(req.LineItems) == 0 {
		return nil, fmt.Errorf("%w: no line items", ErrInvalidRequest)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
	}
	for _, li := range req.LineItems {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(li.Name),
		}
		if li.Image != "" {
			product.Images = stripe.StringSlice([]string{li.Image})
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(g.currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(li.UnitAmountCents),
			},
			Quantity: stripe.Int64(li.Quantity),
		})
	}
	if req.CouponID != "" {
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(req.CouponID)},
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	s, err := g.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.client.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, mapStripeError(err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) CreateCoupon(ctx context.Context, percentOff int) (string, error) {
	params := &stripe.CouponParams{
		PercentOff: stripe.Float64(float64(percentOff)),
		Duration:   stripe.String(string(stripe.CouponDurationOnce)),
	}
	params.Context = ctx

	c, err := g.client.Coupons.New(params)
	if err != nil {
		return "", mapStripeError(err)
	}
	return c.ID, nil
}

func toSession(s *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:               s.ID,
		URL:              s.URL,
		PaymentStatus:    string(s.PaymentStatus),
		AmountTotalCents: s.AmountTotal,
		Metadata:         s.Metadata,
	}
}

// mapStripeError keeps stripe types out of the service layer.
func mapStripeError(err error) error {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrSessionNotFound, stripeErr.Msg)
		}
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: %s", ErrProviderDown, stripeErr.Msg)
		}
		if stripeErr.Type == stripe.ErrorTypeInvalidRequest {
			return fmt.Errorf("%w: %s", ErrInvalidRequest, stripeErr.Msg)
		}
	}
	return fmt.Errorf("stripe: %w", err)
}
