package payment

import (
	"context"
	"errors"
)

var (
	ErrProviderDown    = errors.New("payment provider unavailable")
	ErrSessionNotFound = errors.New("checkout session not found")
	ErrInvalidRequest  = errors.New("payment request rejected")
)

const StatusPaid = "paid"

type LineItem struct {
	Name            string
	Image           string
	UnitAmountCents int64
	Quantity        int64
}

type CheckoutRequest struct {
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	CouponID   string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID               string
	URL              string
	PaymentStatus    string
	AmountTotalCents int64
	Metadata         map[string]string
}

// Gateway is the hosted checkout provider.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error)
	// CreateCoupon registers a one-time percentage discount and returns its id.
	CreateCoupon(ctx context.Context, percentOff int) (string, error)
}

// Disabled stands in when no provider is configured; every call fails with
// ErrProviderDown.
type Disabled struct{}

func (Disabled) CreateCheckoutSession(context.Context, CheckoutRequest) (*CheckoutSession, error) {
	return nil, ErrProviderDown
}

func (Disabled) GetCheckoutSession(context.Context, string) (*CheckoutSession, error) {
	return nil, ErrProviderDown
}

func (Disabled) CreateCoupon(context.Context, int) (string, error) { return "", ErrProviderDown }
