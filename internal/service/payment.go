package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/shopfront/internal/events"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/payment"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const (
	// GiftThresholdCents is the order total from which a gift coupon is issued.
	GiftThresholdCents = 20000
	giftPercent        = 10
	giftValidity       = 30 * 24 * time.Hour
	giftCodePrefix     = "GIFT"

	metaUserID     = "userId"
	metaCouponCode = "couponCode"
	metaProducts   = "products"
)

type CheckoutItem struct {
	ProductID uuid.UUID `json:"id"`
	Quantity  int       `json:"quantity"`
}

type CheckoutResult struct {
	SessionID   string  `json:"id"`
	URL         string  `json:"url,omitempty"`
	TotalAmount float64 `json:"totalAmount"`
}

type orderLine struct {
	ProductID uuid.UUID `json:"id"`
	Quantity  uint      `json:"quantity"`
	Price     float64   `json:"price"`
}

type PaymentService struct {
	Repo    *repo.GormRepo
	Gateway payment.Gateway
	Events  events.Publisher
	// ClientURL is the storefront origin the provider redirects back to.
	ClientURL string
	Now       func() time.Time
}

// CreateCheckoutSession prices the items from the catalog, applies the
// user's coupon and opens a hosted checkout session. Orders at or above
// GiftThresholdCents earn the user a new coupon.
func (s *PaymentService) CreateCheckoutSession(ctx context.Context, userID uuid.UUID, items []CheckoutItem, couponCode string) (*CheckoutResult, error) {
	l := logging.FromContext(ctx).With("svc", "payment.checkout")

	if len(items) == 0 {
		return nil, fail(ErrValidation, "Invalid or empty products array")
	}
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil || it.Quantity <= 0 {
			return nil, fail(ErrValidation, "Each product needs an id and a positive quantity")
		}
		ids = append(ids, it.ProductID)
	}

	ps, err := s.Repo.ProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]models.Product, len(ps))
	for _, p := range ps {
		byID[p.ID] = p
	}

	var (
		totalCents int64
		lineItems  = make([]payment.LineItem, 0, len(items))
		lines      = make([]orderLine, 0, len(items))
	)
	for _, it := range items {
		p, ok := byID[it.ProductID]
		if !ok {
			return nil, fail(ErrNotFound, "Product not found")
		}
		unit := toCents(p.Price)
		totalCents += unit * int64(it.Quantity)
		lineItems = append(lineItems, payment.LineItem{
			Name:            p.Name,
			Image:           p.Image,
			UnitAmountCents: unit,
			Quantity:        int64(it.Quantity),
		})
		lines = append(lines, orderLine{ProductID: p.ID, Quantity: uint(it.Quantity), Price: p.Price})
	}

	req := payment.CheckoutRequest{
		LineItems:  lineItems,
		SuccessURL: strings.TrimRight(s.ClientURL, "/") + "/purchase-success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  strings.TrimRight(s.ClientURL, "/") + "/purchase-cancel",
	}

	couponCode = strings.TrimSpace(couponCode)
	if couponCode != "" {
		c, err := s.Repo.ActiveCouponByCode(ctx, userID, couponCode)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			l.Info("checkout_coupon_ignored", "code", couponCode)
			couponCode = ""
		case err != nil:
			return nil, err
		case !c.ExpirationDate.After(s.now()):
			l.Info("checkout_coupon_expired", "code", couponCode)
			couponCode = ""
		default:
			totalCents -= int64(math.Round(float64(totalCents) * float64(c.DiscountPercentage) / 100))
			id, err := s.Gateway.CreateCoupon(ctx, c.DiscountPercentage)
			if err != nil {
				return nil, s.gatewayError(err)
			}
			req.CouponID = id
		}
	}

	encoded, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("encode products: %w", err)
	}
	req.Metadata = map[string]string{
		metaUserID:     userID.String(),
		metaCouponCode: couponCode,
		metaProducts:   string(encoded),
	}

	sess, err := s.Gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		l.Error("checkout_session_failed", "error", err)
		return nil, s.gatewayError(err)
	}

	if totalCents >= GiftThresholdCents {
		if err := s.issueGiftCoupon(ctx, userID); err != nil {
			l.Warn("gift_coupon_failed", "user_id", userID, "error", err)
		}
	}

	l.Info("checkout_session_created", "session_id", sess.ID, "total_cents", totalCents)
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL, TotalAmount: float64(totalCents) / 100}, nil
}

// CheckoutSuccess turns a paid checkout session into an order. Calling it
// again for the same session returns the existing order.
func (s *PaymentService) CheckoutSuccess(ctx context.Context, userID uuid.UUID, sessionID string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "payment.checkout_success")

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fail(ErrValidation, "Session id is required")
	}

	sess, err := s.Gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, s.gatewayError(err)
	}
	if sess.Metadata[metaUserID] != userID.String() {
		l.Warn("checkout_session_foreign", "session_id", sessionID)
		return nil, fail(ErrNotFound, "Checkout session not found")
	}
	if sess.PaymentStatus != payment.StatusPaid {
		return nil, fail(ErrValidation, "Payment not completed")
	}

	var lines []orderLine
	if err := json.Unmarshal([]byte(sess.Metadata[metaProducts]), &lines); err != nil {
		return nil, fmt.Errorf("decode session products: %w", err)
	}

	if code := sess.Metadata[metaCouponCode]; code != "" {
		if err := s.Repo.DeactivateCoupon(ctx, userID, code); err != nil {
			return nil, err
		}
	}

	o := &models.Order{
		UserID:          userID,
		TotalAmount:     float64(sess.AmountTotalCents) / 100,
		StripeSessionID: sess.ID,
		Items:           make([]models.OrderItem, 0, len(lines)),
	}
	for _, ln := range lines {
		o.Items = append(o.Items, models.OrderItem{ProductID: ln.ProductID, Quantity: ln.Quantity, Price: ln.Price})
	}

	created, err := s.Repo.CreateOrder(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	if created {
		s.publish(ctx, o)
		l.Info("order_created", "order_id", o.ID, "session_id", sess.ID)
	}
	return o, nil
}

func (s *PaymentService) issueGiftCoupon(ctx context.Context, userID uuid.UUID) error {
	code := giftCodePrefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return s.Repo.ReplaceCoupon(ctx, &models.Coupon{
		Code:               code,
		DiscountPercentage: giftPercent,
		ExpirationDate:     s.now().Add(giftValidity),
		IsActive:           true,
		UserID:             userID,
	})
}

func (s *PaymentService) publish(ctx context.Context, o *models.Order) {
	if s.Events == nil {
		return
	}
	ev := events.Event{Type: events.OrderCreated, ID: o.ID.String(), Payload: o}
	if err := s.Events.Publish(ctx, events.TopicOrders, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_failed", "type", ev.Type, "error", err)
	}
}

func (s *PaymentService) gatewayError(err error) error {
	switch {
	case errors.Is(err, payment.ErrSessionNotFound):
		return fail(ErrNotFound, "Checkout session not found")
	case errors.Is(err, payment.ErrInvalidRequest):
		return fail(ErrValidation, "Payment request rejected")
	case errors.Is(err, payment.ErrProviderDown):
		return fail(ErrUnavailable, "Payment provider unavailable")
	}
	return err
}

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func toCents(price float64) int64 {
	return int64(math.Round(price * 100))
}
