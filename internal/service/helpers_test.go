package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/shopfront/internal/events"
	"github.com/Skotchmaster/shopfront/internal/models"
	"github.com/Skotchmaster/shopfront/internal/payment"
	"github.com/Skotchmaster/shopfront/internal/repo"
	"github.com/Skotchmaster/shopfront/internal/search"
	"github.com/Skotchmaster/shopfront/internal/session"
	"github.com/Skotchmaster/shopfront/pkg/db"
)

func newRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	gdb, err := db.OpenMemory(uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })
	r := repo.New(gdb)
	require.NoError(t, r.Migrate(context.Background()))
	return r
}

func newIssuer(r *repo.GormRepo) *session.Issuer {
	return session.NewIssuer(session.NewGormStore(r.DB), session.Config{
		AccessSecret:  []byte("access-secret"),
		RefreshSecret: []byte("refresh-secret"),
	})
}

func seedProduct(t *testing.T, r *repo.GormRepo, name string, price float64, featured bool) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name + " description", Price: price, Category: "shoes", IsFeatured: featured}
	require.NoError(t, r.CreateProduct(context.Background(), &p))
	return p
}

type published struct {
	Topic string
	Event events.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Event: ev})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event.Type)
	}
	return out
}

type memCache struct {
	products []models.Product
	set      bool
	gets     int
	sets     int
}

func (c *memCache) Get(context.Context) ([]models.Product, bool, error) {
	c.gets++
	return c.products, c.set, nil
}

func (c *memCache) Set(_ context.Context, ps []models.Product) error {
	c.sets++
	c.products, c.set = ps, true
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	c.products, c.set = nil, false
	return nil
}

type fakeImages struct {
	uploaded []string
	deleted  []string
	err      error
}

func (f *fakeImages) Upload(_ context.Context, image string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploaded = append(f.uploaded, image)
	return "https://cdn.test/products/" + uuid.NewString() + ".png", nil
}

func (f *fakeImages) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

type fakeIndex struct {
	indexed map[uuid.UUID]models.Product
	deleted []uuid.UUID
	err     error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]models.Product{}}
}

func (f *fakeIndex) Index(_ context.Context, p models.Product) error {
	f.indexed[p.ID] = p
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.indexed, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(_ context.Context, _ string, _, _ int) (search.Results, error) {
	if f.err != nil {
		return search.Results{}, f.err
	}
	res := search.Results{}
	for _, p := range f.indexed {
		res.Items = append(res.Items, p)
	}
	res.Total = int64(len(res.Items))
	return res, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	sessions map[string]*payment.CheckoutSession
	requests []payment.CheckoutRequest
	coupons  []int
	err      error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{sessions: map[string]*payment.CheckoutSession{}}
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req payment.CheckoutRequest) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)

	var total int64
	for _, li := range req.LineItems {
		total += li.UnitAmountCents * li.Quantity
	}
	s := &payment.CheckoutSession{
		ID:               "cs_test_" + uuid.NewString(),
		URL:              "https://checkout.test/pay",
		PaymentStatus:    "unpaid",
		AmountTotalCents: total,
		Metadata:         req.Metadata,
	}
	g.sessions[s.ID] = s
	return s, nil
}

func (g *fakeGateway) GetCheckoutSession(_ context.Context, id string) (*payment.CheckoutSession, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[id]
	if !ok {
		return nil, payment.ErrSessionNotFound
	}
	cp := *s
	return &cp, nil
}

func (g *fakeGateway) CreateCoupon(_ context.Context, percentOff int) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.coupons = append(g.coupons, percentOff)
	return "coupon_test", nil
}

func (g *fakeGateway) markPaid(id string, amountCents int64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[id].PaymentStatus = payment.StatusPaid
	g.sessions[id].AmountTotalCents = amountCents
}

var errBoom = errors.New("boom")

func fixedNow() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
