package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/singleflight"

	"github.com/Skotchmaster/shopfront/pkg/logging"
)

const refreshKey = "session-refresh"

// Refresher renews the session credentials held by the client.
type Refresher interface {
	Refresh(ctx context.Context) error
}

type RefresherFunc func(ctx context.Context) error

func (f RefresherFunc) Refresh(ctx context.Context) error { return f(ctx) }

type refreshCallKey struct{}

func markRefreshCall(ctx context.Context) context.Context {
	return context.WithValue(ctx, refreshCallKey{}, true)
}

// IsRefreshCall reports whether ctx belongs to the coordinator's own
// refresh round trip.
func IsRefreshCall(ctx context.Context) bool {
	v, _ := ctx.Value(refreshCallKey{}).(bool)
	return v
}

type coordinatorMetrics struct {
	refreshes *prometheus.CounterVec
	waiters   prometheus.Counter
}

// Coordinator turns 401 answers into at most one concurrent session refresh.
// Requests that hit a 401 while a refresh is running wait for it and are
// replayed once it succeeds. A failed refresh fails every waiter and fires
// the session-expired hooks.
type Coordinator struct {
	refresher Refresher
	group     singleflight.Group
	inFlight  atomic.Bool
	// set while session-expired hooks run
	expiring atomic.Bool

	joinMu  sync.Mutex
	waiting int

	mu    sync.Mutex
	hooks []func()

	metrics *coordinatorMetrics
}

type CoordinatorOption func(*Coordinator)

// WithRegisterer exposes refresh counters on reg.
func WithRegisterer(reg prometheus.Registerer) CoordinatorOption {
	return func(c *Coordinator) {
		f := promauto.With(reg)
		c.metrics = &coordinatorMetrics{
			refreshes: f.NewCounterVec(prometheus.CounterOpts{
				Name: "apiclient_session_refresh_total",
				Help: "Session refresh round trips by result.",
			}, []string{"result"}),
			waiters: f.NewCounter(prometheus.CounterOpts{
				Name: "apiclient_refresh_waiters_total",
				Help: "Requests that joined a refresh started by another request.",
			}),
		}
	}
}

// OnExpired registers fn to run when a refresh fails.
func OnExpired(fn func()) CoordinatorOption {
	return func(c *Coordinator) { c.OnSessionExpired(fn) }
}

func NewCoordinator(r Refresher, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{refresher: r}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnSessionExpired registers fn to run once per failed refresh.
func (c *Coordinator) OnSessionExpired(fn func()) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

// Refreshing reports whether a refresh round trip is in flight.
func (c *Coordinator) Refreshing() bool {
	return c.inFlight.Load()
}

// Waiting reports how many requests, the initiator included, are parked on
// a refresh.
func (c *Coordinator) Waiting() int {
	c.joinMu.Lock()
	defer c.joinMu.Unlock()
	return c.waiting
}

func (c *Coordinator) Intercept(ctx context.Context, req *Request, resp *Response, replay Replay) (*Response, error) {
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	// A 401 on the refresh call itself means the refresh credential is gone.
	if IsRefreshCall(ctx) {
		return resp, nil
	}
	if req.Retried {
		return resp, nil
	}
	// The session is being torn down; hooks that call the API must not
	// start another refresh.
	if c.expiring.Load() {
		return nil, fmt.Errorf("%w: session expired", ErrRefreshInvalid)
	}
	req.Retried = true

	if err := c.refresh(ctx); err != nil {
		return nil, err
	}
	return replay(ctx, req)
}

func (c *Coordinator) refresh(ctx context.Context) error {
	l := logging.FromContext(ctx).With("component", "refresh_coordinator")

	var leader bool
	c.joinMu.Lock()
	c.waiting++
	ch := c.group.DoChan(refreshKey, func() (any, error) {
		leader = true
		c.inFlight.Store(true)
		defer c.inFlight.Store(false)

		// Detached so one impatient caller cannot fail the refresh for everyone.
		rctx := markRefreshCall(context.WithoutCancel(ctx))
		if err := c.refresher.Refresh(rctx); err != nil {
			l.Warn("session_refresh_failed", "error", err)
			c.observe("failure")
			c.expire()
			return nil, fmt.Errorf("%w: %v", ErrRefreshInvalid, err)
		}
		l.Debug("session_refreshed")
		c.observe("success")
		return nil, nil
	})
	c.joinMu.Unlock()
	defer func() {
		c.joinMu.Lock()
		c.waiting--
		c.joinMu.Unlock()
	}()

	select {
	case res := <-ch:
		if !leader && c.metrics != nil {
			c.metrics.waiters.Inc()
		}
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) observe(result string) {
	if c.metrics != nil {
		c.metrics.refreshes.WithLabelValues(result).Inc()
	}
}

// expire runs the hooks with the refresh slot released. 401s seen meanwhile
// fail with ErrRefreshInvalid instead of starting a new refresh.
func (c *Coordinator) expire() {
	c.expiring.Store(true)
	defer c.expiring.Store(false)
	c.group.Forget(refreshKey)

	c.mu.Lock()
	hooks := append([]func(){}, c.hooks...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
