package apiclient

import "context"

// Replay re-sends a request through the full pipeline, interceptors
// included.
type Replay func(ctx context.Context, req *Request) (*Response, error)

// Interceptor sees every response before the caller does. It may return
// resp untouched, fail the call, or replay req and return that outcome.
type Interceptor interface {
	Intercept(ctx context.Context, req *Request, resp *Response, replay Replay) (*Response, error)
}

type InterceptorFunc func(ctx context.Context, req *Request, resp *Response, replay Replay) (*Response, error)

func (f InterceptorFunc) Intercept(ctx context.Context, req *Request, resp *Response, replay Replay) (*Response, error) {
	return f(ctx, req, resp, replay)
}
