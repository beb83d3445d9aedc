package apiclient

import (
	"context"
	"net/http"
)

const RefreshPath = "/auth/refresh-token"

// SessionRefresher asks the server to rotate the cookie pair. It posts no
// body; the refresh cookie in the jar is the credential.
type SessionRefresher struct {
	client *Client
	path   string
}

func NewSessionRefresher(c *Client) *SessionRefresher {
	return &SessionRefresher{client: c, path: RefreshPath}
}

func (r *SessionRefresher) Refresh(ctx context.Context) error {
	_, err := r.client.Do(ctx, &Request{Method: http.MethodPost, Path: r.path})
	return err
}
