package cookies

import (
	"net/http"
	"time"
)

const (
	AccessToken  = "accessToken"
	RefreshToken = "refreshToken"
)

// Policy carries the attributes shared by both credential cookies.
type Policy struct {
	Path   string
	Secure bool
}

func NewPolicy(production bool) Policy {
	return Policy{Path: "/", Secure: production}
}

func (p Policy) Create(name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     p.Path,
		Expires:  time.Now().Add(maxAge),
		MaxAge:   int(maxAge / time.Second),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (p Policy) Delete(name string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     p.Path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
