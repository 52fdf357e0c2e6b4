package notify

import (
	"context"
	"net/http"
	"net/url"
)

// TokenSource yields the current anti-forgery token. Implementations must
// read the backing store on every call; tokens rotate.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// JarTokenSource reads the token cookie from a cookie jar.
type JarTokenSource struct {
	Jar  http.CookieJar
	URL  *url.URL
	Name string
}

// Token returns the decoded cookie value, or "" if the cookie is absent.
func (s JarTokenSource) Token(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := s.Name
	if name == "" {
		name = defaultCookie
	}
	for _, c := range s.Jar.Cookies(s.URL) {
		if c.Name != name {
			continue
		}
		if v, err := url.PathUnescape(c.Value); err == nil {
			return v, nil
		}
		return c.Value, nil
	}
	return "", nil
}
