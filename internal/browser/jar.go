package browser

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// PageJar exposes a browser tab's cookie store as an http.CookieJar, so Go
// requests carry the same session and CSRF cookies as the page.
type PageJar struct {
	page   *rod.Page
	logger *zap.Logger
}

// NewPageJar wraps the cookie store of page.
func NewPageJar(page *rod.Page, logger *zap.Logger) *PageJar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PageJar{page: page, logger: logger}
}

// Cookies implements http.CookieJar. Every call reads the browser store.
func (j *PageJar) Cookies(u *url.URL) []*http.Cookie {
	cookies, err := j.page.Cookies([]string{u.String()})
	if err != nil {
		j.logger.Warn("read browser cookies", zap.String("url", u.String()), zap.Error(err))
		return nil
	}
	out := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	return out
}

// SetCookies implements http.CookieJar.
func (j *PageJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	params := make([]*proto.NetworkCookieParam, 0, len(cookies))
	for _, c := range cookies {
		p := &proto.NetworkCookieParam{
			Name:     c.Name,
			Value:    c.Value,
			URL:      u.String(),
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if !c.Expires.IsZero() {
			p.Expires = proto.TimeSinceEpoch(c.Expires.Unix())
		} else if c.MaxAge > 0 {
			p.Expires = proto.TimeSinceEpoch(time.Now().Add(time.Duration(c.MaxAge) * time.Second).Unix())
		}
		params = append(params, p)
	}
	if len(params) == 0 {
		return
	}
	if err := j.page.SetCookies(params); err != nil {
		j.logger.Warn("write browser cookies", zap.String("url", u.String()), zap.Error(err))
	}
}
