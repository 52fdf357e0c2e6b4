package notify

import (
	"context"
	"errors"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type capturedRequest struct {
	Method string
	Path   string
	Token  string
	Length int64
}

type readServer struct {
	*httptest.Server
	status int

	mu   sync.Mutex
	reqs []capturedRequest
}

func newReadServer(t *testing.T, status int) *readServer {
	t.Helper()
	s := &readServer{status: status}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.reqs = append(s.reqs, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Token:  r.Header.Get("X-CSRFToken"),
			Length: r.ContentLength,
		})
		s.mu.Unlock()
		w.WriteHeader(s.status)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *readServer) requests() []capturedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedRequest(nil), s.reqs...)
}

func staticToken(v string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return v, nil })
}

func newTestClient(t *testing.T, base string, tokens TokenSource) *Client {
	t.Helper()
	c, err := NewClient(base, tokens, WithClientLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	t.Cleanup(c.http.CloseIdleConnections)
	return c
}

func TestClient_MarkReadSuccess(t *testing.T) {
	srv := newReadServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL, staticToken("tok-1"))

	res := c.MarkRead(context.Background(), "42")

	require.True(t, res.OK(), "err: %v", res.Err)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "42", res.ID)
	assert.NotEmpty(t, res.RequestID)

	reqs := srv.requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, capturedRequest{Method: http.MethodPost, Path: "/notification/read/42/", Token: "tok-1"}, reqs[0])
}

func TestClient_MarkReadNon2xxIsFault(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusNotFound, http.StatusInternalServerError} {
		srv := newReadServer(t, status)
		c := newTestClient(t, srv.URL, staticToken("tok"))

		res := c.MarkRead(context.Background(), "7")

		assert.False(t, res.OK())
		assert.Equal(t, Fault, res.Outcome)
		assert.Equal(t, status, res.Status)
		var se *StatusError
		require.ErrorAs(t, res.Err, &se)
		assert.Equal(t, status, se.Code)
	}
}

func TestClient_NetworkErrorIsFault(t *testing.T) {
	srv := newReadServer(t, http.StatusOK)
	base := srv.URL
	srv.Close()

	c := newTestClient(t, base, staticToken("tok"))
	res := c.MarkRead(context.Background(), "1")
	assert.Equal(t, Fault, res.Outcome)
	assert.Zero(t, res.Status)
	assert.Error(t, res.Err)
}

func TestClient_MissingTokenSendsNothing(t *testing.T) {
	srv := newReadServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL, staticToken(""))

	res := c.MarkRead(context.Background(), "42")

	assert.ErrorIs(t, res.Err, ErrMissingToken)
	assert.Empty(t, srv.requests())
}

func TestClient_TokenErrorSendsNothing(t *testing.T) {
	srv := newReadServer(t, http.StatusOK)
	boom := errors.New("cookie store unavailable")
	c := newTestClient(t, srv.URL, TokenFunc(func(context.Context) (string, error) { return "", boom }))

	res := c.MarkRead(context.Background(), "42")
	assert.ErrorIs(t, res.Err, boom)
	assert.Empty(t, srv.requests())
}

func TestClient_EmptyIDSendsNothing(t *testing.T) {
	srv := newReadServer(t, http.StatusOK)
	c := newTestClient(t, srv.URL, staticToken("tok"))

	res := c.MarkRead(context.Background(), "  ")
	assert.ErrorIs(t, res.Err, ErrMissingID)
	assert.Empty(t, srv.requests())
}

func TestClient_TokenReadFreshEachTime(t *testing.T) {
	srv := newReadServer(t, http.StatusOK)
	var n atomic.Int32
	rotating := TokenFunc(func(context.Context) (string, error) {
		if n.Add(1) == 1 {
			return "first", nil
		}
		return "second", nil
	})
	c := newTestClient(t, srv.URL, rotating)

	require.True(t, c.MarkRead(context.Background(), "1").OK())
	require.True(t, c.MarkRead(context.Background(), "2").OK())

	reqs := srv.requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "first", reqs[0].Token)
	assert.Equal(t, "second", reqs[1].Token)
}

func TestClient_Endpoint(t *testing.T) {
	c, err := NewClient("https://lessons.example.com/app/", staticToken("x"))
	require.NoError(t, err)
	assert.Equal(t, "https://lessons.example.com/notification/read/42/", c.Endpoint("42"))
	assert.Equal(t, "https://lessons.example.com/notification/read/a%2Fb/", c.Endpoint("a/b"))

	c, err = NewClient("https://lessons.example.com", staticToken("x"), WithPath("/api/notifications/{id}/read"))
	require.NoError(t, err)
	assert.Equal(t, "https://lessons.example.com/api/notifications/9/read", c.Endpoint("9"))
}

func TestNewClient_Rejects(t *testing.T) {
	_, err := NewClient("/relative", staticToken("x"))
	assert.Error(t, err)
	_, err = NewClient("http://localhost:8000", nil)
	assert.Error(t, err)
}

func TestClient_CustomHeader(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-XSRF-Token")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, staticToken("abc"), WithHeader("X-XSRF-Token"))
	require.NoError(t, err)
	defer c.http.CloseIdleConnections()

	res := c.MarkRead(context.Background(), "5")
	assert.True(t, res.OK())
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, "abc", got)
}

func TestJarTokenSource(t *testing.T) {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, _ := url.Parse("http://localhost:8000/")
	src := JarTokenSource{Jar: jar, URL: u}

	tok, err := src.Token(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tok, "absent cookie yields empty token")

	jar.SetCookies(u, []*http.Cookie{{Name: "sessionid", Value: "s"}, {Name: "csrftoken", Value: "a%2Bb"}})
	tok, err = src.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a+b", tok)

	jar.SetCookies(u, []*http.Cookie{{Name: "csrftoken", Value: "rotated"}})
	tok, _ = src.Token(context.Background())
	assert.Equal(t, "rotated", tok)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = src.Token(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
