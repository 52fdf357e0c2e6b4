package fixture_test

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"lessonpanel/internal/charts"
	"lessonpanel/internal/fixture"
	"lessonpanel/internal/htmldoc"
	"lessonpanel/internal/notify"
	"lessonpanel/internal/render"
)

type harness struct {
	srv    *fixture.Server
	ts     *httptest.Server
	client *http.Client
	base   *url.URL
}

func start(t *testing.T, opts ...fixture.Option) *harness {
	t.Helper()
	opts = append([]fixture.Option{fixture.WithLogger(zaptest.NewLogger(t))}, opts...)
	srv := fixture.New(opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	base, _ := url.Parse(ts.URL)
	return &harness{srv: srv, ts: ts, client: &http.Client{Jar: jar}, base: base}
}

func (h *harness) page(t *testing.T) *htmldoc.Document {
	t.Helper()
	resp, err := h.client.Get(h.ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := htmldoc.Parse(resp.Body)
	require.NoError(t, err)
	return doc
}

func (h *harness) token(t *testing.T) string {
	t.Helper()
	tok, err := notify.JarTokenSource{Jar: h.client.Jar, URL: h.base}.Token(context.Background())
	require.NoError(t, err)
	return tok
}

func TestDashboard_SetsTokenCookieOnce(t *testing.T) {
	h := start(t)
	h.page(t)
	first := h.token(t)
	require.NotEmpty(t, first)

	h.page(t)
	assert.Equal(t, first, h.token(t), "a valid cookie is kept")
}

func TestDashboard_EmbedsEveryStrategy(t *testing.T) {
	h := start(t)
	doc := h.page(t)
	ctx := context.Background()

	for _, c := range charts.DefaultContracts() {
		for _, p := range charts.DefaultChain(doc) {
			s, err := p.TryResolve(ctx, c)
			require.NoError(t, err, "%s via %s", c.SourceID, p.Name())
			assert.Positive(t, s.Len())
		}
	}
}

func TestDashboard_EmbedSubset(t *testing.T) {
	h := start(t, fixture.WithEmbed(fixture.EmbedDebug))
	doc := h.page(t)

	res, err := charts.DefaultChain(doc).Resolve(context.Background(), charts.ProgressContract())
	require.NoError(t, err)
	assert.Equal(t, charts.StrategyDebug, res.Strategy)
	if diff := cmp.Diff([]string{"Beginner", "Intermediate", "Advanced"}, res.Series.Labels()); diff != "" {
		t.Errorf("labels mismatch (-want +got):\n%s", diff)
	}
}

func TestDashboard_LoaderRendersBothCharts(t *testing.T) {
	h := start(t)
	doc := h.page(t)

	loader := charts.NewLoader(doc, doc, render.ChartJS{Mount: doc}, charts.WithLogger(zaptest.NewLogger(t)))
	report := loader.Run(context.Background())

	assert.Equal(t, 2, report.Rendered())
	for _, o := range report.Outcomes {
		assert.Equal(t, charts.StrategyGlobal, o.Strategy)
		_, ok, _ := doc.Attribute(context.Background(), o.MountID, htmldoc.ChartConfigAttribute)
		assert.True(t, ok, "chart config mounted on %s", o.MountID)
	}
}

func TestMarkRead_WithCookieAndHeader(t *testing.T) {
	h := start(t)
	doc := h.page(t)

	client, err := notify.NewClient(h.ts.URL, notify.JarTokenSource{Jar: h.client.Jar, URL: h.base},
		notify.WithHTTPClient(h.client))
	require.NoError(t, err)
	u := notify.NewUpdater(client, doc)

	res := u.Trigger(context.Background(), "42")
	require.True(t, res.OK(), "err: %v", res.Err)
	assert.True(t, h.srv.IsRead("42"))
	assert.False(t, h.srv.IsRead("43"))

	st, _ := doc.Control("42")
	assert.Equal(t, "Read", st.Label)

	after := h.page(t)
	st, _ = after.Control("42")
	assert.True(t, st.Disabled, "server renders read notifications disabled")
	assert.Equal(t, "0.5", st.Opacity)
}

func TestMarkRead_UnknownID(t *testing.T) {
	h := start(t)
	h.page(t)
	client, err := notify.NewClient(h.ts.URL, notify.JarTokenSource{Jar: h.client.Jar, URL: h.base},
		notify.WithHTTPClient(h.client))
	require.NoError(t, err)

	res := client.MarkRead(context.Background(), "999")
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, notify.Fault, res.Outcome)
}

func TestMarkRead_CSRFRejections(t *testing.T) {
	h := start(t)
	h.page(t)
	tok := h.token(t)

	post := func(header string, withCookie bool) int {
		req, err := http.NewRequest(http.MethodPost, h.ts.URL+"/notification/read/42/", http.NoBody)
		require.NoError(t, err)
		if header != "" {
			req.Header.Set(fixture.HeaderName, header)
		}
		hc := &http.Client{}
		if withCookie {
			hc.Jar = h.client.Jar
		}
		resp, err := hc.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, post("", true), "missing header")
	assert.Equal(t, http.StatusForbidden, post(tok, false), "missing cookie")
	assert.Equal(t, http.StatusForbidden, post("forged", true), "mismatch")
	assert.False(t, h.srv.IsRead("42"))
	assert.Equal(t, http.StatusOK, post(tok, true))
	assert.True(t, h.srv.IsRead("42"))
}

func TestMarkRead_UnissuedTokenRejected(t *testing.T) {
	h := start(t)
	req, err := http.NewRequest(http.MethodPost, h.ts.URL+"/notification/read/42/", http.NoBody)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: fixture.CookieName, Value: "self-made"})
	req.Header.Set(fixture.HeaderName, "self-made")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestNotificationsEndpoint(t *testing.T) {
	h := start(t, fixture.WithNotifications(fixture.Notification{ID: "1", Message: "hello"}))
	resp, err := h.client.Get(h.ts.URL + "/notifications")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"notifications":[{"id":"1","message":"hello","read":false}]}`, string(body))
}

func TestPage_ContractNamesMatch(t *testing.T) {
	body, err := fixture.New().Page()
	require.NoError(t, err)
	page := string(body)
	for _, c := range charts.DefaultContracts() {
		for _, name := range []string{"window." + c.SourceID, c.DataAttribute + "=", `id="` + c.DebugElementID + `"`, `id="` + c.ErrorElementID + `"`, `id="` + c.MountID + `"`} {
			assert.True(t, strings.Contains(page, name), "page lacks %s", name)
		}
	}
}
