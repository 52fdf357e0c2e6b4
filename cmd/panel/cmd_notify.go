package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lessonpanel/internal/config"
	"lessonpanel/internal/htmldoc"
	"lessonpanel/internal/logging"
	"lessonpanel/internal/notify"
)

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Notification commands",
}

var notifyReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification read",
	Long: `Sends the mark-read request for one notification, carrying the CSRF
token from the token cookie in the configured header.

With --page the notification's control in a saved page is switched to its
read appearance, but only when the server confirmed the request.`,
	Args: cobra.ExactArgs(1),
	RunE: notifyRead,
}

var (
	notifyBaseURL string
	notifyCookies []string
	notifyPage    string
	notifyOut     string
)

func init() {
	notifyReadCmd.Flags().StringVar(&notifyBaseURL, "base-url", "", "Application server (default from config)")
	notifyReadCmd.Flags().StringArrayVar(&notifyCookies, "cookie", nil, "Cookie to send, name=value (repeatable)")
	notifyReadCmd.Flags().StringVar(&notifyPage, "page", "", "Saved page whose control should be updated")
	notifyReadCmd.Flags().StringVarP(&notifyOut, "out", "o", "", "Write the updated page here (default: overwrite --page)")
	notifyCmd.AddCommand(notifyReadCmd)
}

// newNotifyClient builds a mark-read client whose token is read from jar on
// every request.
func newNotifyClient(c *config.Config, base string, jar http.CookieJar) (*notify.Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	hc := &http.Client{Jar: jar, Timeout: c.GetRequestTimeout()}
	return notify.NewClient(base,
		notify.JarTokenSource{Jar: jar, URL: u, Name: c.Site.CSRFCookie},
		notify.WithHTTPClient(hc),
		notify.WithPath(c.Site.ReadPath),
		notify.WithHeader(c.Site.CSRFHeader),
		notify.WithClientLogger(categoryLogger(logging.CategoryNotify)),
	)
}

// parseCookies turns name=value flags into cookies scoped to the whole site.
func parseCookies(values []string) ([]*http.Cookie, error) {
	cookies := make([]*http.Cookie, 0, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid cookie %q, want name=value", v)
		}
		cookies = append(cookies, &http.Cookie{Name: name, Value: value, Path: "/"})
	}
	return cookies, nil
}

// primeToken fetches the site root when jar holds no token cookie yet, so
// the server can issue one.
func primeToken(ctx context.Context, c *config.Config, jar http.CookieJar, base *url.URL) {
	for _, ck := range jar.Cookies(base) {
		if ck.Name == c.Site.CSRFCookie {
			return
		}
	}
	log := categoryLogger(logging.CategoryNotify)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return
	}
	resp, err := (&http.Client{Jar: jar, Timeout: c.GetRequestTimeout()}).Do(req)
	if err != nil {
		log.Warn("could not fetch token cookie", zap.Error(err))
		return
	}
	resp.Body.Close()
	log.Debug("fetched site root for token cookie", zap.Int("status", resp.StatusCode))
}

func notifyRead(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext(cmd)
	defer cancel()

	c := settings()
	id := args[0]
	base := notifyBaseURL
	if base == "" {
		base = c.Site.BaseURL
	}
	baseURL, err := url.Parse(base)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return fmt.Errorf("base url %q must be absolute", base)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	cookies, err := parseCookies(notifyCookies)
	if err != nil {
		return err
	}
	jar.SetCookies(baseURL, cookies)
	primeToken(ctx, c, jar, baseURL)

	client, err := newNotifyClient(c, base, jar)
	if err != nil {
		return err
	}

	var (
		view notify.View
		doc  *htmldoc.Document
	)
	if notifyPage != "" {
		f, err := os.Open(notifyPage)
		if err != nil {
			return fmt.Errorf("open page: %w", err)
		}
		doc, err = htmldoc.Parse(f)
		f.Close()
		if err != nil {
			return err
		}
		view = doc
	}

	updater := notify.NewUpdater(client, view,
		notify.WithDedupInFlight(c.Notify.DedupInFlight),
		notify.WithUpdaterLogger(categoryLogger(logging.CategoryNotify)),
	)
	res := updater.Trigger(ctx, id)
	printNotifyResult(os.Stdout, client.Endpoint(id), res)

	if doc != nil && res.OK() {
		out := notifyOut
		if out == "" {
			out = notifyPage
		}
		if err := os.WriteFile(out, []byte(doc.String()), 0o644); err != nil {
			return fmt.Errorf("write page: %w", err)
		}
	}
	if !res.OK() {
		return fmt.Errorf("mark notification %s read: %w", id, res.Err)
	}
	return nil
}
