package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lessonpanel/internal/booking"
	"lessonpanel/internal/browser"
	"lessonpanel/internal/charts"
	"lessonpanel/internal/config"
	"lessonpanel/internal/logging"
	"lessonpanel/internal/notify"
)

var browserCmd = &cobra.Command{
	Use:   "browser",
	Short: "Live browser sessions",
}

var browserOpenCmd = &cobra.Command{
	Use:   "open <url>",
	Short: "Open the dashboard in a browser and enhance it live",
	Long: `Opens url in a Chrome tab, loads the charts into the live page, applies
the booking form assist and listens for clicks on notification controls
until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: browserOpen,
}

var (
	browserHeadless   bool
	browserScreenshot string
)

func init() {
	browserOpenCmd.Flags().BoolVar(&browserHeadless, "headless", false, "Run Chrome without a window (default from config)")
	browserOpenCmd.Flags().StringVar(&browserScreenshot, "screenshot", "", "Save a full-page PNG after the charts load")
	browserCmd.AddCommand(browserOpenCmd)
}

// browserConfig maps the file settings onto the session manager's config.
func browserConfig(c *config.Config, headlessSet bool) browser.Config {
	bc := browser.DefaultConfig()
	bc.DebuggerURL = c.Browser.DebuggerURL
	bc.Headless = c.Browser.Headless
	if headlessSet {
		bc.Headless = browserHeadless
	}
	bc.NavigationTimeoutMs = int(c.GetNavigationTimeout() / time.Millisecond)
	bc.SessionStore = c.Browser.SessionStore
	if verbose {
		bc.EventLoggingLevel = "verbose"
	}
	return bc
}

func browserOpen(cmd *cobra.Command, args []string) error {
	c := settings()
	target := args[0]
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url %q must be absolute", target)
	}
	site := (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := categoryLogger(logging.CategoryBrowser)
	mgr := browser.NewSessionManager(browserConfig(c, cmd.Flags().Changed("headless")), log, categoryLogger(logging.CategoryPage))

	// The browser and its pages live until shutdown; only the initial
	// load is bounded by --timeout.
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if !mgr.IsConnected() {
			return
		}
		if err := mgr.Shutdown(context.Background()); err != nil {
			log.Warn("browser shutdown failed", zap.Error(err))
		}
	}()

	session, err := mgr.CreateSession(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", target, err)
	}
	page, err := mgr.LivePage(session.ID)
	if err != nil {
		return err
	}
	rodPage, _ := mgr.Page(session.ID)

	loadCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts, err := chartOptions(c)
	if err != nil {
		return err
	}
	// Images are mounted as data URLs; nothing is written on a live page.
	opts.imageDir = ""
	loader := charts.NewLoader(page, page, newRenderer(opts, page),
		charts.WithContracts(opts.contracts...),
		charts.WithConcurrency(opts.concurrent),
		charts.WithLogger(categoryLogger(logging.CategoryCharts)),
	)
	run := pageRun{Report: loader.Run(loadCtx)}
	run.Booking, err = booking.Enhance(loadCtx, page, time.Now())
	if err != nil {
		log.Warn("booking form not enhanced", zap.Error(err))
	}
	printChartReport(os.Stdout, target, run)

	if browserScreenshot != "" {
		if err := saveScreenshot(loadCtx, mgr, session.ID, browserScreenshot); err != nil {
			log.Warn("screenshot failed", zap.Error(err))
		} else {
			fmt.Printf("Screenshot: %s\n", browserScreenshot)
		}
	}

	client, err := newNotifyClient(c, site, browser.NewPageJar(rodPage, log))
	if err != nil {
		return err
	}
	updater := notify.NewUpdater(client, page,
		notify.WithDedupInFlight(c.Notify.DedupInFlight),
		notify.WithUpdaterLogger(categoryLogger(logging.CategoryNotify)),
	)
	unbind, err := updater.Install(ctx, page)
	if err != nil {
		return fmt.Errorf("failed to bind notification controls: %w", err)
	}
	unfollow, err := booking.Follow(ctx, page, page, categoryLogger(logging.CategoryBrowser))
	if err != nil {
		log.Warn("booking end time will not follow the start time", zap.Error(err))
		unfollow = func() error { return nil }
	}

	fmt.Printf("Session %s on %s\n", session.ID, target)
	fmt.Printf("Control URL: %s\n", mgr.ControlURL())
	fmt.Println("Press Ctrl+C to shutdown")
	<-ctx.Done()

	if err := unbind(); err != nil {
		log.Debug("unbind controls", zap.Error(err))
	}
	if err := unfollow(); err != nil {
		log.Debug("stop booking hook", zap.Error(err))
	}
	updater.Wait()
	return nil
}

func saveScreenshot(ctx context.Context, mgr *browser.SessionManager, sessionID, path string) error {
	png, err := mgr.Screenshot(ctx, sessionID, true)
	if err != nil {
		return err
	}
	return os.WriteFile(path, png, 0o644)
}
