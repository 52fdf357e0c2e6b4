package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lessonpanel/internal/booking"
	"lessonpanel/internal/charts"
	"lessonpanel/internal/config"
	"lessonpanel/internal/htmldoc"
	"lessonpanel/internal/logging"
	"lessonpanel/internal/render"
)

var chartsCmd = &cobra.Command{
	Use:   "charts",
	Short: "Dashboard chart loading",
}

var chartsRenderCmd = &cobra.Command{
	Use:   "render <page.html>",
	Short: "Load and render the dashboard charts of a saved page",
	Long: `Resolves each chart's data (global variable, then data attribute, then
debug payload), renders it into the page and writes the enhanced page.

Charts that cannot be resolved get their error element filled in instead.
With --watch the page is rendered again each time the file changes.`,
	Args: cobra.ExactArgs(1),
	RunE: chartsRender,
}

var (
	chartsOut        string
	chartsRenderer   string
	chartsImageDir   string
	chartsConcurrent bool
	chartsWatch      bool
)

func init() {
	chartsRenderCmd.Flags().StringVarP(&chartsOut, "out", "o", "", "Write the enhanced page here (default: stdout)")
	chartsRenderCmd.Flags().StringVar(&chartsRenderer, "renderer", "", "chartjs, png or svg (default from config)")
	chartsRenderCmd.Flags().StringVar(&chartsImageDir, "image-dir", "", "Also write drawn images to this directory")
	chartsRenderCmd.Flags().BoolVar(&chartsConcurrent, "concurrent", false, "Load charts in parallel")
	chartsRenderCmd.Flags().BoolVar(&chartsWatch, "watch", false, "Re-render whenever the page file changes")
	chartsCmd.AddCommand(chartsRenderCmd)
}

// renderOptions are the chart settings after flags are applied.
type renderOptions struct {
	renderer   string
	imageDir   string
	width      int
	height     int
	concurrent bool
	contracts  []charts.Contract
}

func chartOptions(c *config.Config) (renderOptions, error) {
	opts := renderOptions{
		renderer:   c.Charts.Renderer,
		imageDir:   c.Charts.ImageDir,
		width:      c.Charts.ImageWidth,
		height:     c.Charts.ImageHeight,
		concurrent: c.Charts.Concurrent || chartsConcurrent,
		contracts:  c.Charts.GetContracts(),
	}
	if chartsRenderer != "" {
		opts.renderer = chartsRenderer
	}
	if chartsImageDir != "" {
		opts.imageDir = chartsImageDir
	}
	switch opts.renderer {
	case config.RendererChartJS, config.RendererPNG, config.RendererSVG:
	default:
		return opts, fmt.Errorf("unknown renderer %q (valid: %v)", opts.renderer, config.ValidRenderers)
	}
	return opts, nil
}

// newRenderer builds the renderer for a page backend that can mount both
// Chart.js configs and images.
func newRenderer(opts renderOptions, mount interface {
	render.ChartMount
	render.ImageMount
}) charts.Renderer {
	if opts.renderer == config.RendererChartJS {
		return render.ChartJS{Mount: mount}
	}
	return render.Image{
		Format: opts.renderer,
		Width:  opts.width,
		Height: opts.height,
		Dir:    opts.imageDir,
		Mount:  mount,
	}
}

// pageRun is the result of enhancing one page.
type pageRun struct {
	Report  charts.Report
	Booking booking.Result
	HTML    []byte
}

// enhancePage parses a saved page, loads its charts and applies the booking
// form assist. A fresh document is parsed on every call.
func enhancePage(ctx context.Context, path string, opts renderOptions) (pageRun, error) {
	var run pageRun

	f, err := os.Open(path)
	if err != nil {
		return run, fmt.Errorf("open page: %w", err)
	}
	doc, err := htmldoc.Parse(f)
	f.Close()
	if err != nil {
		return run, err
	}

	timer := logging.StartTimer(logging.CategoryCharts, "chart load")
	loader := charts.NewLoader(doc, doc, newRenderer(opts, doc),
		charts.WithContracts(opts.contracts...),
		charts.WithConcurrency(opts.concurrent),
		charts.WithLogger(categoryLogger(logging.CategoryCharts)),
	)
	run.Report = loader.Run(ctx)
	timer.StopWithThreshold(time.Second)

	run.Booking, err = booking.Enhance(ctx, doc, time.Now())
	if err != nil {
		categoryLogger(logging.CategoryCharts).Warn("booking form not enhanced", zap.Error(err))
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return run, fmt.Errorf("render page: %w", err)
	}
	run.HTML = buf.Bytes()
	return run, nil
}

func chartsRender(cmd *cobra.Command, args []string) error {
	opts, err := chartOptions(settings())
	if err != nil {
		return err
	}
	path := args[0]

	if !chartsWatch {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return renderOnce(ctx, path, opts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return watchPage(ctx, path, opts)
}

func renderOnce(ctx context.Context, path string, opts renderOptions) error {
	run, err := enhancePage(ctx, path, opts)
	if err != nil {
		return err
	}
	if chartsOut == "" {
		if _, err := os.Stdout.Write(run.HTML); err != nil {
			return err
		}
		printChartReport(os.Stderr, path, run)
		return nil
	}
	if err := os.WriteFile(chartsOut, run.HTML, 0o644); err != nil {
		return fmt.Errorf("write page: %w", err)
	}
	printChartReport(os.Stdout, path, run)
	return nil
}

// watchPage renders path, then again after every write to it, until ctx
// ends. The parent directory is watched so editors that replace the file
// are still seen.
func watchPage(ctx context.Context, path string, opts renderOptions) error {
	log := categoryLogger(logging.CategoryCharts)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	if err := renderOnce(ctx, path, opts); err != nil {
		log.Error("render failed", zap.Error(err))
	}
	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			log.Debug("page changed", zap.String("op", ev.Op.String()))
			if err := renderOnce(ctx, path, opts); err != nil {
				log.Error("render failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}
