package render

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"lessonpanel/internal/charts"
)

// Image formats understood by Image.
const (
	FormatPNG = "png"
	FormatSVG = "svg"
)

const (
	defaultWidth  = 640
	defaultHeight = 400
)

// ImageMount places a pre-drawn chart image on a mount element.
type ImageMount interface {
	MountImage(ctx context.Context, mountID, mime string, data []byte) error
}

// Image draws descriptors server-side with go-chart. The result is mounted
// on the page when Mount is set and written to Dir when Dir is set.
type Image struct {
	Format string
	Width  int
	Height int
	Dir    string
	Mount  ImageMount
}

// Render implements charts.Renderer.
func (r Image) Render(ctx context.Context, d charts.Descriptor) error {
	data, err := r.Draw(d)
	if err != nil {
		return err
	}
	if r.Dir != "" {
		path := filepath.Join(r.Dir, d.MountID+"."+r.format())
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	if r.Mount != nil {
		return r.Mount.MountImage(ctx, d.MountID, r.mime(), data)
	}
	return nil
}

// Draw renders d to image bytes in the configured format.
func (r Image) Draw(d charts.Descriptor) ([]byte, error) {
	if len(d.Labels) != len(d.Values) {
		return nil, fmt.Errorf("draw %s: %d labels for %d values", d.MountID, len(d.Labels), len(d.Values))
	}
	if len(d.Values) == 0 {
		return nil, fmt.Errorf("draw %s: no data", d.MountID)
	}

	provider := chart.PNG
	if r.format() == FormatSVG {
		provider = chart.SVG
	}

	var buf bytes.Buffer
	switch d.Kind {
	case charts.KindPie:
		pie, err := r.pie(d)
		if err != nil {
			return nil, err
		}
		if err := pie.Render(provider, &buf); err != nil {
			return nil, fmt.Errorf("draw %s: %w", d.MountID, err)
		}
	case charts.KindBar:
		bar := r.bar(d)
		if err := bar.Render(provider, &buf); err != nil {
			return nil, fmt.Errorf("draw %s: %w", d.MountID, err)
		}
	default:
		return nil, fmt.Errorf("draw %s: unknown chart kind %q", d.MountID, d.Kind)
	}
	return buf.Bytes(), nil
}

func (r Image) pie(d charts.Descriptor) (chart.PieChart, error) {
	var values []chart.Value
	for i, v := range d.Values {
		if v == 0 {
			continue
		}
		values = append(values, chart.Value{
			Label: d.Labels[i],
			Value: float64(v),
			Style: chart.Style{
				FillColor:   paletteColor(d.Styling.BackgroundColors, i),
				StrokeColor: paletteColor(d.Styling.BorderColors, i),
				StrokeWidth: float64(d.Styling.BorderWidth),
			},
		})
	}
	if len(values) == 0 {
		return chart.PieChart{}, fmt.Errorf("draw %s: all values are zero", d.MountID)
	}
	return chart.PieChart{
		Width:  r.width(),
		Height: r.height(),
		Values: values,
	}, nil
}

func (r Image) bar(d charts.Descriptor) chart.BarChart {
	style := chart.Style{
		FillColor:   paletteColor(d.Styling.BackgroundColors, 0),
		StrokeColor: paletteColor(d.Styling.BorderColors, 0),
		StrokeWidth: float64(d.Styling.BorderWidth),
	}
	bars := make([]chart.Value, len(d.Values))
	var top int64
	for i, v := range d.Values {
		bars[i] = chart.Value{Label: d.Labels[i], Value: float64(v), Style: style}
		if v > top {
			top = v
		}
	}
	return chart.BarChart{
		Width:      r.width(),
		Height:     r.height(),
		Background: chart.Style{Padding: chart.Box{Top: 20, Left: 16, Right: 12, Bottom: 16}},
		Bars:       bars,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(top, 1))},
			Ticks: IntegerTicks(top, 5),
		},
	}
}

// IntegerTicks returns value-axis ticks from zero up to at least top,
// spaced by a whole-number step so that no tick is fractional.
func IntegerTicks(top int64, target int) []chart.Tick {
	if top < 1 {
		top = 1
	}
	if target < 1 {
		target = 1
	}
	step := int64(math.Ceil(float64(top) / float64(target)))
	if step < 1 {
		step = 1
	}
	var ticks []chart.Tick
	for v := int64(0); ; v += step {
		ticks = append(ticks, chart.Tick{Value: float64(v), Label: strconv.FormatInt(v, 10)})
		if v >= top {
			break
		}
	}
	return ticks
}

func (r Image) format() string {
	if strings.EqualFold(r.Format, FormatSVG) {
		return FormatSVG
	}
	return FormatPNG
}

func (r Image) mime() string {
	if r.format() == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

func (r Image) width() int {
	if r.Width > 0 {
		return r.Width
	}
	return defaultWidth
}

func (r Image) height() int {
	if r.Height > 0 {
		return r.Height
	}
	return defaultHeight
}

func paletteColor(palette []string, i int) drawing.Color {
	if len(palette) == 0 {
		return chart.ColorBlue
	}
	c, err := ParseRGBA(palette[i%len(palette)])
	if err != nil {
		return chart.ColorBlue
	}
	return c
}

// ParseRGBA parses a CSS colour of the form rgba(r, g, b, a) or rgb(r, g, b).
func ParseRGBA(s string) (drawing.Color, error) {
	s = strings.TrimSpace(s)
	var body string
	switch {
	case strings.HasPrefix(s, "rgba(") && strings.HasSuffix(s, ")"):
		body = s[len("rgba(") : len(s)-1]
	case strings.HasPrefix(s, "rgb(") && strings.HasSuffix(s, ")"):
		body = s[len("rgb(") : len(s)-1]
	default:
		return drawing.Color{}, fmt.Errorf("unsupported colour %q", s)
	}
	parts := strings.Split(body, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return drawing.Color{}, fmt.Errorf("unsupported colour %q", s)
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		n, err := strconv.ParseUint(strings.TrimSpace(parts[i]), 10, 8)
		if err != nil {
			return drawing.Color{}, fmt.Errorf("colour %q: %w", s, err)
		}
		rgb[i] = uint8(n)
	}
	alpha := uint8(255)
	if len(parts) == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return drawing.Color{}, fmt.Errorf("colour %q: bad alpha", s)
		}
		alpha = uint8(math.Round(a * 255))
	}
	return drawing.Color{R: rgb[0], G: rgb[1], B: rgb[2], A: alpha}, nil
}
