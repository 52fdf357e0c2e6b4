// Package render turns chart descriptors into something a page can show:
// a Chart.js configuration mounted on a canvas, or a pre-drawn image.
package render

import (
	"context"
	"encoding/json"
	"fmt"

	"lessonpanel/internal/charts"
)

// ChartMount attaches a Chart.js configuration to a mount element.
type ChartMount interface {
	MountChart(ctx context.Context, mountID string, config []byte) error
}

// ChartJS renders descriptors as Chart.js configurations.
type ChartJS struct {
	Mount ChartMount
}

// Render implements charts.Renderer.
func (r ChartJS) Render(ctx context.Context, d charts.Descriptor) error {
	if r.Mount == nil {
		return fmt.Errorf("chartjs: no mount for %s", d.MountID)
	}
	cfg, err := ChartJSConfig(d)
	if err != nil {
		return err
	}
	return r.Mount.MountChart(ctx, d.MountID, cfg)
}

type chartConfig struct {
	Type    string       `json:"type"`
	Data    chartData    `json:"data"`
	Options chartOptions `json:"options"`
}

type chartData struct {
	Labels   []string  `json:"labels"`
	Datasets []dataset `json:"datasets"`
}

type dataset struct {
	Label           string  `json:"label"`
	Data            []int64 `json:"data"`
	BackgroundColor any     `json:"backgroundColor"`
	BorderColor     any     `json:"borderColor"`
	BorderWidth     int     `json:"borderWidth"`
}

type chartOptions struct {
	Responsive bool        `json:"responsive"`
	Scales     *scales     `json:"scales,omitempty"`
	Plugins    pluginBlock `json:"plugins"`
}

type scales struct {
	Y axis `json:"y"`
}

type axis struct {
	BeginAtZero bool      `json:"beginAtZero"`
	Ticks       axisTicks `json:"ticks"`
}

type axisTicks struct {
	Precision int `json:"precision"`
}

type pluginBlock struct {
	Legend legend `json:"legend"`
	Title  toggle `json:"title"`
}

type legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position,omitempty"`
}

type toggle struct {
	Display bool `json:"display"`
}

// ChartJSConfig builds the Chart.js configuration for d. Pie charts carry
// one colour per slice; bar charts carry a single colour for every bar.
func ChartJSConfig(d charts.Descriptor) ([]byte, error) {
	if !d.Kind.Valid() {
		return nil, fmt.Errorf("chartjs: unknown chart kind %q", d.Kind)
	}
	if len(d.Labels) != len(d.Values) {
		return nil, fmt.Errorf("chartjs: %d labels for %d values", len(d.Labels), len(d.Values))
	}

	labels := d.Labels
	if labels == nil {
		labels = []string{}
	}
	values := d.Values
	if values == nil {
		values = []int64{}
	}

	ds := dataset{
		Label:       d.DatasetLabel,
		Data:        values,
		BorderWidth: d.Styling.BorderWidth,
	}
	if d.Kind == charts.KindPie {
		ds.BackgroundColor = d.Styling.BackgroundColors
		ds.BorderColor = d.Styling.BorderColors
	} else {
		ds.BackgroundColor = first(d.Styling.BackgroundColors)
		ds.BorderColor = first(d.Styling.BorderColors)
	}

	cfg := chartConfig{
		Type: string(d.Kind),
		Data: chartData{Labels: labels, Datasets: []dataset{ds}},
		Options: chartOptions{
			Responsive: d.Options.Responsive,
			Plugins: pluginBlock{
				Legend: legend{Display: d.Options.Legend.Display, Position: d.Options.Legend.Position},
				Title:  toggle{Display: d.Options.TitleDisplay},
			},
		},
	}
	if y := d.Options.YAxis; y != nil {
		cfg.Options.Scales = &scales{Y: axis{BeginAtZero: y.BeginAtZero, Ticks: axisTicks{Precision: y.Precision}}}
	}
	return json.Marshal(cfg)
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
