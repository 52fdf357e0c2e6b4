package charts

import (
	"fmt"

	"lessonpanel/internal/series"
)

// Styling is the fixed per-kind colour table.
type Styling struct {
	BackgroundColors []string
	BorderColors     []string
	BorderWidth      int
}

// Legend controls the chart legend.
type Legend struct {
	Display  bool
	Position string
}

// YAxis holds value-axis constraints. Precision 0 means integer ticks only.
type YAxis struct {
	BeginAtZero bool
	Precision   int
}

// Options are the chart-level settings handed to the renderer.
type Options struct {
	Responsive   bool
	Legend       Legend
	TitleDisplay bool
	YAxis        *YAxis
}

// Descriptor is everything a renderer needs to draw one chart.
type Descriptor struct {
	MountID      string
	Kind         Kind
	DatasetLabel string
	Labels       []string
	Values       []int64
	Styling      Styling
	Options      Options
}

// Palette entries shared by both chart kinds.
const (
	ColorBlue         = "rgba(54, 162, 235, 0.7)"
	ColorBlueBorder   = "rgba(54, 162, 235, 1)"
	ColorYellow       = "rgba(255, 206, 86, 0.7)"
	ColorYellowBorder = "rgba(255, 206, 86, 1)"
	ColorGreen        = "rgba(75, 192, 192, 0.7)"
	ColorGreenBorder  = "rgba(75, 192, 192, 1)"
)

// Dataset labels per kind.
const (
	PieDatasetLabel = "Progress Distribution"
	BarDatasetLabel = "Lessons per Day"
)

// StylingFor returns the fixed styling table for a chart kind.
func StylingFor(k Kind) Styling {
	switch k {
	case KindPie:
		return Styling{
			BackgroundColors: []string{ColorBlue, ColorYellow, ColorGreen},
			BorderColors:     []string{ColorBlueBorder, ColorYellowBorder, ColorGreenBorder},
			BorderWidth:      1,
		}
	default:
		return Styling{
			BackgroundColors: []string{ColorBlue},
			BorderColors:     []string{ColorBlueBorder},
			BorderWidth:      1,
		}
	}
}

// OptionsFor returns the fixed options for a chart kind. Titles come from
// the surrounding page markup, never from the chart.
func OptionsFor(k Kind) Options {
	switch k {
	case KindPie:
		return Options{
			Responsive: true,
			Legend:     Legend{Display: true, Position: "bottom"},
		}
	default:
		return Options{
			Responsive: true,
			Legend:     Legend{Display: false},
			YAxis:      &YAxis{BeginAtZero: true, Precision: 0},
		}
	}
}

// BuildDescriptor turns a resolved series into a renderer descriptor.
func BuildDescriptor(c Contract, s series.Series) (Descriptor, error) {
	if !c.Kind.Valid() {
		return Descriptor{}, fmt.Errorf("build %s: unknown chart kind %q", c.MountID, c.Kind)
	}
	label := BarDatasetLabel
	if c.Kind == KindPie {
		label = PieDatasetLabel
	}
	return Descriptor{
		MountID:      c.MountID,
		Kind:         c.Kind,
		DatasetLabel: label,
		Labels:       s.Labels(),
		Values:       s.Values(),
		Styling:      StylingFor(c.Kind),
		Options:      OptionsFor(c.Kind),
	}, nil
}
