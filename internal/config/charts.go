package config

import (
	"slices"

	"lessonpanel/internal/charts"
)

// Renderer names.
const (
	RendererChartJS = "chartjs"
	RendererPNG     = "png"
	RendererSVG     = "svg"
)

// ValidRenderers lists all supported chart renderers.
var ValidRenderers = []string{RendererChartJS, RendererPNG, RendererSVG}

func isValidRenderer(r string) bool {
	return slices.Contains(ValidRenderers, r)
}

// ChartsConfig configures chart loading.
type ChartsConfig struct {
	Renderer    string `yaml:"renderer"` // chartjs, png, svg
	ImageDir    string `yaml:"image_dir"`
	ImageWidth  int    `yaml:"image_width"`
	ImageHeight int    `yaml:"image_height"`
	Concurrent  bool   `yaml:"concurrent"`

	// Contracts replaces the built-in chart contracts when non-empty.
	Contracts []charts.Contract `yaml:"contracts"`
}

// GetContracts returns the configured contracts or the built-in pair.
func (c ChartsConfig) GetContracts() []charts.Contract {
	if len(c.Contracts) == 0 {
		return charts.DefaultContracts()
	}
	return c.Contracts
}
