package config

import "lessonpanel/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, console
	Dir        string          `yaml:"dir"`
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// Runtime converts the file settings to the logging package's config.
func (c LoggingConfig) Runtime() logging.Config {
	return logging.Config{
		Level:      c.Level,
		Format:     c.Format,
		Dir:        c.Dir,
		Categories: c.Categories,
	}
}
