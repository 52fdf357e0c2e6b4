package config

// SiteConfig describes the application server.
type SiteConfig struct {
	BaseURL    string `yaml:"base_url"`
	CSRFCookie string `yaml:"csrf_cookie"`
	CSRFHeader string `yaml:"csrf_header"`
	// ReadPath is the mark-read endpoint template; {id} is substituted.
	ReadPath string `yaml:"read_path"`
}

// NotifyConfig configures the notification updater.
type NotifyConfig struct {
	// DedupInFlight drops a click while the same notification's request is
	// still pending.
	DedupInFlight  bool   `yaml:"dedup_in_flight"`
	RequestTimeout string `yaml:"request_timeout"`
}

// FixtureConfig configures the demo server.
type FixtureConfig struct {
	Addr string `yaml:"addr"`
}
