package config

// BrowserConfig configures live browser sessions.
type BrowserConfig struct {
	// DebuggerURL attaches to a running Chrome; empty launches one.
	DebuggerURL       string `yaml:"debugger_url"`
	Headless          bool   `yaml:"headless"`
	NavigationTimeout string `yaml:"navigation_timeout"`
	SessionStore      string `yaml:"session_store"`
}
