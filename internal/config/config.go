package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dm/nzbinfo-go/internal/model"
	"github.com/dm/nzbinfo-go/internal/registry"
)

// BackendConfig is the connection info for one backend.
// A zero Port means the registry default for the backend kind.
type BackendConfig struct {
	ID       model.BackendID `mapstructure:"-" yaml:"-"`
	Host     string          `mapstructure:"host" yaml:"host"`
	Port     int             `mapstructure:"port" yaml:"port,omitempty"`
	SSL      bool            `mapstructure:"ssl" yaml:"ssl"`
	URLBase  string          `mapstructure:"url_base" yaml:"url_base,omitempty"`
	APIKey   string          `mapstructure:"api_key" yaml:"api_key,omitempty"`
	Username string          `mapstructure:"username" yaml:"username,omitempty"`
	Password string          `mapstructure:"password" yaml:"password,omitempty"`
}

// Configured reports whether the backend has enough info to be contacted.
func (b BackendConfig) Configured() bool {
	return strings.TrimSpace(b.Host) != ""
}

// EffectivePort returns Port, or the registry default when Port is zero.
func (b BackendConfig) EffectivePort() int {
	if b.Port != 0 {
		return b.Port
	}
	if e, ok := registry.Lookup(b.ID); ok {
		return e.DefaultPort
	}
	return 0
}

// BaseURL assembles scheme://host:port[/url_base] with url_base stripped of
// surrounding slashes.
func (b BackendConfig) BaseURL() string {
	scheme := "http"
	if b.SSL {
		scheme = "https"
	}
	u := scheme + "://" + strings.TrimSpace(b.Host) + ":" + strconv.Itoa(b.EffectivePort())
	if base := strings.Trim(strings.TrimSpace(b.URLBase), "/"); base != "" {
		u += "/" + base
	}
	return u
}

// Config is the full runtime configuration.
type Config struct {
	Enabled            []string                 `mapstructure:"enabled"`
	Backends           map[string]BackendConfig `mapstructure:"backends"`
	PollInterval       time.Duration            `mapstructure:"poll_interval"`
	ErrorBackoff       time.Duration            `mapstructure:"error_backoff"`
	RequestTimeout     time.Duration            `mapstructure:"request_timeout"`
	RetryMax           int                      `mapstructure:"retry_max"`
	InsecureSkipVerify bool                     `mapstructure:"insecure_skip_verify"`
	Listen             string                   `mapstructure:"listen"`
	LogLevel           string                   `mapstructure:"log_level"`
}

// Defaults.
const (
	DefaultPollInterval   = 10 * time.Second
	DefaultErrorBackoff   = 30 * time.Second
	DefaultRequestTimeout = 10 * time.Second
	DefaultRetryMax       = 2
	DefaultListen         = "127.0.0.1:8099"
	DefaultLogLevel       = "info"
)

// Default returns a config with every setting at its default and no
// backends enabled.
func Default() *Config {
	return &Config{
		Backends:           map[string]BackendConfig{},
		PollInterval:       DefaultPollInterval,
		ErrorBackoff:       DefaultErrorBackoff,
		RequestTimeout:     DefaultRequestTimeout,
		RetryMax:           DefaultRetryMax,
		InsecureSkipVerify: true,
		Listen:             DefaultListen,
		LogLevel:           DefaultLogLevel,
	}
}

// EnabledBackends returns the enabled backend ids in display order.
// Unknown names and duplicates are skipped; Validate reports them.
func (c *Config) EnabledBackends() []model.BackendID {
	want := make(map[model.BackendID]bool, len(c.Enabled))
	for _, name := range c.Enabled {
		id, err := model.ParseBackendID(name)
		if err != nil {
			continue
		}
		want[id] = true
	}
	out := make([]model.BackendID, 0, len(want))
	for _, id := range model.AllBackends {
		if want[id] {
			out = append(out, id)
		}
	}
	return out
}

// IsEnabled reports whether id is in the enabled set.
func (c *Config) IsEnabled(id model.BackendID) bool {
	for _, e := range c.EnabledBackends() {
		if e == id {
			return true
		}
	}
	return false
}

// Backend returns the connection info for id. Missing entries yield a zero
// config carrying only the id.
func (c *Config) Backend(id model.BackendID) BackendConfig {
	b := c.Backends[string(id)]
	b.ID = id
	return b
}

const redacted = "****"

// Redacted returns a deep copy with API keys and passwords masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Enabled = append([]string(nil), c.Enabled...)
	out.Backends = make(map[string]BackendConfig, len(c.Backends))
	for k, b := range c.Backends {
		if b.APIKey != "" {
			b.APIKey = redacted
		}
		if b.Password != "" {
			b.Password = redacted
		}
		out.Backends[k] = b
	}
	return &out
}

// ValidationError describes one config problem and how to fix it.
type ValidationError struct {
	Field      string // dotted path, e.g. "backends.sonarr.host"
	Message    string
	Suggestion string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks the config and returns every problem found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	names := make([]string, 0, len(model.AllBackends))
	for _, id := range model.AllBackends {
		names = append(names, string(id))
	}
	for _, name := range c.Enabled {
		if _, err := model.ParseBackendID(name); err != nil {
			errs = append(errs, ValidationError{
				Field:      "enabled",
				Message:    fmt.Sprintf("unknown backend %q", name),
				Suggestion: "use one of: " + strings.Join(names, ", "),
			})
		}
	}

	for _, id := range c.EnabledBackends() {
		b := c.Backend(id)
		entry, _ := registry.Lookup(id)
		prefix := "backends." + string(id)
		if !b.Configured() {
			errs = append(errs, ValidationError{
				Field:      prefix + ".host",
				Message:    "host is empty",
				Suggestion: fmt.Sprintf("set the hostname or IP of your %s server", entry.Name),
			})
		}
		if b.Port < 0 || b.Port > 65535 {
			errs = append(errs, ValidationError{
				Field:      prefix + ".port",
				Message:    fmt.Sprintf("port %d out of range", b.Port),
				Suggestion: fmt.Sprintf("use 0 for the default (%d)", entry.DefaultPort),
			})
		}
		if entry.Auth != registry.AuthNone && b.APIKey == "" {
			errs = append(errs, ValidationError{
				Field:      prefix + ".api_key",
				Message:    "api key is empty",
				Suggestion: fmt.Sprintf("copy it from %s Settings > General", entry.Name),
			})
		}
	}

	if c.PollInterval <= 0 {
		errs = append(errs, ValidationError{Field: "poll_interval", Message: "must be positive", Suggestion: "e.g. 10s"})
	}
	if c.ErrorBackoff <= 0 {
		errs = append(errs, ValidationError{Field: "error_backoff", Message: "must be positive", Suggestion: "e.g. 30s"})
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, ValidationError{Field: "request_timeout", Message: "must be positive", Suggestion: "e.g. 10s"})
	}
	if c.RetryMax < 0 {
		errs = append(errs, ValidationError{Field: "retry_max", Message: "must not be negative", Suggestion: "use 0 to disable retries"})
	}
	return errs
}

// Provider supplies the current configuration. Implementations must be safe
// for concurrent use; the returned value must not be modified.
type Provider interface {
	Config() *Config
}

// Static is a Provider over a fixed config.
type Static struct {
	cfg *Config
}

// NewStatic wraps cfg as a Provider. A nil cfg means Default().
func NewStatic(cfg *Config) *Static {
	if cfg == nil {
		cfg = Default()
	}
	return &Static{cfg: cfg}
}

func (s *Static) Config() *Config { return s.cfg }
