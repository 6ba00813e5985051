package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/dm/nzbinfo-go/internal/model"
)

// EnvPrefix prefixes every environment override, e.g. NZBINFO_POLL_INTERVAL
// or NZBINFO_BACKENDS_SONARR_API_KEY.
const EnvPrefix = "NZBINFO"

// FileName is the config file looked up when no explicit path is given.
const FileName = "nzbinfo.yaml"

// DefaultPath returns $UC_CONFIG_HOME/nzbinfo.yaml, falling back to $HOME
// and then the working directory.
func DefaultPath() string {
	dir := os.Getenv("UC_CONFIG_HOME")
	if dir == "" {
		dir = os.Getenv("HOME")
	}
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, FileName)
}

var backendFields = []string{"host", "port", "ssl", "url_base", "api_key", "username", "password"}

// Loader reads the config file through viper and keeps the latest
// successfully decoded Config. It implements Provider.
type Loader struct {
	v        *viper.Viper
	path     string
	explicit bool

	mu  sync.RWMutex
	cfg *Config
}

// NewLoader creates a loader for path. An empty path means DefaultPath(),
// in which case a missing file is not an error.
func NewLoader(path string) *Loader {
	l := &Loader{v: viper.New(), path: path, explicit: path != "", cfg: Default()}
	if !l.explicit {
		l.path = DefaultPath()
	}

	l.v.SetConfigFile(l.path)
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	d := Default()
	l.v.SetDefault("enabled", []string{})
	l.v.SetDefault("poll_interval", d.PollInterval)
	l.v.SetDefault("error_backoff", d.ErrorBackoff)
	l.v.SetDefault("request_timeout", d.RequestTimeout)
	l.v.SetDefault("retry_max", d.RetryMax)
	l.v.SetDefault("insecure_skip_verify", d.InsecureSkipVerify)
	l.v.SetDefault("listen", d.Listen)
	l.v.SetDefault("log_level", d.LogLevel)
	// Registering every backend key lets AutomaticEnv see per-backend overrides.
	for _, id := range model.AllBackends {
		for _, f := range backendFields {
			l.v.SetDefault("backends."+string(id)+"."+f, nil)
		}
	}
	return l
}

// Path returns the config file path in use.
func (l *Loader) Path() string { return l.path }

// Viper exposes the underlying instance so CLI flags can be bound to keys.
func (l *Loader) Viper() *viper.Viper { return l.v }

// Load reads the file and env overrides. On error the previous config is kept.
func (l *Loader) Load() error {
	if err := l.v.ReadInConfig(); err != nil {
		if l.explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read config %s: %w", l.path, err)
		}
	}
	return l.decode()
}

// Reload re-reads the file and env overrides.
func (l *Loader) Reload() error {
	return l.Load()
}

// Config returns the last successfully loaded config.
func (l *Loader) Config() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cfg
}

// Watch re-decodes the config whenever the file changes and reports the
// outcome to fn. fn may be nil.
func (l *Loader) Watch(fn func(*Config, error)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if e.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			return
		}
		err := l.decode()
		if fn != nil {
			fn(l.Config(), err)
		}
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() error {
	cfg := Default()
	if err := l.v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", l.path, err)
	}
	if cfg.Backends == nil {
		cfg.Backends = map[string]BackendConfig{}
	}
	for k, b := range cfg.Backends {
		b.ID = model.BackendID(k)
		cfg.Backends[k] = b
	}

	l.mu.Lock()
	l.cfg = cfg
	l.mu.Unlock()
	return nil
}
