package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dm/nzbinfo-go/internal/config"
)

// configView is the YAML shape printed by "nzbinfo config". Durations are
// rendered as strings so the output can be pasted back into a config file.
type configView struct {
	Enabled            []string                        `yaml:"enabled"`
	Backends           map[string]config.BackendConfig `yaml:"backends,omitempty"`
	PollInterval       string                          `yaml:"poll_interval"`
	ErrorBackoff       string                          `yaml:"error_backoff"`
	RequestTimeout     string                          `yaml:"request_timeout"`
	RetryMax           int                             `yaml:"retry_max"`
	InsecureSkipVerify bool                            `yaml:"insecure_skip_verify"`
	Listen             string                          `yaml:"listen"`
	LogLevel           string                          `yaml:"log_level"`
}

func newConfigView(cfg *config.Config) configView {
	enabled := cfg.Enabled
	if enabled == nil {
		enabled = []string{}
	}
	return configView{
		Enabled:            enabled,
		Backends:           cfg.Backends,
		PollInterval:       cfg.PollInterval.String(),
		ErrorBackoff:       cfg.ErrorBackoff.String(),
		RequestTimeout:     cfg.RequestTimeout.String(),
		RetryMax:           cfg.RetryMax,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Listen:             cfg.Listen,
		LogLevel:           cfg.LogLevel,
	}
}

func (c *cli) newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeConfig(cmd.OutOrStdout(), c.loader.Path(), c.loader.Config())
		},
	}
}

func writeConfig(w io.Writer, path string, cfg *config.Config) error {
	fmt.Fprintf(w, "# %s\n", path)
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newConfigView(cfg.Redacted())); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
