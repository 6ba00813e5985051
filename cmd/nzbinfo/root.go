package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dm/nzbinfo-go/internal/client"
	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/log"
)

// cli carries state shared by every subcommand.
type cli struct {
	configPath string
	logLevel   string
	logFile    string

	loader  *config.Loader
	logSink io.Closer
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "nzbinfo",
		Short: "Now-playing status for your usenet and media automation stack",
		Long: `nzbinfo polls SABnzbd, NZBGet, Sonarr, Radarr, Lidarr, Readarr, Bazarr
and Overseerr and condenses each one into a two-line status.

Without a subcommand it runs the terminal display (same as "nzbinfo watch").`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.load,
		PersistentPostRun: func(*cobra.Command, []string) { c.closeLog() },
		RunE:              c.runWatch,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&c.configPath, "config", "c", "", "config file (default: $UC_CONFIG_HOME/"+config.FileName+")")
	pf.StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&c.logFile, "log-file", "", "write logs to this file")

	root.AddCommand(
		c.newWatchCmd(),
		c.newServeCmd(),
		c.newCheckCmd(),
		c.newConfigCmd(),
	)
	return root
}

// load reads the config file and binds flags that override config keys.
func (c *cli) load(cmd *cobra.Command, _ []string) error {
	c.loader = config.NewLoader(c.configPath)
	v := c.loader.Viper()
	if err := v.BindPFlag("log_level", cmd.Flags().Lookup("log-level")); err != nil {
		return err
	}
	if f := cmd.Flags().Lookup("listen"); f != nil {
		if err := v.BindPFlag("listen", f); err != nil {
			return err
		}
	}
	if err := c.loader.Load(); err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), formatError("Failed to load config", err.Error(),
			"check the YAML syntax or pass --config with an existing file"))
		return err
	}
	return nil
}

// setupLogging directs logs to --log-file when given, otherwise to stderr.
// With quiet set and no --log-file, logs are discarded.
func (c *cli) setupLogging(quiet bool) error {
	level := c.loader.Config().LogLevel
	if c.logFile != "" {
		f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		c.logSink = f
		return log.Setup(f, level)
	}
	if quiet {
		log.Discard()
		return nil
	}
	return log.Setup(os.Stderr, level)
}

func (c *cli) closeLog() {
	if c.logSink != nil {
		_ = c.logSink.Close()
		c.logSink = nil
	}
}

// newSession builds the shared HTTP session from the current config.
func newSession(cfg *config.Config) *client.Session {
	return client.NewSession(client.Options{
		Timeout:            cfg.RequestTimeout,
		RetryMax:           cfg.RetryMax,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
}

// reportValidation writes every validation problem and returns how many
// there were.
func reportValidation(w io.Writer, cfg *config.Config) int {
	errs := cfg.Validate()
	for _, ve := range errs {
		validationErr(w, ve.Field, ve.Message, ve.Suggestion)
	}
	return len(errs)
}
