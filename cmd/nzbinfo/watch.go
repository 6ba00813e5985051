package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dm/nzbinfo-go/internal/config"
	"github.com/dm/nzbinfo-go/internal/engine"
	"github.com/dm/nzbinfo-go/internal/log"
	"github.com/dm/nzbinfo-go/internal/tui"
)

func (c *cli) newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Show the now-playing display in the terminal",
		Long: `Polls every enabled application and shows the overview or one
application's status. Use tab and shift+tab (or the arrow keys) to switch
source, r to refresh and q to quit. Logs are discarded unless --log-file is set.`,
		Args: cobra.NoArgs,
		RunE: c.runWatch,
	}
}

func (c *cli) runWatch(cmd *cobra.Command, _ []string) error {
	if err := c.setupLogging(true); err != nil {
		return err
	}

	cfg := c.loader.Config()
	for _, ve := range cfg.Validate() {
		log.Warn().Str("field", ve.Field).Msg(ve.Message)
	}

	session := newSession(cfg)
	defer session.Close()

	agg := engine.NewAggregator(c.loader, session)
	c.loader.Watch(func(cfg *config.Config, err error) {
		if err != nil {
			log.Error().Err(err).Msg("Config reload failed")
			return
		}
		log.Info().Strs("enabled", cfg.Enabled).Msg("Config reloaded")
	})

	p := tea.NewProgram(
		tui.NewApp(agg, cfg.PollInterval),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	_, err := p.Run()
	return err
}
