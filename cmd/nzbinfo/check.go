package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/dm/nzbinfo-go/internal/display"
	"github.com/dm/nzbinfo-go/internal/engine"
	"github.com/dm/nzbinfo-go/internal/model"
	"github.com/dm/nzbinfo-go/internal/registry"
)

// errNoneReachable is returned by check when no application answered.
var errNoneReachable = errors.New("no application reachable")

func (c *cli) newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the config, probe every application and poll once",
		Long: `Validates the configuration, runs one connectivity probe against each
enabled application, then one full poll, and prints the results as a table.
Exits non-zero when the config is invalid or nothing is reachable.`,
		Args: cobra.NoArgs,
		RunE: c.runCheck,
	}
}

func (c *cli) runCheck(cmd *cobra.Command, _ []string) error {
	if err := c.setupLogging(true); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	cfg := c.loader.Config()

	fmt.Fprintln(out, bold("Validating "+c.loader.Path()+"..."))
	enabled := cfg.EnabledBackends()
	if failed := reportValidation(out, cfg); failed > 0 {
		fmt.Fprintf(out, "\n%d validation errors\n", failed)
		return fmt.Errorf("%d validation errors", failed)
	}
	if len(enabled) == 0 {
		validationErr(out, "enabled", "no applications enabled", "list at least one of: sabnzbd, nzbget, sonarr, radarr, lidarr, readarr, bazarr, overseerr")
		return errors.New("no applications enabled")
	}
	validationOK(out, "config", fmt.Sprintf("%d applications enabled", len(enabled)))

	session := newSession(cfg)
	defer session.Close()
	agg := engine.NewAggregator(c.loader, session)

	fmt.Fprintln(out)
	fmt.Fprintln(out, bold("Probing..."))
	agg.Connect(cmd.Context())
	for _, id := range enabled {
		rec, _ := agg.Status(id)
		if rec.Online {
			validationOK(out, registry.DisplayName(id), cfg.Backend(id).BaseURL())
		} else {
			validationErr(out, registry.DisplayName(id), rec.Secondary, "check host, port and url_base for "+string(id))
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, bold("Polling..."))
	online := agg.PollAll(cmd.Context())
	renderStatusTable(out, enabled, agg.Statuses())

	v := display.Render(model.Overview, display.Snapshot{
		Statuses: agg.Statuses(),
		Online:   online,
		Now:      agg.LastPoll(),
	})
	fmt.Fprintln(out)
	fmt.Fprintln(out, bold(v.Title))
	fmt.Fprintln(out, "  "+v.Primary)

	if !online {
		return errNoneReachable
	}
	return nil
}

// renderStatusTable prints one row per enabled backend.
func renderStatusTable(w io.Writer, enabled []model.BackendID, statuses map[model.BackendID]model.StatusRecord) {
	rows := make([][]string, 0, len(enabled))
	for _, id := range enabled {
		rec := statuses[id]
		state := "offline"
		if rec.Online {
			state = "online"
		}
		rows = append(rows, []string{registry.DisplayName(id), state, rec.Primary, rec.Secondary})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers("APPLICATION", "STATE", "PRIMARY", "SECONDARY").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			if col == 1 && row >= 0 && row < len(rows) {
				if rows[row][1] == "online" {
					return s.Inherit(successStyle)
				}
				return s.Inherit(errorStyle)
			}
			return s
		})
	fmt.Fprintln(w, t.Render())
}
