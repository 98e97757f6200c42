package main

import (
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
	"github.com/dbaas/databaseinfra/pkg/formui"
)

func (c *cli) newFormCmd() *cobra.Command {
	var (
		engine, plan, environment, endpoint string
		batch                               bool
	)
	cmd := &cobra.Command{
		Use:   "form",
		Short: "Fill in the database creation form",
		Long: `Fill in the database creation form interactively.

With --batch the form is filled from --engine, --plan, --environment and
--endpoint without a terminal, going through the same option lookups.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if batch {
				sub, err := formui.Fill(cmd.Context(), c.newClient(c.logger), formui.Values{
					Engine:      formdeps.ParseID(engine),
					Plan:        formdeps.ParseID(plan),
					Environment: formdeps.ParseID(environment),
					Endpoint:    endpoint,
				}, c.logger)
				if err != nil {
					return err
				}
				return c.printSubmission(sub)
			}

			// Log records go to the form footer while the screen is taken.
			level := max(c.logLevel(), slog.LevelInfo)
			logs := formui.NewLogHandler(level)
			logger := slog.New(logs)

			sub, err := formui.Run(cmd.Context(), c.newClient(logger), formui.Options{
				Engine: formdeps.ParseID(engine),
				Logger: logger,
			}, logs, tea.WithAltScreen())
			if errors.Is(err, formui.ErrCancelled) {
				fmt.Fprintln(c.errOut, "form cancelled")
				return nil
			}
			if err != nil {
				return err
			}
			return c.printSubmission(sub)
		},
	}
	f := cmd.Flags()
	f.StringVar(&engine, "engine", "", "Engine id to preselect")
	f.BoolVar(&batch, "batch", false, "Fill the form from flags without a terminal")
	f.StringVar(&plan, "plan", "", "Plan id (with --batch)")
	f.StringVar(&environment, "environment", "", "Environment id (with --batch)")
	f.StringVar(&endpoint, "endpoint", "", "Endpoint, ignored for engines without one (with --batch)")
	return cmd
}

func (c *cli) printSubmission(sub formui.Submission) error {
	if c.outputFormat() != "table" {
		return c.printOutput(sub)
	}
	c.printTable([]string{"Field", "Value"}, [][]string{
		{"Engine", sub.Engine.String()},
		{"Plan", sub.Plan.String()},
		{"Environment", sub.Environment.String()},
		{"Endpoint", sub.Endpoint},
	})
	return nil
}
