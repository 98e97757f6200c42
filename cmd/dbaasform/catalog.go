package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbaas/databaseinfra/pkg/formdeps"
)

func (c *cli) newEnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the engines the form offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := c.newClient(c.logger).Engines(cmd.Context())
			if err != nil {
				return fmt.Errorf("list engines: %w", err)
			}
			return c.printOptions(opts)
		},
	}
}

func (c *cli) newPlansCmd() *cobra.Command {
	var engine string
	cmd := &cobra.Command{
		Use:   "plans --engine ID",
		Short: "List the plans offered for an engine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engineID := formdeps.ParseID(engine)
			if engineID.IsNone() {
				return errors.New("--engine must be a positive engine id")
			}
			opts, err := c.newClient(c.logger).PlansForEngine(cmd.Context(), engineID)
			if err != nil {
				return fmt.Errorf("list plans of engine %s: %w", engineID, err)
			}
			return c.printOptions(opts)
		},
	}
	cmd.Flags().StringVar(&engine, "engine", "", "Engine id")
	_ = cmd.MarkFlagRequired("engine")
	return cmd
}

func (c *cli) newEnvironmentsCmd() *cobra.Command {
	var plan string
	cmd := &cobra.Command{
		Use:   "environments --plan ID",
		Short: "List the environments a plan can be deployed to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			planID := formdeps.ParseID(plan)
			if planID.IsNone() {
				return errors.New("--plan must be a positive plan id")
			}
			opts, err := c.newClient(c.logger).EnvironmentsForPlan(cmd.Context(), planID)
			if err != nil {
				return fmt.Errorf("list environments of plan %s: %w", planID, err)
			}
			return c.printOptions(opts)
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", "Plan id")
	_ = cmd.MarkFlagRequired("plan")
	return cmd
}
