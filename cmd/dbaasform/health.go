package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *cli) newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health and readiness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := c.newClient(c.logger)

			healthResp, err := client.Health(cmd.Context())
			if err != nil {
				return fmt.Errorf("server unreachable: %w", err)
			}

			readyResp, err := client.Ready(cmd.Context())
			if err != nil {
				// The server may still be connecting to its database.
				readyResp = map[string]any{"status": "not ready", "error": err.Error()}
			}

			if c.outputFormat() != "table" {
				return c.printOutput(map[string]any{
					"health":    healthResp,
					"readiness": readyResp,
				})
			}

			status, _ := healthResp["status"].(string)
			ready, _ := readyResp["status"].(string)
			c.printTable([]string{"Check", "Status"}, [][]string{
				{"Liveness", status},
				{"Readiness", ready},
			})
			return nil
		},
	}
}
