package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newAgentsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "agents",
		Short: "Check the playground and list its agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			status, err := c.Status(ctx)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("playground at %s is not available (status %d)", a.cfg.Playground.BaseURL, status)
			}
			agents, err := c.ComboboxAgents(ctx)
			if err != nil {
				return err
			}
			for _, ag := range agents {
				a.printf("%s  %s  %s\n", titleStyle.Render(ag.Value), ag.Label, dimStyle.Render(ag.Model.Provider))
			}
			return nil
		},
	}
}
