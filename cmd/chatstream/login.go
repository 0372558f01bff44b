package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and print the bearer token",
		Long: `Log in and print the bearer token.

Export it as CHATSTREAM_PLAYGROUND_TOKEN or pass it with --token to use it
in later commands.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a.username = ""
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			tok, err := c.Login(ctx, args[0], a.password)
			if err != nil {
				return err
			}
			a.printf("%s\n", tok.AccessToken)
			a.log.Info("logged in", map[string]interface{}{"role": tok.Role, "location": tok.Location})
			if tok.Description != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(tok.Description))
			}
			return nil
		},
	}
}
