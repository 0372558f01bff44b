package main

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/chatstream/playground"
)

func newSendCmd(a *app) *cobra.Command {
	var sessionID string
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message without streaming",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			res, err := c.SendMessage(ctx, strings.Join(args, " "), sessionID)
			if err != nil {
				return err
			}
			a.printf("%s%s\n%s%s\n", userPrompt, res.UserMessage.Content, agentPrompt, res.Response)
			a.printf("%s\n", dimStyle.Render("session "+res.SessionID))
			return nil
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session to continue (default: a new one)")
	return cmd
}

func newSessionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List chat sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			sessions, err := c.Sessions(ctx)
			if err != nil {
				return err
			}
			a.printSessions(sessions)
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "new",
			Short: "Create an empty session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				ctx := cmd.Context()
				c, err := a.client(ctx)
				if err != nil {
					return err
				}
				s, err := c.NewSession(ctx)
				if err != nil {
					return err
				}
				a.printf("%s\n", s.SessionID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show <session-id>",
			Short: "Show a session and its messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c, err := a.client(ctx)
				if err != nil {
					return err
				}
				s, err := c.Session(ctx, args[0])
				if err != nil {
					return err
				}
				a.printf("%s %s\n", titleStyle.Render(s.Title), dimStyle.Render(formatUnix(s.CreatedAt)))
				for _, m := range s.Messages {
					a.printMessage(m.Role, m.Content)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <session-id>",
			Short: "Delete a session and its messages",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := cmd.Context()
				c, err := a.client(ctx)
				if err != nil {
					return err
				}
				if err := c.DeleteSession(ctx, args[0]); err != nil {
					return err
				}
				a.printf("deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newChatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chats [session-id]",
		Short: "Print the messages of a session, or all messages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.client(ctx)
			if err != nil {
				return err
			}
			var msgs []playground.ChatMessage
			if len(args) == 1 {
				msgs, err = c.Chats(ctx, args[0])
			} else {
				msgs, err = c.Messages(ctx)
			}
			if err != nil {
				return err
			}
			for _, m := range msgs {
				a.printMessage(m.Role, m.Content)
			}
			return nil
		},
	}
}

func (a *app) printSessions(sessions []playground.SessionEntry) {
	if len(sessions) == 0 {
		a.printf("%s\n", dimStyle.Render("no sessions"))
		return
	}
	for _, s := range sessions {
		a.printf("%s  %s  %s\n", s.SessionID, dimStyle.Render(formatUnix(s.CreatedAt)), s.Title)
	}
}

func (a *app) printMessage(role, content string) {
	prompt := agentPrompt
	if role == playground.RoleUser {
		prompt = userPrompt
	}
	a.printf("%s%s\n", prompt, content)
}

func formatUnix(sec int64) string {
	return time.Unix(sec, 0).UTC().Format("2006-01-02 15:04")
}
