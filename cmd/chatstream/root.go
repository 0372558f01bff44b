package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kbukum/chatstream/httpclient"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
	"github.com/kbukum/chatstream/playground"
	"github.com/kbukum/chatstream/stream"
	"github.com/kbukum/chatstream/version"
)

const rootLongDesc string = `chatstream talks to a chat playground backend.

Agent runs are streamed: each JSON object of the response is shown as soon
as it arrives, however the bytes are split on the wire.

Configuration is read from config.yml, .env and CHATSTREAM_* variables, for
example CHATSTREAM_PLAYGROUND_BASE_URL or CHATSTREAM_PLAYGROUND_TOKEN.`

// app is the state shared by all commands.
type app struct {
	configFile string
	baseURL    string
	token      string
	agentID    string
	username   string
	password   string
	debug      bool

	cfg      *AppConfig
	log      *logger.Logger
	shutdown func(context.Context) error
	out      io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "chatstream",
		Short:         "Streaming chat playground client",
		Long:          rootLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.out = cmd.OutOrStdout()
			return a.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.shutdown == nil {
				return nil
			}
			return a.shutdown(context.WithoutCancel(cmd.Context()))
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&a.configFile, "config", "c", "", "Config file (default: ./config.yml or the user config dir)")
	flags.StringVar(&a.baseURL, "base-url", "", "Playground backend URL")
	flags.StringVar(&a.token, "token", "", "Bearer token from a previous login")
	flags.StringVarP(&a.agentID, "agent", "a", "", "Agent ID for runs")
	flags.StringVarP(&a.username, "username", "u", "", "Log in as this user before the command")
	flags.StringVarP(&a.password, "password", "p", "", "Password for --username")
	flags.BoolVarP(&a.debug, "debug", "d", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(a),
		newSendCmd(a),
		newSessionsCmd(a),
		newChatsCmd(a),
		newAgentsCmd(a),
		newLoginCmd(a),
		newMockCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// init loads configuration, applies flag overrides and sets up logging
// and telemetry.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configFile)
	if err != nil {
		return err
	}
	if a.baseURL != "" {
		cfg.Playground.BaseURL = a.baseURL
	}
	if a.token != "" {
		cfg.Playground.Token = a.token
	}
	if a.agentID != "" {
		cfg.Playground.AgentID = a.agentID
	}
	if a.debug {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	a.log = logger.Init(cfg.Logging, cfg.Name)

	shutdown, err := observability.Setup(cmd.Context(), cfg.Telemetry, cfg.Name, version.Get().Version)
	if err != nil {
		return err
	}
	a.shutdown = shutdown
	return nil
}

// client builds a playground client, logging in first when --username is
// set and no token is configured.
func (a *app) client(ctx context.Context) (*playground.Client, error) {
	streamOpts, err := a.cfg.Stream.Options()
	if err != nil {
		return nil, err
	}
	metrics, err := observability.NewStreamMetrics(observability.Meter())
	if err != nil {
		a.log.Warn("stream metrics disabled", map[string]interface{}{logger.FieldError: err.Error()})
	}
	streamOpts = append(streamOpts, stream.WithMetrics(metrics))

	c, err := playground.New(a.cfg.Playground,
		playground.WithLogger(a.log),
		playground.WithStreamOptions(streamOpts...),
		playground.WithRetry(*httpclient.DefaultRetryConfig()),
	)
	if err != nil {
		return nil, err
	}
	if a.username != "" && c.Token() == "" {
		if _, err := c.Login(ctx, a.username, a.password); err != nil {
			return nil, fmt.Errorf("login as %s: %w", a.username, err)
		}
	}
	return c, nil
}

func (a *app) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}
