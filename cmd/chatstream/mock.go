package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/chatstream/internal/mockserver"
	"github.com/kbukum/chatstream/logger"
	"github.com/kbukum/chatstream/observability"
)

func newMockCmd(a *app) *cobra.Command {
	var (
		port       int
		chunkBytes int
		chunkDelay time.Duration
		seed       bool
	)
	cmd := &cobra.Command{
		Use:   "mock",
		Short: "Run an in-memory playground backend",
		Long: `Run an in-memory playground backend.

It serves the playground routes with the default users (manager/manager123,
finance/finance123, operations/operations123, planner/planner123) and an
echo agent whose runs are streamed in chunks of --chunk-bytes bytes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg.Mock
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if cmd.Flags().Changed("chunk-bytes") {
				cfg.ChunkBytes = chunkBytes
			}
			if cmd.Flags().Changed("chunk-delay") {
				cfg.ChunkDelay = chunkDelay
			}
			cfg.SeedUsers = seed

			var opts []mockserver.Option
			if m, err := observability.NewRequestMetrics(observability.Meter()); err == nil {
				opts = append(opts, mockserver.WithRequestMetrics(m))
			}
			srv, err := mockserver.New(cfg, a.log, opts...)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := srv.Start(ctx); err != nil {
				return err
			}
			a.log.Info("mock playground ready", map[string]interface{}{
				logger.FieldURL: "http://" + srv.Addr(),
				"chunk_bytes":   cfg.ChunkBytes,
			})
			<-ctx.Done()

			stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return srv.Stop(stopCtx)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8000, "Listen port")
	cmd.Flags().IntVar(&chunkBytes, "chunk-bytes", 7, "Bytes per streamed write, 0 for whole objects")
	cmd.Flags().DurationVar(&chunkDelay, "chunk-delay", 20*time.Millisecond, "Pause between streamed writes")
	cmd.Flags().BoolVar(&seed, "seed", true, "Add the default users")
	return cmd
}
