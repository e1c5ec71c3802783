package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	wdclient "github.com/mcoot/wordduel/internal/client"
)

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Connect to the game server and play",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			conn, err := wdclient.Dial(ctx, cfg.Transport())
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			prompter := wdclient.NewTerminalPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			err = wdclient.NewSession(conn, prompter, logger).Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			return err
		},
	}
}
