package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	wdclient "github.com/mcoot/wordduel/internal/client"
	"github.com/mcoot/wordduel/internal/protocol"
)

const healthTimeout = 3 * time.Second

var errUnhealthy = errors.New("server is unhealthy")

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the admin API and the game listener",
		Long: `health asks the admin API for its status and opens a connection to the game
listener, which must greet it with a password request. It exits non-zero unless
both answer.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			report := HealthReport{AdminURL: cfg.AdminURL, Admin: "ok", Game: "ok"}

			var result HealthResult
			if err := client.Get("/api/v1/health", &result); err != nil {
				report.Admin = err.Error()
			} else if result.Status != "ok" {
				report.Admin = result.Status
			}

			tc := cfg.Transport()
			if network, addr, err := tc.Address(); err == nil {
				report.GameAddress = network + " " + addr
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
			defer cancel()
			if err := checkGameListener(ctx); err != nil {
				report.Game = err.Error()
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(report)
			if !report.Healthy() {
				return errUnhealthy
			}
			return nil
		},
	}
}

// checkGameListener connects to the game server and waits for its greeting
func checkGameListener(ctx context.Context) error {
	conn, err := wdclient.Dial(ctx, cfg.Transport())
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	type greeting struct {
		msg protocol.Message
		err error
	}
	got := make(chan greeting, 1)
	go func() {
		m, err := conn.Receive()
		got <- greeting{m, err}
	}()

	select {
	case g := <-got:
		if g.err != nil {
			return fmt.Errorf("read greeting: %w", g.err)
		}
		if g.msg.Kind != protocol.KindRequestPassword {
			return fmt.Errorf("unexpected greeting %s", g.msg.Kind)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("no greeting: %w", ctx.Err())
	}
}
