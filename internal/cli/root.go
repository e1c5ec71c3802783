package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "wordduel",
		Short: "Client for the word duel server",
		Long: `wordduel plays word duels against other players connected to the same server,
and inspects a running server through its admin API.

Use "wordduel play" to join a server over its unix socket or TCP port.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.AdminURL, cfg.AdminToken)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.Network, "network", cfg.Network, "Game server network: unix, tcp (env: WORDDUEL_NETWORK)")
	rootCmd.PersistentFlags().StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "Game server socket path (env: WORDDUEL_SOCKET_PATH)")
	rootCmd.PersistentFlags().StringVar(&cfg.Host, "host", cfg.Host, "Game server host (env: WORDDUEL_HOST)")
	rootCmd.PersistentFlags().IntVar(&cfg.Port, "port", cfg.Port, "Game server port (env: WORDDUEL_PORT)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminURL, "admin-url", cfg.AdminURL, "Admin API URL (env: WORDDUEL_ADMIN_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminToken, "admin-token", cfg.AdminToken, "Admin API token (env: WORDDUEL_ADMIN_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newPlayersCmd())
	rootCmd.AddCommand(newMatchesCmd())
	rootCmd.AddCommand(newResultsCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		NewOutput(cfg.Output, os.Stdout).PrintError(err)
		os.Exit(1)
	}
}
