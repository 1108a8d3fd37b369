package main

import (
	"fmt"
	"os"

	"github.com/okian/talentflow/internal/config"
	"github.com/okian/talentflow/pkg/logger"
	"github.com/spf13/cobra"
)

type cfgKey struct{}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "talentflow",
		Short: "Recruiting pipeline service",
		Long: `Talentflow tracks candidates through the hiring pipeline, collects
interview feedback and mirrors candidate rows to a spreadsheet webhook.`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.InitEnv(cfg.Env); err != nil {
				// Use stderr since the logger isn't available yet
				_, _ = os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
				return err
			}
			// Apply configured log level (fallback to info on invalid input)
			if err := logger.SetLevelString(cfg.LogLevel); err != nil {
				logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
					logger.String("log_level", cfg.LogLevel), logger.Error(err))
				_ = logger.SetLevelString("info")
			}
			cmd.SetContext(withConfig(cmd.Context(), cfg))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			_ = logger.Sync()
		},
	}

	root.AddCommand(
		newServeCmd(),
		newResyncCmd(),
		newBootstrapCmd(),
		newTokenCmd(),
	)
	return root
}
