// File: cmd/run.go
package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/storyhud/storyhud/internal/config"
	"github.com/storyhud/storyhud/internal/observability"
)

// newRunCmd creates and configures the `run` command.
func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [goal]",
		Short: "Drives the desktop toward a goal, narrating progress on the HUD",
		Long: `Run starts the observe/narrate/act loop: the screen is captured, sent to
the configured vision model together with the on-screen story memory, and the
model's chosen action is executed through synthetic input. The story HUD stays
on top of everything and is itself part of every screenshot, so the narration
is the agent's working memory.`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their viper keys so CLI flags override the
			// config file and environment.
			if err := viper.BindPFlag("capture.quality", cmd.Flags().Lookup("quality")); err != nil {
				return err
			}
			if err := viper.BindPFlag("oracle.url", cmd.Flags().Lookup("url")); err != nil {
				return err
			}
			if err := viper.BindPFlag("oracle.model", cmd.Flags().Lookup("model")); err != nil {
				return err
			}
			if err := viper.BindPFlag("agent.dump_enabled", cmd.Flags().Lookup("dump")); err != nil {
				return err
			}
			return viper.BindPFlag("agent.max_steps", cmd.Flags().Lookup("max-steps"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := observability.GetLogger()

			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}
			if len(args) == 1 && args[0] != "" {
				cfg.Agent.Goal = args[0]
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			logger.Info("run starting",
				zap.String("goal", cfg.Agent.Goal),
				zap.String("model", cfg.Oracle.Model),
				zap.Int("quality", cfg.Capture.Quality))

			return runAgent(ctx, cfg, logger)
		},
	}

	runCmd.Flags().IntP("quality", "q", 1, "screenshot quality preset: 1 (1536x864), 2 (1024x576) or 3 (512x288)")
	runCmd.Flags().String("url", "", "OpenAI-compatible chat completions endpoint")
	runCmd.Flags().String("model", "", "model name sent to the endpoint")
	runCmd.Flags().Bool("dump", false, "save each step's screenshot under agent.dump_dir")
	runCmd.Flags().Int("max-steps", 0, "abort after this many steps (0 means no cap)")

	return runCmd
}
