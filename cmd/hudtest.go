// File: cmd/hudtest.go
package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/storyhud/storyhud/internal/config"
	"github.com/storyhud/storyhud/internal/observability"
)

// newHUDTestCmd creates the `hudtest` command, which renders a canned story
// on the overlay without touching the mouse, keyboard or the oracle. Useful
// for checking fonts, colors and click-through before a real run.
func newHUDTestCmd() *cobra.Command {
	hudCmd := &cobra.Command{
		Use:   "hudtest",
		Short: "Renders a sample story on the HUD and holds it on screen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewConfigFromViper(viper.GetViper())
			if err != nil {
				return err
			}

			hold, err := cmd.Flags().GetDuration("hold")
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			return runHUDTest(ctx, cfg, hold, observability.GetLogger())
		},
	}

	hudCmd.Flags().Duration("hold", 10*time.Second, "how long to keep the sample HUD on screen")
	return hudCmd
}
