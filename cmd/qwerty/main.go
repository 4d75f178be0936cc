package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/cetteup/qwerty-client/internal/app"
	"github.com/cetteup/qwerty-client/internal/config"
)

func main() {
	flags := app.Flags{}

	cmd := &cobra.Command{
		Use:           "qwerty",
		Short:         "0xQWERTY - an in-game keyboard for your viewers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg := config.Load()
			config.SetupLogging(cfg.Server.LogLevel)
			if code := app.Run(cfg, flags); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.ConfigPath, "config", "c", "config.yaml", "path to the client config file")
	cmd.Flags().BoolVar(&flags.AutoFulfill, "auto-fulfill", false,
		"automatically mark redemptions as fulfilled if game window is active")
	cmd.Flags().BoolVar(&flags.Refund, "refund", false,
		"cancel and refund all redemptions regardless of whether action was taken")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
