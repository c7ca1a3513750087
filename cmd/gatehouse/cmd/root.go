package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "gatehouse",
	Short: "Gatehouse is a single-admin authentication gateway",
	Long: `An authentication and session gateway for single-tenant services
protected by one administrative password: credential storage, session
lifecycle, CSRF defense, login throttling, and request gating.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
