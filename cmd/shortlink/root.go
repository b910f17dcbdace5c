package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// storeFlag overrides STORE_DRIVER when set.
	storeFlag string
)

var rootCmd = &cobra.Command{
	Use:   "shortlink",
	Short: "shortlink - a small URL shortening service",
	Long: `shortlink stores short ids that redirect to target URLs.

Configuration is read from the environment (and from .env when APP_ENV is
development or test). See "shortlink serve --help" for the HTTP surface.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("shortlink version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&storeFlag, "store", "",
		"Store driver: postgres, sqlite, or memory (default: $STORE_DRIVER)")
}

// applyFlagOverrides pushes CLI flags into the environment so that config
// loading and validation see a single source.
func applyFlagOverrides() error {
	if storeFlag != "" {
		if err := os.Setenv("STORE_DRIVER", storeFlag); err != nil {
			return fmt.Errorf("failed to apply --store: %w", err)
		}
	}
	return nil
}
