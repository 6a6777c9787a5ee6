// Command studio runs the gift personalisation service and its offline tools.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leeforge/giftstudio/config"
	"github.com/leeforge/giftstudio/env_mode"
	apperrors "github.com/leeforge/giftstudio/errors"
)

// global flags
var (
	configPath string
	envName    string
	verbose    bool
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "studio",
		Short: "Gift studio: overlay editor service and image tools",
		Long: `studio places customer images on gift products.

Run "studio serve" to start the HTTP API, or use the offline tools to compose
a design, place a mug decal or normalise an upload from the command line.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envName != "" {
				env_mode.SetMode(env_mode.ParseEnv(envName))
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config directory (default $STUDIO_CONFIG_PATH or ./config)")
	root.PersistentFlags().StringVar(&envName, "env", "", "environment: development, production or test")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(),
		newComposeCmd(),
		newDecalCmd(),
		newNormalizeCmd(),
	)
	return root
}

// loadConfig reads the layered config; a missing directory yields defaults.
// watch reloads files on change in development mode.
func loadConfig(watch bool) (*config.StudioConfig, *config.Config, error) {
	opts := config.DefaultConfigOptions()
	if watch && env_mode.Mode() == env_mode.DevMode {
		opts = config.DevConfigOptions()
	}
	if configPath != "" {
		opts.BasePath = configPath
	}
	sc, cfg, err := config.Load(opts)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		sc.Logging.Level = "debug"
	}
	return sc, cfg, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperrors.NewErrorFormatter(verbose, true).Format(err))
		os.Exit(1)
	}
}
