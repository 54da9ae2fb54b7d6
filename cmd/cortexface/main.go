// Command cortexface drives avatar face channels from streamed emotion scores.
package main

import (
	"fmt"
	"os"

	"github.com/normanking/cortexface/internal/config"
	"github.com/normanking/cortexface/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

type globalFlags struct {
	configPath string
	logLevel   string
	jsonLogs   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "cortexface",
		Short: "Emotion-driven facial expression engine",
		Long: `cortexface turns emotion scores from a sentiment backend into smoothly
animated facial action units, with blinking and breathing layered on top,
and drives an avatar's blendshapes from them.`,
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file (default ~/.cortexface/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level")
	rootCmd.PersistentFlags().BoolVar(&flags.jsonLogs, "json-logs", false, "write JSON log lines instead of console output")

	rootCmd.AddCommand(newRunCmd(flags), newDemoCmd(flags), newChannelsCmd(flags))
	return rootCmd
}

// setup loads configuration and builds the root logger.
func setup(flags *globalFlags) (*config.Loader, *config.Config, *logging.Logger, error) {
	loader := config.NewLoader(flags.configPath, zerolog.Nop())
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	lc := logging.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console && !flags.jsonLogs,
		File:    cfg.Logging.File,
	}
	if flags.logLevel != "" {
		lc.Level = flags.logLevel
	}
	logger, err := logging.New(lc)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}

	loader.SetLogger(logger.Zerolog())
	if file := loader.File(); file != "" {
		cl := logger.Component("config")
		cl.Info().Str("file", file).Msg("Config loaded")
	}
	return loader, cfg, logger, nil
}
