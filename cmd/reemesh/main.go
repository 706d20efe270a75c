package main

import (
	"fmt"
	"os"

	"github.com/flywave/go-reemesh/internal/config"
	"github.com/flywave/go-reemesh/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	flags      config.Flags
	cfg        config.Config
	logger     = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:           "reemesh",
	Short:         "Inspect and convert RE Engine mesh and material files",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Config{}
		if configPath != "" {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
		}
		cfg.Resolve(flags)

		l, err := logging.New(cfg.Log)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level: debug|info|warn|error")
	rootCmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "also write JSON logs to this rotating file")

	rootCmd.AddCommand(inspectCmd, materialsCmd, convertCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "reemesh: %v\n", err)
		os.Exit(1)
	}
}
