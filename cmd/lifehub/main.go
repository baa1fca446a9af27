package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"lifehub/internal/config"
	"lifehub/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Logger
	logger *zap.Logger
)

const version = "0.3.0"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "lifehub",
	Short: "lifehub - conversational action engine",
	Long: `lifehub is the assistant core of the lifehub lifestyle app.

It turns free-text input into structured intents and executable actions
across the finance, fitness, marketplace, travel, social, and chat modules.

Run "lifehub chat" to start an interactive session.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg = zap.NewDevelopmentConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.Initialize(logger)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lifehub version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lifehub %s\n", version)
	},
}

func loadConfig() (*config.Config, error) {
	return config.Load(configPath)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "lifehub.yaml", "path to config file")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(advisoryCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
