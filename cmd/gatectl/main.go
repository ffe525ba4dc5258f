package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/devricklin/smart-listener/internal/conf"
)

var (
	configPath string
	jsonOutput bool

	cfg *conf.Config
)

func defaultConfigPath() string {
	return os.Getenv("LISTENER_CONFIG")
}

var rootCmd = &cobra.Command{
	Use:           "gatectl",
	Short:         "Inspect and exercise the smart listener relevance gate",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		_ = godotenv.Load()

		var err error
		cfg, err = conf.Load(configPath)
		if err != nil {
			return err
		}
		logLevel := "warn"
		if os.Getenv("LOG_LEVEL") != "" {
			logLevel = cfg.Log.Level
		}
		conf.SetupLogging(conf.LogConfig{Level: logLevel, Console: true})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath(), "path to listener.yaml")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddCommand(judgeCmd)
	rootCmd.AddCommand(judgmentsCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
