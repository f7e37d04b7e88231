// Package cmd implements the orderenhancer command line tool.
package cmd

import (
	"fmt"
	"os"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "orderenhancer",
	Short: "Order grid and export tooling",
	Long: `orderenhancer works on order exports and the order grid query
without running the HTTP server.

Commands:
  rewrite   - post-process export files in place
  grid-sql  - print the augmented order grid query`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Overload(envFile); err != nil {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
		} else {
			_ = godotenv.Load()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", "", "env file to load (default: ./.env if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// loadConfig reads the configuration without requiring a database and sets
// up logging on stderr.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptionalDatabase()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logging.SetupWriter(os.Stderr, level, cfg.Logging.Format)
	return cfg, nil
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
}
