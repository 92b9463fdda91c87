// Package main provides the gltp-records command line: one-shot aggregation of a
// records document and the long-running leaderboard service.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/yourusername/gltp-records/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "gltp-records",
	Short: "Gravity time-trial leaderboards",
	Long: `Aggregates gravity map time-trial records into ranked leaderboards,
per-map world records and per-map record indexes.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "gltp-records %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for one-shot commands")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(newAggregateCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
}

// cliLogger logs to stderr so command output stays machine readable
func cliLogger() *logrus.Logger {
	log := logger.NewLogger(logLevel)
	log.SetOutput(os.Stderr)
	return log
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
