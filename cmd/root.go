package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/knowns/knowns/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "knowns",
	Short: "knowns - project knowledge manager",
	Long: `knowns manages a project's imported knowledge: it pulls external
content (git repositories, npm packages, or local directories) into a
managed local copy under .knowns/, remembers where each file came from,
and re-syncs later without clobbering your edits.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logging.SetDefault(logging.New(logging.Options{Level: level}))
	},
}

func init() {
	rootCmd.PersistentFlags().String("project", "", "project root (default: current directory)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")

	viper.SetEnvPrefix("KNOWNS")
	viper.AutomaticEnv()
	_ = viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// projectRoot resolves the project directory from the --project flag, the
// KNOWNS_PROJECT environment variable, or the current directory.
func projectRoot() (string, error) {
	if p := viper.GetString("project"); p != "" {
		return p, nil
	}
	return os.Getwd()
}

func Execute() error {
	// Silence usage and errors to avoid cluttering output with Cobra defaults
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	return rootCmd.Execute()
}
