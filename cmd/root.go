package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jobportal/apiserver/config"
)

var rootCmd = &cobra.Command{
	Use:   "jobportal",
	Short: "Job portal backend",
	Long: `Job portal backend: job listings, applications, resumes and realtime chat.

	jobportal server
	jobportal migrate up
`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger: JSON in production, text in development.
func newLogger(cfg config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.New(handler)
}
