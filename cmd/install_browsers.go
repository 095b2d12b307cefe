package cmd

import (
	"github.com/spf13/cobra"

	"github.com/jobportal/apiserver/internal/pdf"
)

var installBrowsersCmd = &cobra.Command{
	Use:   "install-browsers",
	Short: "Download the Chromium build used for resume PDF export",
	RunE: func(cmd *cobra.Command, args []string) error {
		return pdf.InstallBrowsers()
	},
}

func init() {
	rootCmd.AddCommand(installBrowsersCmd)
}
