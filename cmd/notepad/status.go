package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notepad"
)

type statusReport struct {
	Version string `json:"version"`
	Config  string `json:"config,omitempty"`
	Service any    `json:"service"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the internal state of the store as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer svc.Close()

		return printJSON(cmd.OutOrStdout(), statusReport{
			Version: strings.TrimSpace(notepad.Version),
			Config:  cfg.Source,
			Service: svc.State(),
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
