package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the configured API version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "notes-api version %s (%s)\n", cfg.Version, cfg.Environment)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
