package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/history"
)

var historyOut string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect the analysis history",
}

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the analysis history as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := history.Open(manager.GetConfig().History)
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("analysis history is disabled (history.driver = none)")
		}
		defer store.Close()

		var w io.Writer = cmd.OutOrStdout()
		if historyOut != "" {
			f, err := os.Create(historyOut)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()
			w = f
		}

		return store.ExportJSON(cmd.Context(), w)
	},
}

func init() {
	historyExportCmd.Flags().StringVar(&historyOut, "out", "", "write the export to a file instead of stdout")

	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
