package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/knowledge"
	"github.com/thyroid-lit-analyzer/internal/service"
)

var rangesKB string

var rangesCmd = &cobra.Command{
	Use:   "ranges",
	Short: "Show the reference ranges in effect",
	Long: `Show the reference ranges the next analysis would classify with: the
knowledge base's ranges over the built-in defaults, or the defaults alone.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := cliLogger()
		if err != nil {
			return err
		}

		kb, err := loadKnowledgeBase(cmd, rangesKB, logger)
		if err != nil {
			return err
		}

		ranges := service.NewAnalyzer(logger, knowledge.NewSnapshot(kb), nil, nil).ReferenceRanges()

		return output(cmd.OutOrStdout(), ranges, func(w io.Writer) error {
			for _, test := range domain.AllTestNames() {
				r, ok := ranges[test]
				if !ok {
					continue
				}
				fmt.Fprintf(w, "%-22s %s\n", test.DisplayName(), r.Describe())
			}
			return nil
		})
	},
}

func init() {
	rangesCmd.Flags().StringVar(&rangesKB, "kb", "", "knowledge base file (default: knowledge_base.path from config)")

	rootCmd.AddCommand(rangesCmd)
}
