package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/app"
	"github.com/thyroid-lit-analyzer/internal/knowledge"
)

var (
	ingestOut     string
	ingestArchive string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <document.md>",
	Short: "Parse the interpretation document into a knowledge base",
	Long: `Parse the thyroid function interpretation document and write the
extracted patterns, Q&A pairs and reference ranges as a JSON knowledge base.

Sections or labels the parser expected but did not find are listed so the
document can be fixed; they do not fail the ingestion.

Examples:
  thyroidctl ingest "Thyroid function.md" --out kb.json
  thyroidctl ingest doc.md --out kb.json --archive kb-archive.db`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := cliLogger()
		if err != nil {
			return err
		}

		out := ingestOut
		archivePath := ingestArchive
		if out == "" || archivePath == "" {
			kbCfg, err := knowledgeConfig()
			if err != nil {
				return err
			}
			if out == "" {
				out = kbCfg.Path
			}
			if archivePath == "" {
				archivePath = kbCfg.ArchivePath
			}
		}

		var archive *knowledge.Archive
		if archivePath != "" {
			archive, err = knowledge.NewArchive(archivePath)
			if err != nil {
				return err
			}
			defer archive.Close()
		}

		result, err := app.Ingest(cmd.Context(), logger, args[0], out, archive)
		if err != nil {
			return err
		}

		return output(cmd.OutOrStdout(), result, func(w io.Writer) error {
			fmt.Fprintf(w, "Knowledge base %s written to %s\n", result.Version, result.Output)
			fmt.Fprintf(w, "  patterns:         %d\n", result.Patterns)
			fmt.Fprintf(w, "  Q&A pairs:        %d\n", result.QAPairs)
			fmt.Fprintf(w, "  reference ranges: %d\n", result.Ranges)
			if result.Archived != nil {
				fmt.Fprintf(w, "  archived as #%d\n", result.Archived.ID)
			}
			for _, miss := range result.Misses {
				fmt.Fprintf(w, "  missing: %s\n", miss)
			}
			return nil
		})
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOut, "out", "", "knowledge base output path (default: knowledge_base.path from config)")
	ingestCmd.Flags().StringVar(&ingestArchive, "archive", "", "SQLite archive to record the new version in (default: knowledge_base.archive_path)")

	rootCmd.AddCommand(ingestCmd)
}
