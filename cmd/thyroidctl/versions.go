package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/knowledge"
)

var (
	versionsArchive string
	versionsLimit   int
	restoreOut      string
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List archived knowledge base versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		versions, err := archive.ListVersions(cmd.Context(), versionsLimit)
		if err != nil {
			return err
		}

		return output(cmd.OutOrStdout(), versions, func(w io.Writer) error {
			if len(versions) == 0 {
				fmt.Fprintln(w, "No archived versions")
				return nil
			}
			for _, v := range versions {
				fmt.Fprintf(w, "#%-4d %-14s %-24s patterns=%d qa=%d archived=%s\n",
					v.ID, v.Version, v.Source, v.PatternCount, v.QACount, v.ArchivedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		})
	},
}

var restoreCmd = &cobra.Command{
	Use:   "restore <version>",
	Short: "Write an archived version back as the active knowledge base",
	Long: `Write an archived knowledge base version to the knowledge base path. A
running server with watching enabled picks the change up automatically.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		archive, err := openArchive()
		if err != nil {
			return err
		}
		defer archive.Close()

		kb, err := archive.Get(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("version %s: %w", args[0], err)
		}

		out := restoreOut
		if out == "" {
			kbCfg, err := knowledgeConfig()
			if err != nil {
				return err
			}
			out = kbCfg.Path
		}
		if err := knowledge.Save(kb, out); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Restored knowledge base %s to %s\n", kb.Version, out)
		return nil
	},
}

func openArchive() (*knowledge.Archive, error) {
	path := versionsArchive
	if path == "" {
		kbCfg, err := knowledgeConfig()
		if err != nil {
			return nil, err
		}
		path = kbCfg.ArchivePath
	}
	if path == "" {
		return nil, fmt.Errorf("no archive configured: pass --archive or set knowledge_base.archive_path")
	}
	return knowledge.NewArchive(path)
}

func init() {
	versionsCmd.PersistentFlags().StringVar(&versionsArchive, "archive", "", "SQLite archive (default: knowledge_base.archive_path)")
	versionsCmd.Flags().IntVar(&versionsLimit, "limit", 20, "maximum number of versions to list")
	restoreCmd.Flags().StringVar(&restoreOut, "out", "", "knowledge base path to write (default: knowledge_base.path)")

	versionsCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(versionsCmd)
}
