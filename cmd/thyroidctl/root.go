package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/config"
	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/logging"
)

var (
	cfgFile      string
	outputFormat string
	logLevel     string
)

var rootCmd = &cobra.Command{
	Use:   "thyroidctl",
	Short: "Literature-driven thyroid function analysis",
	Long: `thyroidctl turns a thyroid function interpretation document into a
knowledge base and interprets lab panels against it.

  ingest    parse the document into a knowledge base file
  analyze   interpret a lab panel (falls back to built-in rules without a knowledge base)
  ranges    show the reference ranges in effect
  versions  list or restore archived knowledge bases
  history   export the analysis history
  serve     start the HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setOutputFormat(outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml, ./config/config.yaml or /etc/thyroid-analyzer/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "text", "output format: text, json or yaml",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "warn", "log level for diagnostics written to stderr",
	)
}

func loadConfig() (*config.Manager, error) {
	manager, err := config.NewManagerFromFile(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := manager.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return manager, nil
}

func knowledgeConfig() (domain.KnowledgeBaseConfig, error) {
	manager, err := loadConfig()
	if err != nil {
		return domain.KnowledgeBaseConfig{}, err
	}
	return manager.GetConfig().KnowledgeBase, nil
}

// cliLogger keeps stdout free for command output.
func cliLogger() (*logrus.Logger, error) {
	return logging.New(domain.LoggingConfig{
		Level:  logLevel,
		Format: "text",
		Output: "stderr",
	})
}
