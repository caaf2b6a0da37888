package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/knowledge"
	"github.com/thyroid-lit-analyzer/internal/service"
	"github.com/thyroid-lit-analyzer/pkg/external"
)

var (
	analyzeKB      string
	analyzeNarrate bool
)

var analyzeFlags struct {
	tsh, ft4, ft3, antiTPO, antiTg, trab float64
	symptoms, medications                []string
	pregnant                             bool
	age                                  int
	bmi                                  float64
	gender                               string
	question                             string
}

// labFlags maps each lab flag to the test it sets.
var labFlags = []struct {
	name  string
	test  domain.TestName
	value *float64
}{
	{"tsh", domain.TSH, &analyzeFlags.tsh},
	{"ft4", domain.FreeT4, &analyzeFlags.ft4},
	{"ft3", domain.FreeT3, &analyzeFlags.ft3},
	{"anti-tpo", domain.AntiTPO, &analyzeFlags.antiTPO},
	{"anti-tg", domain.AntiTg, &analyzeFlags.antiTg},
	{"trab", domain.TSHReceptorAb, &analyzeFlags.trab},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Interpret a thyroid lab panel",
	Long: `Interpret a thyroid lab panel against the knowledge base. Without a
knowledge base the built-in rule engine is used.

Examples:
  thyroidctl analyze --kb kb.json --tsh 0.1 --ft4 2.0 --trab 5
  thyroidctl analyze --tsh 5.2 -o json
  thyroidctl analyze --kb kb.json --tsh 6.5 --ft4 1.2 --age 70 --pregnant --medication biotin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := cliLogger()
		if err != nil {
			return err
		}

		kb, err := loadKnowledgeBase(cmd, analyzeKB, logger)
		if err != nil {
			return err
		}

		var narrator domain.NarrativeProvider
		if analyzeNarrate {
			narrator, err = cliNarrator(cmd.Context(), logger)
			if err != nil {
				return err
			}
		}

		req := buildAnalysisRequest(cmd)
		analyzer := service.NewAnalyzer(logger, knowledge.NewSnapshot(kb), narrator, nil)
		report, err := analyzer.Analyze(cmd.Context(), req)
		if err != nil {
			return err
		}

		return output(cmd.OutOrStdout(), report, func(w io.Writer) error {
			fmt.Fprint(w, report.Report)
			switch {
			case report.Narrative != "":
				fmt.Fprintf(w, "\n## Narrative\n%s\n", report.Narrative)
			case report.NarrativeError != "":
				fmt.Fprintf(w, "\n(narrative unavailable: %s)\n", report.NarrativeError)
			}
			return nil
		})
	},
}

func buildAnalysisRequest(cmd *cobra.Command) *domain.AnalysisRequest {
	req := &domain.AnalysisRequest{
		LabData:  map[domain.TestName]float64{},
		Symptoms: analyzeFlags.symptoms,
		Patient: domain.PatientContext{
			Gender:      analyzeFlags.gender,
			Pregnancy:   analyzeFlags.pregnant,
			Medications: analyzeFlags.medications,
		},
		Question: analyzeFlags.question,
	}

	for _, lab := range labFlags {
		if cmd.Flags().Changed(lab.name) {
			req.LabData[lab.test] = *lab.value
		}
	}
	if cmd.Flags().Changed("age") {
		req.Patient.Age = domain.Int(analyzeFlags.age)
	}
	if cmd.Flags().Changed("bmi") {
		req.Patient.BMI = domain.Float(analyzeFlags.bmi)
	}
	return req
}

// loadKnowledgeBase reads path, or the configured knowledge base when path is
// empty. A missing default file means rule-only analysis; a missing explicit
// file is an error.
func loadKnowledgeBase(cmd *cobra.Command, path string, logger *logrus.Logger) (*domain.KnowledgeBase, error) {
	explicit := cmd.Flags().Changed("kb")
	if !explicit {
		kbCfg, err := knowledgeConfig()
		if err != nil {
			return nil, err
		}
		path = kbCfg.Path
	}

	if _, err := os.Stat(path); err != nil && !explicit {
		logger.WithField("path", path).Info("No knowledge base found, using rule-only analysis")
		return nil, nil
	}

	kb, err := knowledge.Load(path)
	if err != nil {
		return nil, err
	}
	return kb, nil
}

// cliNarrator builds the configured narrative provider, or one that reports
// the narrative as disabled.
func cliNarrator(ctx context.Context, logger *logrus.Logger) (domain.NarrativeProvider, error) {
	manager, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg := manager.GetConfig()
	if !cfg.Narrative.Enabled {
		return external.DisabledNarrator{}, nil
	}

	provider, err := external.NewOpenAINarrator(ctx, cfg.Narrative, logger)
	if err != nil {
		return nil, err
	}
	cache, err := external.NewNarrativeCache(cfg.Cache)
	if err != nil {
		logger.WithError(err).Warn("Narrative cache unavailable")
		return provider, nil
	}
	return external.NewCachedNarrator(cache, provider, logger), nil
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeKB, "kb", "", "knowledge base file (default: knowledge_base.path from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNarrate, "narrate", false, "ask the configured narrative provider for a plain-language summary")

	analyzeCmd.Flags().Float64Var(&analyzeFlags.tsh, "tsh", 0, "TSH (μIU/mL)")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.ft4, "ft4", 0, "Free T4 (ng/dL)")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.ft3, "ft3", 0, "Free T3 (pg/mL)")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.antiTPO, "anti-tpo", 0, "Anti-TPO antibody (IU/mL)")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.antiTg, "anti-tg", 0, "Anti-Tg antibody (IU/mL)")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.trab, "trab", 0, "TSH receptor antibody (IU/L)")

	analyzeCmd.Flags().StringSliceVar(&analyzeFlags.symptoms, "symptom", nil, "reported symptom (repeatable)")
	analyzeCmd.Flags().StringSliceVar(&analyzeFlags.medications, "medication", nil, "current medication (repeatable)")
	analyzeCmd.Flags().BoolVar(&analyzeFlags.pregnant, "pregnant", false, "patient is pregnant")
	analyzeCmd.Flags().IntVar(&analyzeFlags.age, "age", 0, "patient age in years")
	analyzeCmd.Flags().Float64Var(&analyzeFlags.bmi, "bmi", 0, "patient body mass index")
	analyzeCmd.Flags().StringVar(&analyzeFlags.gender, "gender", "", "patient gender")
	analyzeCmd.Flags().StringVar(&analyzeFlags.question, "question", "", "question for the narrative provider")

	rootCmd.AddCommand(analyzeCmd)
}
