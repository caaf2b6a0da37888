package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thyroid-lit-analyzer/internal/domain"
	"github.com/thyroid-lit-analyzer/internal/history"
)

var fixtureDoc = filepath.Join("..", "..", "internal", "parser", "testdata", "thyroid_function.md")

// resetFlags restores every flag to its default so commands can be executed
// repeatedly in one process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace([]string{})
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// writeConfig points the knowledge base, archive and history into dir.
func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	content := fmt.Sprintf(`
knowledge_base:
  path: %q
  archive_path: %q
history:
  driver: sqlite
  sqlite_path: %q
`, filepath.Join(dir, "kb.json"), filepath.Join(dir, "archive.db"), filepath.Join(dir, "history.db"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func ingestFixture(t *testing.T, dir string) string {
	t.Helper()
	kbPath := filepath.Join(dir, "kb.json")
	_, err := run(t, "ingest", fixtureDoc, "--out", kbPath, "--archive", filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	return kbPath
}

func TestIngestCommand(t *testing.T) {
	dir := t.TempDir()
	kbPath := filepath.Join(dir, "kb.json")

	out, err := run(t, "ingest", fixtureDoc, "--out", kbPath, "--archive", filepath.Join(dir, "archive.db"), "-o", "json")
	require.NoError(t, err)

	var result struct {
		Version  string `json:"version"`
		Output   string `json:"output"`
		Patterns int    `json:"patterns"`
		Archived *struct {
			Version string `json:"version"`
		} `json:"archived"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result), out)
	assert.Equal(t, kbPath, result.Output)
	assert.Equal(t, 7, result.Patterns)
	require.NotNil(t, result.Archived)
	assert.Equal(t, result.Version, result.Archived.Version)
	assert.FileExists(t, kbPath)
}

func TestIngestCommand_UsesConfiguredPaths(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, "ingest", fixtureDoc, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "written to "+filepath.Join(dir, "kb.json"))
	assert.Contains(t, out, "patterns:         7")
	assert.Contains(t, out, "archived as #1")
}

func TestAnalyzeCommand_Literature(t *testing.T) {
	dir := t.TempDir()
	kbPath := ingestFixture(t, dir)

	out, err := run(t, "analyze", "--kb", kbPath, "--tsh", "0.1", "--ft4", "2.0", "--trab", "5", "-o", "json")
	require.NoError(t, err)

	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Equal(t, domain.ModeLiterature, report.Mode)
	require.NotNil(t, report.Literature)
	assert.Equal(t, "2.2.1", report.Literature.PatternID)
	assert.Len(t, report.LabResults, 3)
}

func TestAnalyzeCommand_PatientContext(t *testing.T) {
	dir := t.TempDir()
	kbPath := ingestFixture(t, dir)

	out, err := run(t, "analyze", "--kb", kbPath, "--tsh", "6.5", "--ft4", "1.2",
		"--age", "70", "--pregnant", "--medication", "biotin", "--bmi", "31", "-o", "json")
	require.NoError(t, err)

	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	require.NotNil(t, report.Literature)
	assert.Len(t, report.Literature.InterferingFactors, 6)
}

func TestAnalyzeCommand_RuleOnlyText(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, "analyze", "--config", cfg, "--tsh", "5.2")
	require.NoError(t, err)
	assert.Contains(t, out, "# Thyroid Function Report")
	assert.Contains(t, out, "**Thyroid status**: Subclinical hypothyroidism")
}

func TestAnalyzeCommand_NarrativeDisabled(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	out, err := run(t, "analyze", "--config", cfg, "--tsh", "5.2", "--narrate", "-o", "json")
	require.NoError(t, err)

	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal([]byte(out), &report), out)
	assert.Empty(t, report.Narrative)
	assert.Equal(t, "narrative provider disabled", report.NarrativeError)

	out, err = run(t, "analyze", "--config", cfg, "--tsh", "5.2", "--narrate")
	require.NoError(t, err)
	assert.Contains(t, out, "(narrative unavailable: narrative provider disabled)")
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "analyze", "--kb", filepath.Join(dir, "missing.json"), "--tsh", "5.2")
	assert.Error(t, err)

	_, err = run(t, "analyze", "--config", writeConfig(t, dir))
	var validationErr *domain.ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, err = run(t, "analyze", "--tsh", "5.2", "-o", "xml")
	assert.EqualError(t, err, "unknown output format: xml")
}

func TestRangesCommand(t *testing.T) {
	dir := t.TempDir()
	kbPath := ingestFixture(t, dir)

	out, err := run(t, "ranges", "--kb", kbPath, "-o", "yaml")
	require.NoError(t, err)

	var ranges map[string]map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &ranges), out)
	require.Contains(t, ranges, "TSH")
	assert.Equal(t, 0.4, ranges["TSH"]["min"])
	assert.EqualValues(t, 4, ranges["TSH"]["max"])
	assert.Len(t, ranges, len(domain.AllTestNames()))

	out, err = run(t, "ranges", "--kb", kbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Free T4")
}

func TestVersionsCommands(t *testing.T) {
	dir := t.TempDir()
	ingestFixture(t, dir)
	archive := filepath.Join(dir, "archive.db")

	out, err := run(t, "versions", "--archive", archive, "-o", "json")
	require.NoError(t, err)

	var versions []struct {
		Version      string `json:"version"`
		PatternCount int    `json:"pattern_count"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &versions), out)
	require.Len(t, versions, 1)
	assert.Equal(t, 7, versions[0].PatternCount)

	restored := filepath.Join(dir, "restored.json")
	out, err = run(t, "versions", "restore", versions[0].Version, "--archive", archive, "--out", restored)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored knowledge base "+versions[0].Version)
	assert.FileExists(t, restored)

	_, err = run(t, "versions", "restore", "nope", "--archive", archive, "--out", restored)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHistoryExportCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfig(t, dir)

	store, err := history.NewSQLiteStore(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), &history.Record{
		CorrelationID: "cli-1",
		Mode:          domain.ModeRuleBased,
		LabData:       map[domain.TestName]float64{domain.TSH: 5.2},
		ThyroidStatus: string(domain.SubclinicalHypo),
		Confidence:    0.65,
	}))
	require.NoError(t, store.Close())

	out, err := run(t, "history", "export", "--config", cfg)
	require.NoError(t, err)

	var export history.Export
	require.NoError(t, json.Unmarshal([]byte(out), &export), out)
	assert.Equal(t, 1, export.Count)
	require.Len(t, export.Records, 1)
	assert.Equal(t, "cli-1", export.Records[0].CorrelationID)
}
