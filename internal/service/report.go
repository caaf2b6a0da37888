package service

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// RenderRuleReport renders a rule-based diagnosis as markdown. The output
// depends only on its inputs.
func RenderRuleReport(result *domain.DiagnosisResult, labData map[domain.TestName]float64, ranges domain.ReferenceRanges) string {
	var b strings.Builder

	b.WriteString("# Thyroid Function Report\n\n")
	writeLabSection(&b, BuildLabResults(labData, ranges))

	b.WriteString("## Diagnosis\n")
	fmt.Fprintf(&b, "**Thyroid status**: %s\n", result.ThyroidStatus.DisplayName())
	fmt.Fprintf(&b, "**Confidence**: %s\n\n", percent(result.Confidence))

	b.WriteString("## Differential Diagnosis\n")
	for _, d := range result.DifferentialDiagnosis {
		fmt.Fprintf(&b, "- %s (likelihood: %s)\n", d.Label, percent(d.Score))
	}
	b.WriteString("\n")

	writeList(&b, "Recommendations", result.Recommendations, true)
	writeList(&b, "Suggested Additional Tests", result.AdditionalTests, false)

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// RenderLiteratureReport renders a literature-based diagnosis as markdown.
func RenderLiteratureReport(diagnosis *domain.LiteratureDiagnosis, labData map[domain.TestName]float64, ranges domain.ReferenceRanges) string {
	var b strings.Builder

	b.WriteString("# Literature-Based Thyroid Function Report\n\n")
	writeLabSection(&b, BuildLabResults(labData, ranges))

	b.WriteString("## Pattern Match\n")
	fmt.Fprintf(&b, "**Lab pattern**: %s\n", diagnosis.PatternMatch)
	if diagnosis.PatternID != "" {
		fmt.Fprintf(&b, "**Literature section**: %s\n", diagnosis.PatternID)
	}
	b.WriteString("\n")

	writeList(&b, "Common Causes", diagnosis.CommonCauses, true)

	b.WriteString("## Differential Diagnosis\n")
	for _, d := range diagnosis.DifferentialDiagnosis {
		fmt.Fprintf(&b, "- %s (relevance: %s)\n", d.Label, percent(d.Score))
	}
	b.WriteString("\n")

	writeList(&b, "Potential Interfering Factors", diagnosis.InterferingFactors, false)
	writeList(&b, "Recommendations", diagnosis.Recommendations, true)
	writeList(&b, "Suggested Additional Tests", diagnosis.AdditionalTests, false)

	b.WriteString("## Confidence\n")
	fmt.Fprintf(&b, "%s\n\n", percent(diagnosis.Confidence))

	writeList(&b, "References", diagnosis.SupportingLiterature, true)

	if diagnosis.SpecialNotes != "" {
		b.WriteString("## Related Q&A\n")
		b.WriteString(diagnosis.SpecialNotes)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func writeLabSection(b *strings.Builder, results []domain.LabResult) {
	b.WriteString("## Lab Results\n")
	for _, r := range results {
		fmt.Fprintf(b, "- **%s**: %s %s (%s; reference %s)\n",
			r.Name.DisplayName(), formatValue(r.Value), r.Unit, r.Status, r.ReferenceRange)
	}
	b.WriteString("\n")
}

// writeList writes a bulleted section. Empty optional sections are omitted.
func writeList(b *strings.Builder, title string, items []string, always bool) {
	if len(items) == 0 && !always {
		return
	}
	fmt.Fprintf(b, "## %s\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func percent(f float64) string {
	return strconv.Itoa(int(math.Round(f*100))) + "%"
}

func formatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
