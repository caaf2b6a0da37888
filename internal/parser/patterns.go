package parser

import (
	"regexp"
	"strings"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// DrugEffectPrefix marks interfering factors that come from a drug-effects list.
const DrugEffectPrefix = "drug effect: "

type labelKind string

// Field labels of a pattern section, by canonical English name.
const (
	labelCauses       labelKind = "common causes"
	labelInterference labelKind = "interference"
	labelDrugEffects  labelKind = "drug effects"
	labelOther        labelKind = "other possibilities"
	labelEvaluation   labelKind = "evaluation process"
	labelWorkflow     labelKind = "differential workflow"
)

// labelVocabulary lists the spellings each label is recognised by. Matching
// is a case-insensitive substring test on the bold label text.
var labelVocabulary = map[labelKind][]string{
	labelCauses:       {"常見原因", "common causes"},
	labelInterference: {"潛在干擾", "interference"},
	labelDrugEffects:  {"藥物影響", "drug effects"},
	labelOther:        {"其他可能性", "other possibilities"},
	labelEvaluation:   {"評估流程", "evaluation process"},
	labelWorkflow:     {"鑑別診斷流程", "differential workflow"},
}

// labelOrder fixes the lookup order so that overlapping spellings resolve the
// same way every run.
var labelOrder = []labelKind{
	labelWorkflow, labelEvaluation, labelDrugEffects, labelInterference, labelOther, labelCauses,
}

// multiLine labels hold bold condition lines, so their block only ends at a
// heading, another known label or a case marker.
var multiLine = map[labelKind]bool{
	labelEvaluation: true,
	labelWorkflow:   true,
}

var (
	labelLineRe = regexp.MustCompile(`^\*\*([^*]+?)[：:]\s*\*\*\s*(.*)$`)
	caseRe      = regexp.MustCompile(`^\*\*(?:案例[一二三四五六七八九十\d]+|[Cc]ase\s*\d+)\s*[：:]\s*\*\*\s*(.*)$`)
	diagnosisRe = regexp.MustCompile(`^_(?:診斷|[Dd]iagnosis)\s*[：:]\s*_\s*(.*)$`)
)

// patternDefinition maps a documented sub-section to the status combination
// it describes.
type patternDefinition struct {
	Key     string
	Section string
	TSH     domain.LabStatus
	FT4     domain.LabStatus
	// Unsuppressed marks the TSH-unsuppressed pattern, whose status is fixed
	// and whose additional tests come from the differential workflow.
	Unsuppressed bool
}

var patternDefinitions = []patternDefinition{
	{Key: PatternKey(1), Section: "2.2.1", TSH: domain.StatusLow, FT4: domain.StatusHigh},
	{Key: PatternKey(2), Section: "2.2.2", TSH: domain.StatusLow, FT4: domain.StatusNormal},
	{Key: PatternKey(3), Section: "2.2.3", TSH: domain.StatusLow, FT4: domain.StatusLow},
	{Key: PatternKey(4), Section: "2.2.4", TSH: domain.StatusNormal, FT4: domain.StatusNormal},
	{Key: PatternKey(5), Section: "2.2.5", TSH: domain.StatusHigh, FT4: domain.StatusLow},
	{Key: PatternKey(6), Section: "2.2.6", TSH: domain.StatusHigh, FT4: domain.StatusNormal},
	{Key: PatternKey(7), Section: "2.2.7", TSH: domain.StatusUnsuppressed, FT4: domain.StatusHighOrNormal, Unsuppressed: true},
}

// BuildPatterns builds one pattern per documented sub-section, in the fixed
// definition order. Missing sections and labels are reported as misses.
func BuildPatterns(sections Sections) ([]domain.ThyroidPattern, []domain.ExtractionMiss) {
	patterns := []domain.ThyroidPattern{}
	var misses []domain.ExtractionMiss

	for _, def := range patternDefinitions {
		text, ok := sections.Get(def.Key)
		if !ok {
			misses = append(misses, domain.ExtractionMiss{Section: def.Section})
			continue
		}
		pattern, patternMisses := buildPattern(text, def)
		patterns = append(patterns, pattern)
		misses = append(misses, patternMisses...)
	}
	return patterns, misses
}

func buildPattern(text string, def patternDefinition) (domain.ThyroidPattern, []domain.ExtractionMiss) {
	pattern := domain.NewThyroidPattern(def.Section, def.TSH, def.FT4)
	pattern.Notes = sectionTitle(text)

	lines := strings.Split(normalizeNewlines(text), "\n")
	var misses []domain.ExtractionMiss
	miss := func(label labelKind) {
		misses = append(misses, domain.ExtractionMiss{Section: def.Section, Label: string(label)})
	}

	if block, ok := labelBlock(lines, labelCauses); ok {
		pattern.CommonCauses = ExtractListItems(block)
	} else {
		miss(labelCauses)
	}

	if block, ok := labelBlock(lines, labelInterference); ok {
		pattern.InterferingFactors = ExtractNestedItems(block)
	} else {
		miss(labelInterference)
	}

	if block, ok := labelBlock(lines, labelDrugEffects); ok {
		for _, drug := range ExtractListItems(block) {
			pattern.InterferingFactors = append(pattern.InterferingFactors, DrugEffectPrefix+drug)
		}
	}

	if block, ok := labelBlock(lines, labelOther); ok {
		pattern.DifferentialDiagnosis = ExtractNestedItems(block)
	} else {
		miss(labelOther)
	}

	pattern.CaseExamples = extractCases(lines)

	if block, ok := labelBlock(lines, labelEvaluation); ok {
		pattern.Recommendations = ExtractEvaluationSteps(block)
	} else if !def.Unsuppressed {
		miss(labelEvaluation)
	}

	if def.Unsuppressed {
		pattern.TSHStatus = domain.StatusUnsuppressed
		pattern.FT4Status = domain.StatusHighOrNormal
		if block, ok := labelBlock(lines, labelWorkflow); ok {
			pattern.AdditionalTests = ExtractNestedItems(block)
		} else {
			miss(labelWorkflow)
		}
	}

	return pattern, misses
}

// classifyLabel returns the known label a bold label text names, if any.
func classifyLabel(text string) (labelKind, bool) {
	lower := strings.ToLower(text)
	for _, kind := range labelOrder {
		for _, spelling := range labelVocabulary[kind] {
			if strings.Contains(lower, spelling) {
				return kind, true
			}
		}
	}
	return "", false
}

// labelBlock returns the text following the first occurrence of the label.
func labelBlock(lines []string, kind labelKind) (string, bool) {
	for i, line := range lines {
		m := labelLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		if k, ok := classifyLabel(m[1]); !ok || k != kind {
			continue
		}

		block := []string{}
		if rest := strings.TrimSpace(m[2]); rest != "" {
			block = append(block, rest)
		}
		for _, next := range lines[i+1:] {
			if endsBlock(next, kind) {
				break
			}
			block = append(block, next)
		}
		return strings.Join(block, "\n"), true
	}
	return "", false
}

func endsBlock(line string, kind labelKind) bool {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "**") {
		return false
	}
	if !multiLine[kind] {
		return true
	}
	if _, ok := parseHeading(trimmed); ok {
		return true
	}
	if caseRe.MatchString(trimmed) {
		return true
	}
	if m := labelLineRe.FindStringSubmatch(trimmed); m != nil {
		if k, ok := classifyLabel(m[1]); ok && k != kind {
			return true
		}
	}
	return false
}

// extractCases pairs every case marker with the diagnosis line that follows
// it. A case interrupted by another bold line before its diagnosis is dropped.
func extractCases(lines []string) []domain.CaseExample {
	cases := []domain.CaseExample{}
	var description []string
	open := false

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if m := caseRe.FindStringSubmatch(trimmed); m != nil {
			description = nil
			if rest := strings.TrimSpace(m[1]); rest != "" {
				description = append(description, rest)
			}
			open = true
			continue
		}
		if !open {
			continue
		}
		if m := diagnosisRe.FindStringSubmatch(trimmed); m != nil {
			cases = append(cases, domain.CaseExample{
				Description: strings.TrimSpace(strings.Join(description, "\n")),
				Diagnosis:   strings.TrimSpace(m[1]),
			})
			open = false
			continue
		}
		if strings.HasPrefix(trimmed, "**") {
			open = false
			continue
		}
		if trimmed != "" {
			description = append(description, trimmed)
		}
	}
	return cases
}
