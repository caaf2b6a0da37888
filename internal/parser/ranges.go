package parser

import (
	"regexp"
	"strconv"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

// rangeRule recognises the reference interval of one test. Two-sided rules
// capture min and max; one-sided rules capture the upper threshold.
type rangeRule struct {
	Test     domain.TestName
	Unit     string
	TwoSided bool
	Patterns []*regexp.Regexp
}

var rangeRules = []rangeRule{
	{
		Test: domain.TSH, Unit: "μIU/mL", TwoSided: true,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`TSH[^0-9]*([0-9.]+)[^0-9]+([0-9.]+)\s*μIU/mL`)},
	},
	{
		Test: domain.FreeT4, Unit: "ng/dL", TwoSided: true,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`Free T4[^0-9]*([0-9.]+)[^0-9]+([0-9.]+)\s*ng/dL`)},
	},
	{
		Test: domain.FreeT3, Unit: "pg/mL", TwoSided: true,
		Patterns: []*regexp.Regexp{regexp.MustCompile(`Free T3[^0-9]*([0-9.]+)[^0-9]+([0-9.]+)\s*pg/mL`)},
	},
	{
		Test: domain.AntiTPO, Unit: "IU/mL",
		Patterns: []*regexp.Regexp{regexp.MustCompile(`Anti-TPO[^0-9]*<\s*([0-9.]+)\s*IU/mL`)},
	},
	{
		Test: domain.AntiTg, Unit: "IU/mL",
		Patterns: []*regexp.Regexp{regexp.MustCompile(`Anti-Tg[^0-9]*<\s*([0-9.]+)\s*IU/mL`)},
	},
	{
		Test: domain.TSHReceptorAb, Unit: "IU/L",
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`TSH[^受體]*受體抗體[^0-9]*<\s*([0-9.]+)\s*IU/L`),
			regexp.MustCompile(`(?i)TSH[ -]receptor antibod(?:y|ies)[^0-9]*<\s*([0-9.]+)\s*IU/L`),
		},
	},
}

// ExtractReferenceRanges scans the whole document for reference intervals.
// Each test takes its earliest match; tests without a recognisable statement
// are absent from the result.
func ExtractReferenceRanges(text string) domain.ReferenceRanges {
	ranges := domain.ReferenceRanges{}
	for _, rule := range rangeRules {
		if r, ok := rule.match(text); ok {
			ranges[rule.Test] = r
		}
	}
	return ranges
}

func (r rangeRule) match(text string) (domain.ReferenceRange, bool) {
	var best []string
	bestStart := -1
	for _, re := range r.Patterns {
		loc := re.FindStringSubmatchIndex(text)
		if loc == nil || (bestStart >= 0 && loc[0] >= bestStart) {
			continue
		}
		bestStart = loc[0]
		best = submatches(text, loc)
	}
	if best == nil {
		return domain.ReferenceRange{}, false
	}

	if r.TwoSided {
		lo, errLo := strconv.ParseFloat(best[1], 64)
		hi, errHi := strconv.ParseFloat(best[2], 64)
		if errLo != nil || errHi != nil {
			return domain.ReferenceRange{}, false
		}
		return domain.ReferenceRange{Min: domain.Float(lo), Max: domain.Float(hi), Unit: r.Unit}, true
	}

	threshold, err := strconv.ParseFloat(best[1], 64)
	if err != nil {
		return domain.ReferenceRange{}, false
	}
	return domain.ReferenceRange{Max: domain.Float(threshold), Unit: r.Unit}, true
}

func submatches(text string, loc []int) []string {
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = text[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}
