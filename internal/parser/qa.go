package parser

import (
	"regexp"
	"strings"

	"github.com/thyroid-lit-analyzer/internal/domain"
)

var (
	questionRe = regexp.MustCompile(`\*\*Q(\d+)\s*[：:]\s*\*\*`)
	answerRe   = regexp.MustCompile(`\*\*A(\d+)\s*[：:]\s*\*\*`)
)

// ExtractQAPairs extracts numbered **Q<N>:** / **A<N>:** pairs. An answer
// runs to the next question marker or the end of the section; a pair whose
// answer number differs from its question number is skipped.
func ExtractQAPairs(section string) []domain.QAPair {
	pairs := []domain.QAPair{}
	questions := questionRe.FindAllStringSubmatchIndex(section, -1)

	for i, q := range questions {
		number := section[q[2]:q[3]]
		end := len(section)
		if i+1 < len(questions) {
			end = questions[i+1][0]
		}
		body := section[q[1]:end]

		a := answerRe.FindStringSubmatchIndex(body)
		if a == nil {
			continue
		}
		if body[a[2]:a[3]] != number {
			continue
		}

		pairs = append(pairs, domain.QAPair{
			ID:       "Q" + number,
			Question: strings.TrimSpace(body[:a[0]]),
			Answer:   strings.TrimSpace(body[a[1]:]),
		})
	}
	return pairs
}
