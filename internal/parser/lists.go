package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minItemRunes     = 5
	minSentenceRunes = 10
)

var (
	bulletRe      = regexp.MustCompile(`^[-*]\s+(.+)$`)
	numberedRe    = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	nestedTopRe   = regexp.MustCompile(`^[-*]\s+\*\*(.+?)\*\*[：:]?\s*(.*)$`)
	nestedSubRe   = regexp.MustCompile(`^\s+[-*]\s+\*\*(.+?)\*\*[：:]?\s*(.*)$`)
	indentedRe    = regexp.MustCompile(`^\s+[-*]\s+(.+)$`)
	conditionRe   = regexp.MustCompile(`\*\*([^*\n]+?)[：:]\*\*`)
	englishStopRe = regexp.MustCompile(`\.\s+`)
)

// listStrategy turns a block of text into items; an empty result means the
// strategy did not recognise the block.
type listStrategy func(text string) []string

// firstNonEmpty tries each strategy in order and returns the first non-empty
// result, or an empty slice.
func firstNonEmpty(text string, strategies ...listStrategy) []string {
	for _, strategy := range strategies {
		if items := strategy(text); len(items) > 0 {
			return items
		}
	}
	return []string{}
}

// ExtractListItems extracts flat bullet or numbered items, falling back to
// sentence splitting for prose.
func ExtractListItems(text string) []string {
	return firstNonEmpty(text, flatItems, sentenceItems)
}

// ExtractNestedItems extracts "title: content" items with indented sub-items.
func ExtractNestedItems(text string) []string {
	return firstNonEmpty(text, nestedItems, flatItems, sentenceItems)
}

// ExtractEvaluationSteps extracts "condition: action" steps.
func ExtractEvaluationSteps(text string) []string {
	return firstNonEmpty(text, conditionalSteps, flatItems, sentenceItems)
}

// flatItems collects dash, asterisk and numbered list lines. Lines that are
// not list markers continue the current item.
func flatItems(text string) []string {
	var items []string
	var current []string

	flush := func() {
		if current == nil {
			return
		}
		item := strings.TrimSpace(strings.Join(current, "\n"))
		if utf8.RuneCountInString(item) > minItemRunes {
			items = append(items, item)
		}
		current = nil
	}

	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			flush()
			current = []string{m[1]}
			continue
		}
		if m := numberedRe.FindStringSubmatch(line); m != nil {
			flush()
			current = []string{m[1]}
			continue
		}
		if current != nil && strings.TrimSpace(line) != "" {
			current = append(current, strings.TrimSpace(line))
		}
	}
	flush()
	return items
}

// sentenceItems splits prose on the full-width stop, or on ". " for English
// text, keeping fragments long enough to carry meaning.
func sentenceItems(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var fragments []string
	terminator := "。"
	if strings.Contains(text, "。") {
		fragments = strings.Split(text, "。")
	} else {
		terminator = "."
		fragments = englishStopRe.Split(text, -1)
	}

	var items []string
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		fragment = strings.TrimSuffix(fragment, terminator)
		if utf8.RuneCountInString(fragment) > minSentenceRunes {
			items = append(items, fragment+terminator)
		}
	}
	return items
}

// nestedItems emits "title: content" for each top-level bold bullet and
// "  - sub: text" for its indented bold sub-bullets. Plain bullets inside a
// nested list are kept verbatim when they pass the same length filter as flat
// items.
func nestedItems(text string) []string {
	var items []string
	nested := false
	var current []string
	currentIdx := -1

	closeItem := func() {
		if currentIdx >= 0 && len(current) > 0 {
			items[currentIdx] = strings.TrimSpace(items[currentIdx] + " " + strings.Join(current, " "))
		}
		current = nil
		currentIdx = -1
	}

	for _, line := range strings.Split(normalizeNewlines(text), "\n") {
		if m := nestedTopRe.FindStringSubmatch(line); m != nil {
			closeItem()
			nested = true
			items = append(items, joinTitle(m[1], m[2]))
			currentIdx = len(items) - 1
			continue
		}
		if m := nestedSubRe.FindStringSubmatch(line); m != nil {
			closeItem()
			items = append(items, "  - "+joinTitle(m[1], m[2]))
			continue
		}
		if m := indentedRe.FindStringSubmatch(line); m != nil {
			closeItem()
			if item := strings.TrimSpace(m[1]); utf8.RuneCountInString(item) > minItemRunes {
				items = append(items, "  - "+item)
			}
			continue
		}
		if m := bulletRe.FindStringSubmatch(line); m != nil {
			closeItem()
			if item := strings.TrimSpace(m[1]); utf8.RuneCountInString(item) > minItemRunes {
				items = append(items, item)
			}
			continue
		}
		if currentIdx >= 0 && strings.TrimSpace(line) != "" {
			current = append(current, strings.TrimSpace(line))
		}
	}
	closeItem()

	if !nested {
		return nil
	}
	return items
}

// conditionalSteps emits "condition: action" for each **condition:** run.
// The action runs to the next bold marker.
func conditionalSteps(text string) []string {
	matches := conditionRe.FindAllStringSubmatchIndex(text, -1)
	var steps []string
	for _, m := range matches {
		condition := strings.TrimSpace(text[m[2]:m[3]])
		rest := text[m[1]:]
		if next := strings.Index(rest, "**"); next >= 0 {
			rest = rest[:next]
		}
		action := strings.Join(strings.Fields(rest), " ")
		steps = append(steps, condition+": "+action)
	}
	return steps
}

func joinTitle(title, content string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimRight(title, "：:")
	title = strings.TrimSpace(title)
	return title + ": " + strings.TrimSpace(content)
}
