package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// Section keys produced by ExtractSections.
const (
	KeyQA      = "qa_section"
	KeySummary = "summary"

	patternContainer = "2.2"
)

var (
	// **2.2.1 TSH low, Free T4 high**, **3. Summary**, **4 Q&A** (notes)
	headingRe = regexp.MustCompile(`^\*\*\s*(\d+(?:\.\d+)*)(?:\.\s*|\s+)(.*?)\s*\*\*.*$`)
	// **[Key points]**
	markerRe = regexp.MustCompile(`^\*\*\[(.+?)\]\*\*`)

	qaTitles      = []string{"問答", "q&a", "questions"}
	summaryTitles = []string{"總結", "summary"}
)

// Sections maps a section key (pattern_N, qa_section, summary) to its text.
type Sections map[string]string

// PatternKey returns the key of the N-th documented sub-pattern.
func PatternKey(n int) string {
	return "pattern_" + strconv.Itoa(n)
}

// Get returns the section text and whether it was present.
func (s Sections) Get(key string) (string, bool) {
	text, ok := s[key]
	return text, ok
}

// heading is one bold heading line of the document.
type heading struct {
	Number string // "2.2.1"; empty for bracketed markers
	Title  string
	Level  int // number of numeric components; markers count as top level
	Start  int // line index of the heading
	End    int // line index one past the last line the heading owns
	Body   []string

	children []*heading
}

// owns reports whether h is a descendant of parent by numeric prefix.
func (h *heading) owns(child *heading) bool {
	return h.Number != "" && child.Number != "" && strings.HasPrefix(child.Number, h.Number+".")
}

// lastComponent returns the final numeric component of the heading number.
func (h *heading) lastComponent() (int, bool) {
	parts := strings.Split(h.Number, ".")
	n, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// parseHeading recognises a heading line. Bold lines whose text ends with a
// colon are field labels, not headings.
func parseHeading(line string) (*heading, bool) {
	trimmed := strings.TrimSpace(line)
	if m := markerRe.FindStringSubmatch(trimmed); m != nil {
		return &heading{Title: strings.TrimSpace(m[1]), Level: 1}, true
	}
	m := headingRe.FindStringSubmatch(trimmed)
	if m == nil {
		return nil, false
	}
	title := strings.TrimSpace(m[2])
	if strings.HasSuffix(title, "：") || strings.HasSuffix(title, ":") {
		return nil, false
	}
	return &heading{
		Number: m[1],
		Title:  title,
		Level:  strings.Count(m[1], ".") + 1,
	}, true
}

// scanHeadings walks the document line by line and returns every outline
// heading in document order, each with the body lines up to the next heading
// and the end of the span it owns (up to the next heading that is not a
// descendant).
func scanHeadings(lines []string) []*heading {
	var candidates []*heading
	for i, line := range lines {
		if h, ok := parseHeading(line); ok {
			h.Start = i
			candidates = append(candidates, h)
		}
	}
	outline := outlineHeadings(candidates)

	var headings []*heading
	pos := 0
	for i, line := range lines {
		if pos < len(outline) && outline[pos].Start == i {
			headings = append(headings, outline[pos])
			pos++
			continue
		}
		if len(headings) > 0 {
			last := headings[len(headings)-1]
			last.Body = append(last.Body, line)
		}
	}

	for i, h := range headings {
		h.End = len(lines)
		for _, next := range headings[i+1:] {
			if !h.owns(next) {
				h.End = next.Start
				break
			}
		}
	}
	return headings
}

// outlineHeadings keeps every bracketed marker and the longest run of
// numbered headings whose numbers strictly advance. Numbered bold lines off
// that run, such as "**1. Repeat the test**" inside a section, are body text.
// On ties the nearest preceding number wins, and among equal numbers the later
// line, so a real heading beats an earlier step carrying the same number.
func outlineHeadings(candidates []*heading) []*heading {
	var numbered []*heading
	for _, h := range candidates {
		if h.Number != "" {
			numbered = append(numbered, h)
		}
	}

	length := make([]int, len(numbered))
	prev := make([]int, len(numbered))
	best := -1
	for i, h := range numbered {
		length[i], prev[i] = 1, -1
		for j := 0; j < i; j++ {
			if !outlineBefore(numbered[j].Number, h.Number) {
				continue
			}
			switch {
			case length[j]+1 > length[i]:
				length[i], prev[i] = length[j]+1, j
			case length[j]+1 == length[i] && !outlineBefore(numbered[j].Number, numbered[prev[i]].Number):
				prev[i] = j
			}
		}
		if best < 0 || length[i] >= length[best] {
			best = i
		}
	}

	keep := make(map[*heading]bool, len(numbered))
	for i := best; i >= 0; i = prev[i] {
		keep[numbered[i]] = true
	}

	outline := make([]*heading, 0, len(candidates))
	for _, h := range candidates {
		if h.Number == "" || keep[h] {
			outline = append(outline, h)
		}
	}
	return outline
}

// outlineBefore reports whether heading number a sorts before b in outline
// order: component-wise numerically, with a parent before its children.
func outlineBefore(a, b string) bool {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		x, _ := strconv.Atoi(as[i])
		y, _ := strconv.Atoi(bs[i])
		if x != y {
			return x < y
		}
	}
	return len(as) < len(bs)
}

// buildSectionTree assigns every heading to its nearest preceding ancestor by
// numeric prefix and returns the top-level headings.
func buildSectionTree(headings []*heading) []*heading {
	var roots []*heading
	var stack []*heading
	for _, h := range headings {
		for len(stack) > 0 && !stack[len(stack)-1].owns(h) {
			stack = stack[:len(stack)-1]
		}
		if len(stack) == 0 {
			roots = append(roots, h)
		} else {
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, h)
		}
		stack = append(stack, h)
	}
	return roots
}

func findHeading(nodes []*heading, number string) *heading {
	for _, n := range nodes {
		if n.Number == number {
			return n
		}
		if strings.HasPrefix(number, n.Number+".") {
			if found := findHeading(n.children, number); found != nil {
				return found
			}
		}
	}
	return nil
}

func titleContains(h *heading, needles []string) bool {
	title := strings.ToLower(h.Title)
	for _, needle := range needles {
		if strings.Contains(title, needle) {
			return true
		}
	}
	return false
}

func spanText(lines []string, h *heading) string {
	return strings.TrimSpace(strings.Join(lines[h.Start:h.End], "\n"))
}

// ExtractSections splits the document into pattern sub-sections, the Q&A
// section and the summary. Absent headings simply produce no key.
func ExtractSections(text string) Sections {
	lines := strings.Split(normalizeNewlines(text), "\n")
	headings := scanHeadings(lines)
	roots := buildSectionTree(headings)
	sections := make(Sections)

	if container := findHeading(roots, patternContainer); container != nil {
		for _, child := range container.children {
			n, ok := child.lastComponent()
			if !ok {
				continue
			}
			key := PatternKey(n)
			if _, dup := sections[key]; dup {
				continue
			}
			sections[key] = spanText(lines, child)
		}
	}

	for _, root := range roots {
		if root.Number == "" {
			continue
		}
		if _, ok := sections[KeyQA]; !ok && titleContains(root, qaTitles) {
			sections[KeyQA] = spanText(lines, root)
		}
		if _, ok := sections[KeySummary]; !ok && titleContains(root, summaryTitles) {
			sections[KeySummary] = spanText(lines, root)
		}
	}

	return sections
}

// sectionTitle returns the title of the first heading in a section.
func sectionTitle(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if h, ok := parseHeading(line); ok && h.Number != "" {
			return h.Title
		}
	}
	return ""
}

func normalizeNewlines(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
