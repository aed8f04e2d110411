package behavior

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// InitialPhase names the content before the first phase header.
	InitialPhase = "Initial"

	maxPhaseName     = 50
	maxPhaseSnippet  = 25000
	maxFallbackCases = 10
	maxFallbackTitle = 80
	maxFallbackStep  = 200
)

var (
	phaseHeader    = regexp.MustCompile(`(?i)^(Phase\s*\d+|Phase\s*:|Phases|Detailed Flow|Chapter \d+)`)
	paragraphSplit = regexp.MustCompile(`\n{2,}`)
)

// Phase is a section of a requirements document.
type Phase struct {
	Name    string `json:"name"`
	Snippet string `json:"snippet"`
}

// DetectPhases splits a document at lines that look like phase or chapter
// headers. A header line starts its own phase and is kept in its snippet.
func DetectPhases(text string) []Phase {
	var (
		phases  []Phase
		current = InitialPhase
		buf     []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if phaseHeader.MatchString(line) {
			if len(buf) > 0 {
				phases = append(phases, Phase{Name: current, Snippet: strings.Join(buf, "\n")})
			}
			current = phaseName(line)
			buf = nil
		}
		buf = append(buf, line)
	}
	if len(buf) > 0 {
		phases = append(phases, Phase{Name: current, Snippet: strings.Join(buf, "\n")})
	}

	if len(phases) == 0 && text != "" {
		return []Phase{{Name: InitialPhase, Snippet: capSnippet(text)}}
	}
	for i := range phases {
		phases[i].Snippet = capSnippet(phases[i].Snippet)
	}
	return phases
}

// SelectPhase returns the named phase, or the first phase when name is empty
// or unknown. The whole text is used when there are no phases.
func SelectPhase(phases []Phase, name, text string) Phase {
	if len(phases) == 0 {
		return Phase{Name: InitialPhase, Snippet: text}
	}
	for _, p := range phases {
		if name != "" && p.Name == name {
			return p
		}
	}
	return phases[0]
}

// PhaseNames lists the names of phases in order.
func PhaseNames(phases []Phase) []string {
	names := make([]string, len(phases))
	for i, p := range phases {
		names[i] = p.Name
	}
	return names
}

func phaseName(line string) string {
	if utf8.RuneCountInString(line) > maxPhaseName {
		return string([]rune(line)[:maxPhaseName]) + "..."
	}
	return line
}

func capSnippet(s string) string {
	if len(s) <= maxPhaseSnippet {
		return s
	}
	s = s[:maxPhaseSnippet]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

// ParagraphCases builds one review case per paragraph of text, up to ten.
// It backs documents the keyword rules cannot read.
func ParagraphCases(text, module string) []DraftTestCase {
	var cases []DraftTestCase
	for i, p := range paragraphSplit.Split(strings.ReplaceAll(text, "\r\n", "\n"), -1) {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if len(cases) == maxFallbackCases {
			break
		}

		title, _, _ := strings.Cut(p, ".")
		title = truncate(strings.TrimSpace(title), maxFallbackTitle)
		if title == "" {
			title = fmt.Sprintf("Review feature: %d", i)
		}
		cases = append(cases, DraftTestCase{
			Title:          title,
			Module:         module,
			Steps:          []string{truncate(p, maxFallbackStep)},
			ExpectedResult: "TBD",
			Platform:       DefaultPlatform,
			Priority:       "Medium",
			Tags:           []string{"prd"},
			Kind:           KindExploratory,
		})
	}
	return cases
}

// FallbackID formats the sequential id of the n-th paragraph case, from 1.
func FallbackID(n int) string {
	return fmt.Sprintf("TC_%03d", n)
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
