// Package healing finds the replacement for a locator that no longer matches
// a page, by comparing it with the locators generated for the current HTML.
package healing

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/zenit-qa/zenit/internal/locator"
)

// DefaultThreshold is the lowest similarity accepted as a match
const DefaultThreshold = 0.6

// ErrNoMatch is returned when no element is similar enough to the stale locator
var ErrNoMatch = errors.New("no element on the page resembles the locator")

// Match is the outcome of healing one locator
type Match struct {
	Stale       string            `json:"stale"`
	ElementName string            `json:"element_name"`
	Matched     locator.Candidate `json:"matched"`
	Replacement locator.Candidate `json:"replacement"`
	Score       float64           `json:"score"`
	Exact       bool              `json:"exact"`
}

// Healer relocates stale locators
type Healer struct {
	engine    *locator.Engine
	framework locator.Framework
	threshold float64
}

// NewHealer creates a healer. A threshold outside (0, 1] uses DefaultThreshold.
func NewHealer(engine *locator.Engine, fw locator.Framework, threshold float64) *Healer {
	if engine == nil {
		engine = locator.NewEngine(locator.DefaultOptions())
	}
	if fw == "" {
		fw = locator.FrameworkPlaywright
	}
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	return &Healer{engine: engine, framework: fw, threshold: threshold}
}

// Relocate generates locators for html and returns the element whose
// locators come closest to stale. The replacement is that element's best
// locator.
func (h *Healer) Relocate(stale, html string) (*Match, error) {
	stale = strings.TrimSpace(stale)
	if stale == "" {
		return nil, fmt.Errorf("%w: empty locator", ErrNoMatch)
	}

	out, err := h.engine.Generate(html, h.framework, locator.LanguageJavaScript)
	if err != nil {
		return nil, err
	}

	var best *Match
	for _, el := range out.Elements {
		for _, c := range el.Locators {
			score := Similarity(stale, c.Value)
			if best != nil && score <= best.Score {
				continue
			}
			best = &Match{
				Stale:       stale,
				ElementName: el.ElementName,
				Matched:     c,
				Replacement: el.Best(),
				Score:       score,
				Exact:       score == 1,
			}
		}
		if best != nil && best.Exact {
			break
		}
	}

	if best == nil || best.Score < h.threshold {
		score := 0.0
		if best != nil {
			score = best.Score
		}
		return nil, fmt.Errorf("%w: best similarity %.2f is below %.2f", ErrNoMatch, score, h.threshold)
	}
	return best, nil
}

// Similarity is one minus the edit distance normalised by the longer string,
// so identical strings score 1 and unrelated ones approach 0.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
