// Package locator turns HTML markup into ranked element locators, stable
// element names and ready-to-paste locator code for test frameworks.
package locator

import (
	"fmt"
	"strings"
)

// StrategyType identifies how a locator finds its element.
type StrategyType string

const (
	StrategyTestID      StrategyType = "Data-TestID"
	StrategyID          StrategyType = "ID"
	StrategyName        StrategyType = "Name"
	StrategyPlaceholder StrategyType = "Placeholder"
	StrategyText        StrategyType = "Text"
	StrategyClass       StrategyType = "Class"
	StrategyCSS         StrategyType = "CSS"
	StrategyXPath       StrategyType = "XPath"
)

// Candidate is one way of locating an element.
type Candidate struct {
	Type  StrategyType `json:"type"`
	Value string       `json:"value"`
}

// Element is a located element with its locators ordered from most to least
// robust. The last locator is always an XPath.
type Element struct {
	ElementName string      `json:"elementName"`
	TagName     string      `json:"tagName"`
	ClassName   string      `json:"className,omitempty"`
	Locators    []Candidate `json:"locators"`
}

// Best returns the highest ranked locator.
func (e Element) Best() Candidate {
	if len(e.Locators) == 0 {
		return Candidate{}
	}
	return e.Locators[0]
}

// Output is the result of one generation run.
type Output struct {
	Elements      []Element `json:"elements"`
	FormattedCode string    `json:"formattedCode"`
	Raw           string    `json:"raw"`
}

// Framework selects the shape of the emitted code.
type Framework string

const (
	FrameworkPlaywright Framework = "playwright"
	FrameworkCypress    Framework = "cypress"
	FrameworkSelenium   Framework = "selenium"
)

// Language selects the target language of page-object code.
type Language string

const (
	LanguageJava       Language = "java"
	LanguagePython     Language = "python"
	LanguageCSharp     Language = "csharp"
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// ParseFramework accepts identifiers and display labels, case-insensitively.
func ParseFramework(s string) (Framework, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "playwright":
		return FrameworkPlaywright, nil
	case "cypress":
		return FrameworkCypress, nil
	case "selenium", "selenium webdriver", "webdriver":
		return FrameworkSelenium, nil
	}
	return "", fmt.Errorf("unsupported framework: %q", s)
}

// ParseLanguage accepts identifiers and display labels, case-insensitively.
// Unknown languages are kept as-is so the emitter can fall back to the
// generic scripting template.
func ParseLanguage(s string) Language {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "java":
		return LanguageJava
	case "python", "py":
		return LanguagePython
	case "c#", "csharp", "cs", ".net":
		return LanguageCSharp
	case "javascript", "js":
		return LanguageJavaScript
	case "typescript", "ts":
		return LanguageTypeScript
	}
	return Language(strings.ToLower(strings.TrimSpace(s)))
}

// IsObjectMap reports whether the framework renders a flat name to selector map.
func (f Framework) IsObjectMap() bool {
	return f == FrameworkPlaywright || f == FrameworkCypress
}

// SupportsTextLocator reports whether the framework understands text= selectors.
func (f Framework) SupportsTextLocator() bool {
	return f == FrameworkPlaywright
}

// Options bounds the work done per call.
type Options struct {
	MaxElements   int
	MaxInputBytes int
}

const (
	DefaultMaxElements   = 300
	DefaultMaxInputBytes = 5 << 20
)

// DefaultOptions returns the standard limits.
func DefaultOptions() Options {
	return Options{
		MaxElements:   DefaultMaxElements,
		MaxInputBytes: DefaultMaxInputBytes,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxElements <= 0 {
		o.MaxElements = DefaultMaxElements
	}
	if o.MaxInputBytes <= 0 {
		o.MaxInputBytes = DefaultMaxInputBytes
	}
	return o
}
