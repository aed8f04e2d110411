package locator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoElements    = errors.New("no interactable elements could be found in the provided HTML")
	ErrParse         = errors.New("an unexpected error occurred while processing the HTML")
	ErrInputTooLarge = errors.New("html input exceeds the size limit")
)

// Engine generates locators. It holds no per-call state and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates an engine with the given limits; zero values take defaults.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts.withDefaults()}
}

var defaultEngine = NewEngine(DefaultOptions())

// GenerateLocators runs the structured path with default limits.
func GenerateLocators(html string, fw Framework, lang Language) (*Output, error) {
	return defaultEngine.Generate(html, fw, lang)
}

// ScanLocators runs the lightweight path with default limits.
func ScanLocators(html string, fw Framework, lang Language) (*Output, error) {
	return defaultEngine.Scan(html, fw, lang)
}

// Generate parses html and builds locators for its interactable elements.
func (e *Engine) Generate(html string, fw Framework, lang Language) (*Output, error) {
	if err := e.checkInput(html); err != nil {
		return nil, err
	}
	doc, err := ParseHTML(html)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return e.GenerateFromDocument(doc, fw, lang)
}

// GenerateFromDocument runs the structured path over an already parsed page.
func (e *Engine) GenerateFromDocument(doc Document, fw Framework, lang Language) (*Output, error) {
	return build(extractStructured(doc, fw, e.opts.MaxElements), fw, lang)
}

// Scan builds locators by pattern matching html without parsing it. It
// tolerates fragments and broken markup and is meant for fetched pages.
func (e *Engine) Scan(html string, fw Framework, lang Language) (*Output, error) {
	if err := e.checkInput(html); err != nil {
		return nil, err
	}
	return build(scanRaw(html, e.opts.MaxElements), fw, lang)
}

func (e *Engine) checkInput(html string) error {
	if len(html) > e.opts.MaxInputBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(html), e.opts.MaxInputBytes)
	}
	if strings.TrimSpace(html) == "" {
		return ErrNoElements
	}
	return nil
}

func build(elements []Element, fw Framework, lang Language) (*Output, error) {
	if len(elements) == 0 {
		return nil, ErrNoElements
	}
	raw, err := json.MarshalIndent(elements, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &Output{
		Elements:      elements,
		FormattedCode: Emit(elements, fw, lang),
		Raw:           string(raw),
	}, nil
}
