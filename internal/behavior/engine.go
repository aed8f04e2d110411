package behavior

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// CaseKind classifies a generated case.
type CaseKind string

const (
	KindFunctional  CaseKind = "functional"
	KindValidation  CaseKind = "validation"
	KindSecurity    CaseKind = "security"
	KindExploratory CaseKind = "exploratory"
)

// DefaultPlatform is assigned to generated cases.
const DefaultPlatform = "Web"

// exploratoryEcho bounds how much of the requirement the fallback case quotes.
const exploratoryEcho = 120

// DraftTestCase is a generated, not yet persisted test case.
type DraftTestCase struct {
	Title          string   `json:"title"`
	Module         string   `json:"module,omitempty"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expectedResult"`
	Platform       string   `json:"platform"`
	Priority       string   `json:"priority"`
	Tags           []string `json:"tags"`
	Kind           CaseKind `json:"kind"`
}

// Engine generates draft test cases. It is safe for concurrent use.
type Engine struct {
	mu  sync.Mutex
	rng Picker
}

// NewEngine creates an engine drawing payloads from rng. A nil rng uses a
// time-seeded source.
func NewEngine(rng Picker) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{rng: rng}
}

// Generate returns at least one draft case for any input text.
func (e *Engine) Generate(text string) []DraftTestCase {
	return e.GenerateFromSpec(Decompose(text), text)
}

// GenerateFromSpec builds cases from an already decomposed requirement.
// One functional case per rule, then for each input a validation case when
// it is required followed by its security case. When nothing applies a
// single exploratory case quoting the requirement is returned.
func (e *Engine) GenerateFromSpec(spec *Spec, text string) []DraftTestCase {
	actor := DefaultActor
	if len(spec.Actors) > 0 {
		actor = spec.Actors[0]
	}

	var cases []DraftTestCase
	for _, rule := range spec.Rules {
		cases = append(cases, functionalCase(actor, spec.Actions, rule))
	}
	for _, in := range spec.Inputs {
		if in.Required {
			cases = append(cases, validationCase(in))
		}
		cases = append(cases, e.securityCase(in))
	}

	if len(cases) == 0 {
		cases = append(cases, exploratoryCase(text))
	}
	return cases
}

func functionalCase(actor string, actions []string, rule string) DraftTestCase {
	steps := []string{fmt.Sprintf("Open the application as %s", actor)}
	steps = append(steps, actions...)
	steps = append(steps, "Exercise the behaviour: "+rule)

	return DraftTestCase{
		Title:          "Functional: " + rule,
		Steps:          steps,
		ExpectedResult: rule,
		Platform:       DefaultPlatform,
		Priority:       "High",
		Tags:           []string{"functional", "positive"},
		Kind:           KindFunctional,
	}
}

func validationCase(in Input) DraftTestCase {
	return DraftTestCase{
		Title: fmt.Sprintf("Validation: %s is required", in.Name),
		Steps: []string{
			fmt.Sprintf("Open the form containing the %s field", in.Name),
			fmt.Sprintf("Leave the %s field empty", in.Name),
			"Submit the form",
		},
		ExpectedResult: fmt.Sprintf("A validation message states that %s is required and the form is not submitted", in.Name),
		Platform:       DefaultPlatform,
		Priority:       "Medium",
		Tags:           []string{"validation", "negative"},
		Kind:           KindValidation,
	}
}

func (e *Engine) securityCase(in Input) DraftTestCase {
	e.mu.Lock()
	payload := pickPayload(e.rng, in.Type)
	e.mu.Unlock()

	return DraftTestCase{
		Title: fmt.Sprintf("Security: hostile %s input in %s", in.Type, in.Name),
		Steps: []string{
			fmt.Sprintf("Open the form containing the %s field", in.Name),
			fmt.Sprintf("Enter %q into the %s field", payload, in.Name),
			"Submit the form",
		},
		ExpectedResult: "The value is rejected or safely escaped; no script runs and no server error occurs",
		Platform:       DefaultPlatform,
		Priority:       "High",
		Tags:           []string{"security", "boundary"},
		Kind:           KindSecurity,
	}
}

func exploratoryCase(text string) DraftTestCase {
	echo := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(echo) > exploratoryEcho {
		echo = string([]rune(echo)[:exploratoryEcho]) + "..."
	}
	if echo == "" {
		echo = "(empty requirement)"
	}

	return DraftTestCase{
		Title: "Exploratory: review requirement",
		Steps: []string{
			"Read the requirement: " + echo,
			"Explore the feature for behaviour the requirement does not describe",
			"Record observations and open defects for deviations",
		},
		ExpectedResult: "The feature behaves as the requirement describes",
		Platform:       DefaultPlatform,
		Priority:       "Low",
		Tags:           []string{"exploratory"},
		Kind:           KindExploratory,
	}
}
