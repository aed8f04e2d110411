// Package behavior turns free-text requirements into draft test cases using
// keyword rules. It performs no inference beyond pattern matching.
package behavior

import (
	"regexp"
	"strings"
)

// MaxActions bounds the number of action clauses kept per requirement.
const MaxActions = 3

// minClauseLen drops clause fragments such as "ok" or "1".
const minClauseLen = 3

// DefaultActor is used when no clause names an actor.
const DefaultActor = "User"

// InputType is the inferred kind of a form field.
type InputType string

const (
	InputText   InputType = "text"
	InputEmail  InputType = "email"
	InputNumber InputType = "number"
)

// Input is a form field mentioned by the requirement.
type Input struct {
	Name     string    `json:"name"`
	Type     InputType `json:"type"`
	Required bool      `json:"required"`
}

// Spec is the structured reading of a requirement.
type Spec struct {
	Actors  []string `json:"actors"`
	Actions []string `json:"actions"`
	Inputs  []Input  `json:"inputs"`
	Rules   []string `json:"rules"`
}

var (
	clauseSplit   = regexp.MustCompile(`[\n,.]+`)
	actorPrefix   = regexp.MustCompile(`(?i)^(?:as\s+(?:an?\s+|the\s+)?)?(admin|administrator|manager|viewer|guest|system|user|customer|visitor|member|tester|operator)s?\b`)
	inputKeyword  = regexp.MustCompile(`(?i)input|enter|field|type`)
	inputCapture  = regexp.MustCompile(`(?i)\b(?:enter|input|type)\s+(?:an?\s+|the\s+|your\s+|their\s+)?([A-Za-z][\w-]*)`)
	fieldCapture  = regexp.MustCompile(`(?i)\b([A-Za-z][\w-]*)\s+fields?\b`)
	ruleKeyword   = regexp.MustCompile(`(?i)should|must|verify|click|ensure|validate`)
	emailHint     = regexp.MustCompile(`(?i)e-?mail`)
	numberHint    = regexp.MustCompile(`(?i)number|phone|amount|quantity|price|zip|^(?:age|count)$`)
	optionalHint  = regexp.MustCompile(`(?i)\boptional\b`)
	fieldStopword = map[string]bool{"a": true, "an": true, "the": true, "in": true, "into": true, "your": true, "their": true}
)

// Clauses splits text on newlines, commas and periods and drops fragments
// of three characters or fewer.
func Clauses(text string) []string {
	var out []string
	for _, c := range clauseSplit.Split(text, -1) {
		c = strings.TrimSpace(c)
		if len(c) <= minClauseLen {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Decompose classifies every clause of text. Actor detection is additive;
// a clause is then an input, a rule or an action, checked in that order.
// Keywords match anywhere in the clause, so "fields" and "clicked" count.
// An input clause without a recognizable field name is classified as a
// rule or action instead.
func Decompose(text string) *Spec {
	spec := &Spec{}
	seenActor := make(map[string]bool)

	for _, clause := range Clauses(text) {
		if m := actorPrefix.FindStringSubmatch(clause); m != nil {
			actor := strings.ToUpper(m[1][:1]) + strings.ToLower(m[1][1:])
			if !seenActor[actor] {
				seenActor[actor] = true
				spec.Actors = append(spec.Actors, actor)
			}
		}

		if inputKeyword.MatchString(clause) {
			if in, ok := parseInput(clause); ok {
				spec.Inputs = append(spec.Inputs, in)
				continue
			}
		}

		switch {
		case ruleKeyword.MatchString(clause):
			spec.Rules = append(spec.Rules, clause)
		default:
			if len(spec.Actions) < MaxActions {
				spec.Actions = append(spec.Actions, clause)
			}
		}
	}

	if len(spec.Actors) == 0 {
		spec.Actors = []string{DefaultActor}
	}
	return spec
}

func parseInput(clause string) (Input, bool) {
	name := ""
	if m := inputCapture.FindStringSubmatch(clause); m != nil && !fieldStopword[strings.ToLower(m[1])] {
		name = m[1]
	} else if m := fieldCapture.FindStringSubmatch(clause); m != nil && !fieldStopword[strings.ToLower(m[1])] {
		name = m[1]
	}
	if name == "" {
		return Input{}, false
	}

	name = strings.ToLower(name)
	return Input{
		Name:     name,
		Type:     inferType(name),
		Required: !optionalHint.MatchString(clause),
	}, true
}

func inferType(s string) InputType {
	switch {
	case emailHint.MatchString(s):
		return InputEmail
	case numberHint.MatchString(s):
		return InputNumber
	}
	return InputText
}
