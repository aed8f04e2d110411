package locator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	nonNameChars  = regexp.MustCompile(`[^a-zA-Z0-9\s_-]`)
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	nameSeparator = regexp.MustCompile(`[\s_-]+`)
)

// fallbackName is used when a hint has no usable characters, and as the
// prefix for names that would otherwise start with a digit.
const fallbackName = "element"

// ToCamelCase turns a free-form hint into a lowerCamelCase identifier ending
// with suffix. The suffix is not repeated when the hint already ends with it.
func ToCamelCase(hint, suffix string) string {
	cleaned := nonNameChars.ReplaceAllString(hint, " ")
	cleaned = camelBoundary.ReplaceAllString(cleaned, "$1 $2")

	var b strings.Builder
	for _, word := range nameSeparator.Split(strings.TrimSpace(cleaned), -1) {
		if word == "" {
			continue
		}
		if b.Len() == 0 {
			b.WriteString(strings.ToLower(word))
			continue
		}
		b.WriteString(strings.ToUpper(word[:1]))
		b.WriteString(strings.ToLower(word[1:]))
	}

	name := b.String()
	if name == "" {
		name = fallbackName
	}
	if !strings.HasSuffix(strings.ToLower(name), strings.ToLower(suffix)) {
		name += suffix
	}
	if unicode.IsDigit(rune(name[0])) {
		name = fallbackName + name
	}
	return name
}

// NameRegistry hands out element names that are unique within one run.
// It is not safe for concurrent use; every run builds its own.
type NameRegistry struct {
	used map[string]struct{}
}

// NewNameRegistry returns an empty registry.
func NewNameRegistry() *NameRegistry {
	return &NameRegistry{used: make(map[string]struct{})}
}

// Assign derives a name from hint and suffix and reserves it.
func (r *NameRegistry) Assign(hint, suffix string) string {
	return r.Reserve(ToCamelCase(hint, suffix))
}

// Reserve returns base if it is free, otherwise base followed by the
// smallest counter that makes it unique.
func (r *NameRegistry) Reserve(base string) string {
	name := base
	for i := 1; r.has(name); i++ {
		name = base + strconv.Itoa(i)
	}
	r.used[name] = struct{}{}
	return name
}

// Len returns the number of names handed out.
func (r *NameRegistry) Len() int {
	return len(r.used)
}

func (r *NameRegistry) has(name string) bool {
	_, ok := r.used[name]
	return ok
}

// elementSuffix picks the role word appended to element names.
func elementSuffix(tag, role, inputType string) string {
	tag = strings.ToLower(tag)
	role = strings.ToLower(role)
	inputType = strings.ToLower(inputType)

	switch {
	case tag == "button" || role == "button":
		return "Button"
	case tag == "input":
		switch inputType {
		case "submit", "button", "reset":
			return "Button"
		case "checkbox":
			return "Checkbox"
		case "radio":
			return "Radio"
		}
		return "Input"
	case tag == "a" || role == "link":
		return "Link"
	case tag == "select":
		return "Select"
	case tag == "textarea":
		return "Textarea"
	case role == "tab":
		return "Tab"
	case role == "checkbox":
		return "Checkbox"
	case role == "radio":
		return "Radio"
	case tag == "img":
		return "Image"
	}
	return ""
}
