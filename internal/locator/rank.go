package locator

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// StructuredTextMax bounds text accepted as a locator on the structured path.
	StructuredTextMax = 50
	// LightweightTextMin and LightweightTextMax bound text accepted on the
	// lightweight path, both exclusive.
	LightweightTextMin = 2
	LightweightTextMax = 40
)

var cssIdent = regexp.MustCompile(`^-?[A-Za-z_][A-Za-z0-9_-]*$`)

// rankStructured orders the locators of a parsed element:
// test id, id, name, placeholder, text, class, CSS fallback, XPath fallback.
func rankStructured(n Node, fw Framework) []Candidate {
	tag := n.Tag()
	testID := attr(n, "data-testid")
	id := attr(n, "id")
	name := attr(n, "name")
	placeholder := attr(n, "placeholder")
	classes := usableClasses(attr(n, "class"))

	var out []Candidate
	if testID != "" {
		out = append(out, Candidate{Type: StrategyTestID, Value: cssAttr("data-testid", testID)})
	}
	if id != "" {
		out = append(out, Candidate{Type: StrategyID, Value: cssID(id)})
	}
	if name != "" {
		out = append(out, Candidate{Type: StrategyName, Value: cssAttr("name", name)})
	}
	if placeholder != "" {
		out = append(out, Candidate{Type: StrategyPlaceholder, Value: cssAttr("placeholder", placeholder)})
	}
	if text := visibleText(n); fw.SupportsTextLocator() && text != "" && utf8.RuneCountInString(text) < StructuredTextMax {
		out = append(out, Candidate{Type: StrategyText, Value: "text=" + text})
	}
	if len(classes) > 0 {
		out = append(out, Candidate{Type: StrategyClass, Value: "." + strings.Join(classes, ".")})
	}
	out = append(out, Candidate{Type: StrategyCSS, Value: cssFallback(tag, id, "data-testid", testID, classes)})
	out = append(out, Candidate{Type: StrategyXPath, Value: structuralXPath(n)})
	return out
}

// structuredNameHint picks the first usable naming source of a parsed element.
func structuredNameHint(n Node) string {
	for _, name := range []string{"data-testid", "id", "name", "placeholder"} {
		if v := attr(n, name); v != "" {
			return v
		}
	}
	if text := visibleText(n); text != "" {
		return truncateRunes(text, StructuredTextMax)
	}
	return n.Tag()
}

// visibleText prefers aria-label over the element's own text.
func visibleText(n Node) string {
	if label := collapseSpace(attr(n, "aria-label")); label != "" {
		return label
	}
	return collapseSpace(n.Text())
}

// structuralXPath builds the XPath of last resort: id, test id, unique short
// text, class attribute, then position among same-tag siblings.
func structuralXPath(n Node) string {
	tag := n.Tag()
	if id := attr(n, "id"); id != "" {
		return fmt.Sprintf("//%s[@id=%s]", tag, xpathLiteral(id))
	}
	if testID := attr(n, "data-testid"); testID != "" {
		return fmt.Sprintf("//%s[@data-testid=%s]", tag, xpathLiteral(testID))
	}
	if text := collapseSpace(n.Text()); text != "" && utf8.RuneCountInString(text) < StructuredTextMax && !siblingHasText(n, text) {
		return fmt.Sprintf("//%s[normalize-space(.)=%s]", tag, xpathLiteral(text))
	}
	if class := collapseSpace(attr(n, "class")); class != "" {
		return fmt.Sprintf("//%s[@class=%s]", tag, xpathLiteral(class))
	}

	position := 1
	for _, s := range n.PrecedingSiblings() {
		if s.Tag() == tag {
			position++
		}
	}
	return fmt.Sprintf("//%s[%d]", tag, position)
}

func siblingHasText(n Node, text string) bool {
	for _, s := range n.Siblings() {
		if collapseSpace(s.Text()) == text {
			return true
		}
	}
	return false
}

// rankScanned orders the locators of a regex-scanned tag:
// test id, id, name, href, text, class, CSS fallback, XPath fallback.
func rankScanned(t scannedTag) []Candidate {
	testAttr, testID := t.testAttr()
	id := t.get("id")
	name := t.get("name")
	classes := usableClasses(t.get("class"))

	var out []Candidate
	if testID != "" {
		out = append(out, Candidate{Type: StrategyTestID, Value: cssAttr(testAttr, testID)})
	}
	if id != "" {
		out = append(out, Candidate{Type: StrategyID, Value: cssID(id)})
	}
	if name != "" {
		out = append(out, Candidate{Type: StrategyName, Value: cssAttr("name", name)})
	}
	if href := t.get("href"); t.tag == "a" && usableHref(href) {
		out = append(out, Candidate{Type: StrategyXPath, Value: fmt.Sprintf("//a[@href=%s]", xpathLiteral(href))})
	}
	if xp := scannedTextXPath(t); xp != "" {
		out = append(out, Candidate{Type: StrategyText, Value: xp})
	}
	// Scanned tags keep only the last class token.
	if len(classes) > 0 {
		out = append(out, Candidate{Type: StrategyClass, Value: "." + classes[len(classes)-1]})
	}
	out = append(out, Candidate{Type: StrategyCSS, Value: cssFallback(t.tag, id, testAttr, testID, classes)})
	out = append(out, Candidate{Type: StrategyXPath, Value: scannedXPath(t)})
	return out
}

func scannedTextXPath(t scannedTag) string {
	if label := collapseSpace(t.get("aria-label")); textLengthOK(label) {
		return fmt.Sprintf("//%s[@aria-label=%s]", t.tag, xpathLiteral(label))
	}
	if text := collapseSpace(t.text); textLengthOK(text) {
		return fmt.Sprintf("//%s[contains(text(), %s)]", t.tag, xpathLiteral(text))
	}
	return ""
}

func textLengthOK(s string) bool {
	n := utf8.RuneCountInString(s)
	return n > LightweightTextMin && n < LightweightTextMax
}

func scannedXPath(t scannedTag) string {
	if id := t.get("id"); id != "" {
		return fmt.Sprintf("//%s[@id=%s]", t.tag, xpathLiteral(id))
	}
	if testAttr, testID := t.testAttr(); testID != "" {
		return fmt.Sprintf("//%s[@%s=%s]", t.tag, testAttr, xpathLiteral(testID))
	}
	if name := t.get("name"); name != "" {
		return fmt.Sprintf("//%s[@name=%s]", t.tag, xpathLiteral(name))
	}
	if class := collapseSpace(t.get("class")); class != "" {
		return fmt.Sprintf("//%s[@class=%s]", t.tag, xpathLiteral(class))
	}
	return "//" + t.tag
}

// scannedNameHint picks the first usable naming source of a scanned tag.
func scannedNameHint(t scannedTag) string {
	if _, testID := t.testAttr(); testID != "" {
		return testID
	}
	for _, name := range []string{"id", "name"} {
		if v := t.get(name); v != "" {
			return v
		}
	}
	if label := collapseSpace(t.get("aria-label")); label != "" {
		return truncateRunes(label, LightweightTextMax)
	}
	if text := collapseSpace(t.text); text != "" {
		return truncateRunes(text, LightweightTextMax)
	}
	return t.tag
}

func usableHref(href string) bool {
	if href == "" || href == "#" {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(href), "javascript:")
}

// usableClasses drops utility-style tokens such as "md:flex" or "2xl".
func usableClasses(class string) []string {
	var out []string
	for _, c := range strings.Fields(class) {
		if strings.Contains(c, ":") || unicode.IsDigit(rune(c[0])) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func cssFallback(tag, id, testAttr, testID string, classes []string) string {
	switch {
	case id != "":
		return cssID(id)
	case testID != "":
		return cssAttr(testAttr, testID)
	case len(classes) > 0:
		return tag + "." + classes[0]
	}
	return tag
}

func cssID(id string) string {
	if cssIdent.MatchString(id) {
		return "#" + id
	}
	return cssAttr("id", id)
}

func cssAttr(name, value string) string {
	return fmt.Sprintf(`[%s="%s"]`, name, strings.ReplaceAll(value, `"`, `\"`))
}

// xpathLiteral quotes s for use inside an XPath 1.0 expression.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
