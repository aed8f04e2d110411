package locator

import (
	"html"
	"regexp"
	"strings"
)

var (
	openTag  = regexp.MustCompile(`(?i)<(button|input|a|select|textarea|img|div|span)\b([^>]*)>([^<]*)`)
	hookAttr = regexp.MustCompile(`(?i)(?:^|\s)(?:id|class|name|href|role|placeholder|aria-label|data-[\w-]+)\s*=`)
	attrPair = regexp.MustCompile(`([^\s"'>/=]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"'>]+))`)
)

// scannedTag is an opening tag found by the lightweight scanner.
type scannedTag struct {
	tag   string
	attrs []attribute
	text  string
}

// scanMatchFactor bounds the tag matches examined per kept element, so a
// page of hookless tags stops early.
const scanMatchFactor = 10

type attribute struct {
	name  string
	value string
}

func (t scannedTag) get(name string) string {
	return strings.TrimSpace(t.raw(name))
}

// raw returns the decoded attribute value without trimming.
func (t scannedTag) raw(name string) string {
	for _, a := range t.attrs {
		if a.name == name {
			return a.value
		}
	}
	return ""
}

// testAttr returns the first data-test* attribute carrying a value.
func (t scannedTag) testAttr() (string, string) {
	for _, a := range t.attrs {
		if strings.HasPrefix(a.name, "data-test") && strings.TrimSpace(a.value) != "" {
			return a.name, strings.TrimSpace(a.value)
		}
	}
	return "", ""
}

func isVoidTag(tag string) bool {
	return tag == "input" || tag == "img"
}

// scanRaw finds elements by pattern matching the raw markup. Tags without an
// identifying attribute are skipped. Elements sharing a best locator collapse
// into one: the first position is kept and the last element wins. At most
// max*scanMatchFactor tag matches are examined.
func scanRaw(raw string, max int) []Element {
	type entry struct {
		tag      scannedTag
		locators []Candidate
	}

	var (
		entries []entry
		byBest  = make(map[string]int)
		kept    int
		scanned int
	)
	for rest := raw; kept < max && scanned < max*scanMatchFactor; scanned++ {
		loc := openTag.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		tagName := strings.ToLower(rest[loc[2]:loc[3]])
		attrs := rest[loc[4]:loc[5]]
		text := rest[loc[6]:loc[7]]
		rest = rest[loc[1]:]

		if !hookAttr.MatchString(attrs) {
			continue
		}
		t := scannedTag{tag: tagName, attrs: parseAttrs(attrs)}
		if !isVoidTag(tagName) {
			t.text = html.UnescapeString(text)
		}
		kept++

		e := entry{tag: t, locators: rankScanned(t)}
		best := e.locators[0].Value
		if i, ok := byBest[best]; ok {
			entries[i] = e
			continue
		}
		byBest[best] = len(entries)
		entries = append(entries, e)
	}

	names := NewNameRegistry()
	elements := make([]Element, 0, len(entries))
	for _, e := range entries {
		suffix := elementSuffix(e.tag.tag, e.tag.get("role"), e.tag.get("type"))
		elements = append(elements, Element{
			ElementName: names.Assign(scannedNameHint(e.tag), suffix),
			TagName:     e.tag.tag,
			ClassName:   e.tag.raw("class"),
			Locators:    e.locators,
		})
	}
	return elements
}

func parseAttrs(s string) []attribute {
	var attrs []attribute
	for _, m := range attrPair.FindAllStringSubmatch(s, -1) {
		value := m[2]
		switch {
		case m[3] != "":
			value = m[3]
		case m[4] != "":
			value = m[4]
		}
		attrs = append(attrs, attribute{
			name:  strings.ToLower(m[1]),
			value: html.UnescapeString(value),
		})
	}
	return attrs
}
