package locator

import (
	"fmt"
	"regexp"
	"strings"
)

var constantBoundary = regexp.MustCompile(`([a-z])([A-Z])`)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

// escapeLiteral makes s safe inside a double-quoted string literal of any
// of the emitted languages.
func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// ConstantName converts an element name to SCREAMING_SNAKE_CASE.
func ConstantName(name string) string {
	return strings.ToUpper(constantBoundary.ReplaceAllString(name, "${1}_${2}"))
}

// pascalName upper-cases the first letter of an element name.
func pascalName(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// methodSet holds the locator factory names of one language binding.
type methodSet struct {
	xpath, id, name, css string
}

type pageObjectTemplate struct {
	prologue string
	epilogue string
	methods  methodSet
	ident    func(name string) string
	line     func(ident, method, value string) string
}

func camelIdent(name string) string { return name }

var (
	javaTemplate = pageObjectTemplate{
		prologue: "import org.openqa.selenium.By;\n\npublic class PageLocators {\n\n",
		epilogue: "\n}",
		methods:  methodSet{xpath: "xpath", id: "id", name: "name", css: "cssSelector"},
		ident:    ConstantName,
		line: func(ident, method, value string) string {
			return fmt.Sprintf(`    public static final By %s = By.%s("%s");`, ident, method, value)
		},
	}
	pythonTemplate = pageObjectTemplate{
		prologue: "from selenium.webdriver.common.by import By\n\nclass PageLocators:\n",
		methods:  methodSet{xpath: "XPATH", id: "ID", name: "NAME", css: "CSS_SELECTOR"},
		ident:    ConstantName,
		line: func(ident, method, value string) string {
			return fmt.Sprintf(`    %s = (By.%s, "%s")`, ident, method, value)
		},
	}
	csharpTemplate = pageObjectTemplate{
		prologue: "using OpenQA.Selenium;\n\npublic class PageLocators\n{\n",
		epilogue: "\n}",
		methods:  methodSet{xpath: "XPath", id: "Id", name: "Name", css: "CssSelector"},
		ident:    pascalName,
		line: func(ident, method, value string) string {
			return fmt.Sprintf(`    public static readonly By %s = By.%s("%s");`, ident, method, value)
		},
	}
	scriptMethods      = methodSet{xpath: "xpath", id: "id", name: "name", css: "css"}
	javascriptTemplate = pageObjectTemplate{
		prologue: "// Selenium WebDriver JS\n\nconst locators = {\n",
		epilogue: "\n};\n\nmodule.exports = locators;",
		methods:  scriptMethods,
		ident:    camelIdent,
		line:     scriptLine,
	}
	typescriptTemplate = pageObjectTemplate{
		prologue: "// Selenium WebDriver TS\n\nexport const locators = {\n",
		epilogue: "\n} as const;",
		methods:  scriptMethods,
		ident:    camelIdent,
		line:     scriptLine,
	}
)

func scriptLine(ident, method, value string) string {
	return fmt.Sprintf(`    %s: { %s: "%s" },`, ident, method, value)
}

// templateFor returns the page-object template of lang. Unknown languages get
// the generic scripting template.
func templateFor(lang Language) pageObjectTemplate {
	switch lang {
	case LanguageJava:
		return javaTemplate
	case LanguagePython:
		return pythonTemplate
	case LanguageCSharp:
		return csharpTemplate
	case LanguageTypeScript:
		return typescriptTemplate
	}
	return javascriptTemplate
}

// Emit renders the best locator of every element as code for the framework
// and language. Object-map frameworks ignore the language.
func Emit(elements []Element, fw Framework, lang Language) string {
	if fw.IsObjectMap() {
		return emitObjectMap(elements)
	}
	return emitPageObject(elements, templateFor(lang))
}

func emitObjectMap(elements []Element) string {
	entries := make([]string, 0, len(elements))
	for _, el := range elements {
		entries = append(entries, fmt.Sprintf(`  %s: "%s"`, el.ElementName, escapeLiteral(el.Best().Value)))
	}
	return "export const locators = {\n" + strings.Join(entries, ",\n") + "\n};"
}

// emitPageObject renders one line per element. Distinct element names can
// fold to the same constant (aBC and aBc both become A_BC), so identifiers
// are reserved again in the target language's form.
func emitPageObject(elements []Element, tpl pageObjectTemplate) string {
	idents := NewNameRegistry()
	lines := make([]string, 0, len(elements))
	for _, el := range elements {
		method, value := locatorCall(el.Best(), tpl.methods)
		ident := idents.Reserve(tpl.ident(el.ElementName))
		lines = append(lines, tpl.line(ident, method, escapeLiteral(value)))
	}
	return tpl.prologue + strings.Join(lines, "\n") + tpl.epilogue
}

// locatorCall maps a locator to a factory method and its argument. Id and
// name factories take the bare attribute value; every other strategy that is
// not an XPath goes through the CSS factory.
func locatorCall(c Candidate, ms methodSet) (string, string) {
	if c.Type == StrategyXPath || isXPathValue(c.Value) {
		return ms.xpath, c.Value
	}
	switch c.Type {
	case StrategyID:
		if v, ok := bareAttrValue(c.Value, "id"); ok {
			return ms.id, v
		}
	case StrategyName:
		if v, ok := bareAttrValue(c.Value, "name"); ok {
			return ms.name, v
		}
	}
	return ms.css, c.Value
}

func isXPathValue(v string) bool {
	return strings.HasPrefix(v, "/") || strings.HasPrefix(v, "(")
}

// bareAttrValue recovers the attribute value from "#value" or
// `[attr="value"]` selectors.
func bareAttrValue(selector, attrName string) (string, bool) {
	if attrName == "id" && strings.HasPrefix(selector, "#") {
		return selector[1:], true
	}
	prefix := "[" + attrName + `="`
	if strings.HasPrefix(selector, prefix) && strings.HasSuffix(selector, `"]`) {
		inner := selector[len(prefix) : len(selector)-2]
		return strings.ReplaceAll(inner, `\"`, `"`), true
	}
	return "", false
}
