package locator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan_SkipsTagsWithoutHooks(t *testing.T) {
	_, err := ScanLocators(`<div>plain</div><span>nothing</span><button>Go</button>`, FrameworkPlaywright, LanguageTypeScript)
	assert.ErrorIs(t, err, ErrNoElements)
}

func TestScan_JavascriptHrefIsNeverALocator(t *testing.T) {
	out, err := ScanLocators(`<a href="javascript:void(0)">x</a>`, FrameworkSelenium, LanguageJava)
	require.NoError(t, err)
	require.Len(t, out.Elements, 1)

	for _, c := range out.Elements[0].Locators {
		assert.NotContains(t, c.Value, "javascript")
	}
	assert.Equal(t, "xLink", out.Elements[0].ElementName)
}

func TestScan_HrefLinkEmitsXPath(t *testing.T) {
	out, err := ScanLocators(`<nav><a href="/home" class="nav-link">Home</a></nav>`, FrameworkSelenium, LanguageJava)
	require.NoError(t, err)
	require.Len(t, out.Elements, 1)

	assert.Equal(t, "homeLink", out.Elements[0].ElementName)
	assert.Contains(t, out.FormattedCode, `public static final By HOME_LINK = By.xpath("//a[@href='/home']");`)
}

func TestScan_NameAndAttributeParsing(t *testing.T) {
	html := `<input name="user_email" type=email data-qa='x'><img src="logo.png" alt="Logo" class="brand logo">`

	out, err := ScanLocators(html, FrameworkSelenium, LanguagePython)
	require.NoError(t, err)
	require.Len(t, out.Elements, 2)

	input := out.Elements[0]
	assert.Equal(t, "userEmailInput", input.ElementName)
	assert.Equal(t, Candidate{Type: StrategyName, Value: `[name="user_email"]`}, input.Best())

	img := out.Elements[1]
	assert.Equal(t, "imgImage", img.ElementName)
	assert.Equal(t, Candidate{Type: StrategyClass, Value: ".logo"}, img.Best())

	assert.Contains(t, out.FormattedCode, `    USER_EMAIL_INPUT = (By.NAME, "user_email")`)
}

func TestScan_DedupKeepsFirstPositionLastElement(t *testing.T) {
	html := `<button id="go">Alpha</button><a href="/x" id="other">Other</a><button id="go">Bravo</button>`

	out, err := ScanLocators(html, FrameworkCypress, LanguageJavaScript)
	require.NoError(t, err)
	require.Len(t, out.Elements, 2)

	first := out.Elements[0]
	assert.Equal(t, "#go", first.Best().Value)
	assert.Contains(t, first.Locators, Candidate{Type: StrategyText, Value: "//button[contains(text(), 'Bravo')]"})
	assert.Equal(t, "goButton", first.ElementName)
	assert.Equal(t, "otherLink", out.Elements[1].ElementName)
}

func TestScan_EntitiesAndCase(t *testing.T) {
	out, err := ScanLocators(`<BUTTON CLASS="cta">Save &amp; exit</BUTTON>`, FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)
	require.Len(t, out.Elements, 1)

	el := out.Elements[0]
	assert.Equal(t, "button", el.TagName)
	assert.Equal(t, "saveExitButton", el.ElementName)
	assert.Contains(t, el.Locators, Candidate{Type: StrategyText, Value: "//button[contains(text(), 'Save & exit')]"})
}

func TestScan_CapsElements(t *testing.T) {
	var b strings.Builder
	for i := 0; i < DefaultMaxElements+20; i++ {
		fmt.Fprintf(&b, `<button id="b%d">Go</button>`, i)
	}

	out, err := ScanLocators(b.String(), FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)
	assert.Len(t, out.Elements, DefaultMaxElements)
	assert.Equal(t, "#b299", out.Elements[DefaultMaxElements-1].Best().Value)
}

func TestScan_BoundsHooklessMatches(t *testing.T) {
	late := `<button id="late">Go</button>`

	got := scanRaw(strings.Repeat("<span>x</span>", 2*scanMatchFactor)+late, 2)
	assert.Empty(t, got)

	got = scanRaw(strings.Repeat("<span>x</span>", 2*scanMatchFactor-1)+late, 2)
	require.Len(t, got, 1)
	assert.Equal(t, "#late", got[0].Best().Value)
}

func TestClassName_KeepsRawAttribute(t *testing.T) {
	html := `<button id="go" class="  primary  big ">Go</button>`

	scanned, err := ScanLocators(html, FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)
	require.Len(t, scanned.Elements, 1)
	assert.Equal(t, "  primary  big ", scanned.Elements[0].ClassName)

	structured, err := GenerateLocators(html, FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)
	require.Len(t, structured.Elements, 1)
	assert.Equal(t, "  primary  big ", structured.Elements[0].ClassName)
}

func TestScan_Invariants(t *testing.T) {
	html := `<form class="f">
<input id="q" placeholder="Search"><input id="q2">
<button class="btn">Search</button><button class="btn">Search</button>
<a href="#">Top</a><span role="button" aria-label="Close">x</span>
<select name="s"></select><textarea name="t"></textarea>
<div data-testid="card">Card</div>`

	out, err := ScanLocators(html, FrameworkSelenium, LanguageCSharp)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, el := range out.Elements {
		assert.False(t, seen[el.ElementName], "duplicate name %s", el.ElementName)
		seen[el.ElementName] = true
		assert.Equal(t, StrategyXPath, el.Locators[len(el.Locators)-1].Type)
	}
}
