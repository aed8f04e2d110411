package locator

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_SingleButtonPlaywright(t *testing.T) {
	out, err := GenerateLocators(`<button id="submit-btn">Send</button>`, FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)
	require.Len(t, out.Elements, 1)

	el := out.Elements[0]
	assert.Equal(t, "submitBtnButton", el.ElementName)
	assert.Equal(t, "button", el.TagName)
	assert.Equal(t, Candidate{Type: StrategyID, Value: "#submit-btn"}, el.Best())
	assert.Equal(t, "export const locators = {\n  submitBtnButton: \"#submit-btn\"\n};", out.FormattedCode)
}

func TestGenerate_TestIDWinsForSeleniumJava(t *testing.T) {
	out, err := GenerateLocators(`<input data-testid="email" id="e1" placeholder="Email">`, FrameworkSelenium, LanguageJava)
	require.NoError(t, err)
	require.Len(t, out.Elements, 1)

	el := out.Elements[0]
	assert.Equal(t, "emailInput", el.ElementName)
	assert.Equal(t, StrategyTestID, el.Best().Type)

	want := "import org.openqa.selenium.By;\n\npublic class PageLocators {\n\n" +
		`    public static final By EMAIL_INPUT = By.cssSelector("[data-testid=\"email\"]");` +
		"\n}"
	assert.Equal(t, want, out.FormattedCode)
}

func TestGenerate_DuplicateButtonsGetDistinctNames(t *testing.T) {
	out, err := GenerateLocators(`<div><button>Submit</button><button>Submit</button></div>`, FrameworkSelenium, LanguagePython)
	require.NoError(t, err)
	require.Len(t, out.Elements, 2)

	assert.Equal(t, "submitButton", out.Elements[0].ElementName)
	assert.Equal(t, "submitButton1", out.Elements[1].ElementName)

	for i, want := range []string{"//button[1]", "//button[2]"} {
		locs := out.Elements[i].Locators
		assert.Equal(t, Candidate{Type: StrategyXPath, Value: want}, locs[len(locs)-1])
	}
}

func TestGenerate_NoInteractableElements(t *testing.T) {
	for _, html := range []string{"", "   ", "<div><p>just text</p></div>"} {
		out, err := GenerateLocators(html, FrameworkPlaywright, LanguageTypeScript)
		assert.Nil(t, out)
		assert.True(t, errors.Is(err, ErrNoElements), "html %q: err = %v", html, err)
	}
}

func TestGenerate_InputTooLarge(t *testing.T) {
	e := NewEngine(Options{MaxInputBytes: 32})

	_, err := e.Generate(strings.Repeat("<button>x</button>", 10), FrameworkPlaywright, LanguageTypeScript)
	assert.ErrorIs(t, err, ErrInputTooLarge)

	_, err = e.Scan(strings.Repeat("<button id=x>", 10), FrameworkPlaywright, LanguageTypeScript)
	assert.ErrorIs(t, err, ErrInputTooLarge)
}

func TestGenerate_CapsElements(t *testing.T) {
	html := strings.Repeat("<button>Go</button>", DefaultMaxElements+50)

	out, err := GenerateLocators(html, FrameworkCypress, LanguageJavaScript)
	require.NoError(t, err)
	assert.Len(t, out.Elements, DefaultMaxElements)

	small := NewEngine(Options{MaxElements: 5})
	out, err = small.Generate(html, FrameworkCypress, LanguageJavaScript)
	require.NoError(t, err)
	assert.Len(t, out.Elements, 5)
}

func TestGenerate_Invariants(t *testing.T) {
	html := `
<form>
  <input name="q" placeholder="Search">
  <input name="q" placeholder="Search">
  <input type="checkbox" id="remember">
  <input type="radio" name="plan" value="a">
  <input type="radio" name="plan" value="b">
  <select name="country"></select>
  <textarea></textarea>
  <textarea></textarea>
  <a href="/help">Help</a>
  <a href="/help">Help</a>
  <div role="tab">Settings</div>
  <span role="checkbox" aria-label="Accept terms"></span>
  <div data-testid="banner">Hello</div>
  <button class="btn md:px-2">OK</button>
</form>`

	for _, fw := range []Framework{FrameworkPlaywright, FrameworkCypress, FrameworkSelenium} {
		out, err := GenerateLocators(html, fw, LanguageJava)
		require.NoError(t, err)

		seen := make(map[string]bool)
		for _, el := range out.Elements {
			assert.False(t, seen[el.ElementName], "duplicate name %s", el.ElementName)
			seen[el.ElementName] = true

			require.NotEmpty(t, el.Locators)
			assert.Equal(t, StrategyXPath, el.Locators[len(el.Locators)-1].Type)
			for _, c := range el.Locators {
				assert.NotEmpty(t, c.Value)
			}
		}
		assert.Len(t, out.Elements, 14)
	}
}

func TestGenerate_RoleSuffixes(t *testing.T) {
	out, err := GenerateLocators(`<div role="tab">Settings</div><span role="checkbox" aria-label="Accept terms"></span>`, FrameworkCypress, LanguageJavaScript)
	require.NoError(t, err)
	require.Len(t, out.Elements, 2)

	assert.Equal(t, "settingsTab", out.Elements[0].ElementName)
	assert.Equal(t, "acceptTermsCheckbox", out.Elements[1].ElementName)
}

func TestGenerate_Deterministic(t *testing.T) {
	html := `<nav><a href="/">Home</a><a href="/about">About</a><button>Menu</button></nav>`

	first, err := GenerateLocators(html, FrameworkSelenium, LanguageCSharp)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := GenerateLocators(html, FrameworkSelenium, LanguageCSharp)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestGenerate_RawMatchesElements(t *testing.T) {
	out, err := GenerateLocators(`<button id="a">A</button><input name="b">`, FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)

	var decoded []Element
	require.NoError(t, json.Unmarshal([]byte(out.Raw), &decoded))
	assert.Equal(t, out.Elements, decoded)
	assert.Contains(t, out.Raw, `"elementName": "aButton"`)
}

func TestGenerate_MalformedMarkupIsTolerated(t *testing.T) {
	out, err := GenerateLocators(`<div><button id="x">Open<span></div><input name="y"`, FrameworkPlaywright, LanguageTypeScript)
	require.NoError(t, err)
	assert.Equal(t, "#x", out.Elements[0].Best().Value)
}

func TestParseFramework(t *testing.T) {
	tests := []struct {
		in      string
		want    Framework
		wantErr bool
	}{
		{"Playwright", FrameworkPlaywright, false},
		{"cypress", FrameworkCypress, false},
		{" Selenium ", FrameworkSelenium, false},
		{"puppeteer", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFramework(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFramework(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFramework(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseLanguage(t *testing.T) {
	tests := map[string]Language{
		"Java":       LanguageJava,
		"python":     LanguagePython,
		"C#":         LanguageCSharp,
		"JavaScript": LanguageJavaScript,
		"TS":         LanguageTypeScript,
		"Ruby":       Language("ruby"),
	}

	for in, want := range tests {
		if got := ParseLanguage(in); got != want {
			t.Errorf("ParseLanguage(%q) = %v, want %v", in, got, want)
		}
	}
}
