package behavior

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedPicker int

func (p fixedPicker) Intn(n int) int { return int(p) % n }

func TestClauses(t *testing.T) {
	got := Clauses("ok. yes. Fine print,\n  Enter email  \n\n")
	assert.Equal(t, []string{"Fine print", "Enter email"}, got)
}

func TestDecompose_RuleAndInput(t *testing.T) {
	spec := Decompose("User must verify login succeeds. Enter email.")

	assert.Equal(t, []string{"User"}, spec.Actors)
	assert.Equal(t, []string{"User must verify login succeeds"}, spec.Rules)
	assert.Equal(t, []Input{{Name: "email", Type: InputEmail, Required: true}}, spec.Inputs)
	assert.Empty(t, spec.Actions)
}

func TestDecompose_InputVariants(t *testing.T) {
	spec := Decompose("Password field is optional\nenter your age\nType the phone number\nInput a nickname")

	assert.Equal(t, []Input{
		{Name: "password", Type: InputText, Required: false},
		{Name: "age", Type: InputNumber, Required: true},
		{Name: "phone", Type: InputNumber, Required: true},
		{Name: "nickname", Type: InputText, Required: true},
	}, spec.Inputs)
	assert.Equal(t, []string{DefaultActor}, spec.Actors)
}

func TestDecompose_ActionsAreCapped(t *testing.T) {
	spec := Decompose("Open the app. Tap menu. Choose settings. Scroll down. Press save.")

	assert.Equal(t, []string{"Open the app", "Tap menu", "Choose settings"}, spec.Actions)
	assert.Len(t, spec.Actions, MaxActions)
}

func TestDecompose_Actors(t *testing.T) {
	spec := Decompose("Admin must approve the request. As a customer, I open the cart. Admins can delete items")

	assert.Equal(t, []string{"Admin", "Customer"}, spec.Actors)
	assert.Equal(t, []string{"Admin must approve the request"}, spec.Rules)
}

func TestDecompose_ActorPrefixes(t *testing.T) {
	tests := []struct {
		clause string
		actor  string
	}{
		{"Admin approves the refund", "Admin"},
		{"Manager reviews the report", "Manager"},
		{"Viewer opens the dashboard", "Viewer"},
		{"Guest browses the catalog", "Guest"},
		{"System sends a reminder", "System"},
		{"SYSTEM retries the upload", "System"},
	}

	for _, tt := range tests {
		t.Run(tt.actor, func(t *testing.T) {
			spec := Decompose(tt.clause)
			assert.Equal(t, []string{tt.actor}, spec.Actors)
		})
	}

	assert.Equal(t, []string{DefaultActor}, Decompose("Systematic review of logs").Actors)
}

func TestDecompose_ClickIsRule(t *testing.T) {
	spec := Decompose("Viewer opens the dashboard\nSystem sends a reminder\nClick the submit button")

	assert.Equal(t, []string{"Viewer", "System"}, spec.Actors)
	assert.Equal(t, []string{"Click the submit button"}, spec.Rules)
	assert.Equal(t, []string{"Viewer opens the dashboard", "System sends a reminder"}, spec.Actions)

	cases := NewEngine(fixedPicker(0)).Generate("Viewer opens the dashboard\nClick the submit button")
	require.Len(t, cases, 1)
	assert.Equal(t, KindFunctional, cases[0].Kind)
	assert.Equal(t, "Click the submit button", cases[0].ExpectedResult)
}

func TestDecompose_KeywordsMatchInsideWords(t *testing.T) {
	spec := Decompose("Name fields are mandatory\nUser clicked save")

	assert.Equal(t, []Input{{Name: "name", Type: InputText, Required: true}}, spec.Inputs)
	assert.Equal(t, []string{"User clicked save"}, spec.Rules)
}

func TestDecompose_UnnamedInputFallsThrough(t *testing.T) {
	spec := Decompose("Prototype must load quickly\nRe-center the map")

	assert.Empty(t, spec.Inputs)
	assert.Equal(t, []string{"Prototype must load quickly"}, spec.Rules)
	assert.Equal(t, []string{"Re-center the map"}, spec.Actions)
}

func TestGenerate_RuleAndInputCases(t *testing.T) {
	e := NewEngine(fixedPicker(0))

	cases := e.Generate("User must verify login succeeds. Enter email.")
	require.Len(t, cases, 3)

	assert.Equal(t, KindFunctional, cases[0].Kind)
	assert.Contains(t, cases[0].ExpectedResult, "verify login succeeds")
	assert.Contains(t, cases[0].Steps[0], "User")

	assert.Equal(t, KindValidation, cases[1].Kind)
	assert.Contains(t, cases[1].Title, "email")

	assert.Equal(t, KindSecurity, cases[2].Kind)
	assert.Contains(t, cases[2].Steps[1], "plainaddress")
	assert.Contains(t, cases[2].Tags, "security")
}

func TestGenerate_OptionalInputHasNoValidationCase(t *testing.T) {
	cases := NewEngine(fixedPicker(2)).Generate("Password field is optional, enter age")

	var kinds []CaseKind
	for _, c := range cases {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []CaseKind{KindSecurity, KindValidation, KindSecurity}, kinds)
	assert.Contains(t, cases[0].Title, "password")
	assert.Contains(t, cases[1].Title, "age")
	assert.Contains(t, cases[2].Title, "age")
}

func TestGenerate_InputCasesStayPaired(t *testing.T) {
	cases := NewEngine(fixedPicker(0)).Generate("Enter email\nEnter age")
	require.Len(t, cases, 4)

	got := make([]string, len(cases))
	for i, c := range cases {
		got[i] = string(c.Kind) + " " + c.Title
	}
	assert.Equal(t, []string{
		"validation Validation: email is required",
		"security Security: hostile email input in email",
		"validation Validation: age is required",
		"security Security: hostile number input in age",
	}, got)
}

func TestGenerate_ExploratoryFallback(t *testing.T) {
	for _, text := range []string{"Make it nice", "", "ok"} {
		cases := NewEngine(fixedPicker(0)).Generate(text)
		require.Len(t, cases, 1, "text %q", text)
		assert.Equal(t, KindExploratory, cases[0].Kind)
		assert.Equal(t, "Low", cases[0].Priority)
	}

	cases := NewEngine(nil).Generate("Make it nice")
	assert.Contains(t, cases[0].Steps[0], "Make it nice")
}

func TestGenerate_ExploratoryEchoIsTruncated(t *testing.T) {
	cases := NewEngine(nil).Generate(strings.Repeat("word ", 100))
	require.Len(t, cases, 1)

	step := cases[0].Steps[0]
	assert.True(t, strings.HasSuffix(step, "..."))
	assert.Less(t, len(step), 200)
}

func TestGenerate_PayloadsComeFromTypedTable(t *testing.T) {
	e := NewEngine(rand.New(rand.NewSource(42)))

	for i := 0; i < 20; i++ {
		cases := e.Generate("Enter quantity")
		require.Len(t, cases, 2)

		found := false
		for _, p := range payloads[InputNumber] {
			if strings.Contains(cases[1].Steps[1], strings.Trim(p, `"`)) {
				found = true
			}
		}
		assert.True(t, found, cases[1].Steps[1])
	}
}

func TestGenerate_ConcurrentUse(t *testing.T) {
	e := NewEngine(rand.New(rand.NewSource(1)))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.NotEmpty(t, e.Generate("Enter email. User must log in"))
			}
		}()
	}
	wg.Wait()
}
