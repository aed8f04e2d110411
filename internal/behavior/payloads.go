package behavior

import "strings"

// payloads holds hostile and boundary values per input type.
var payloads = map[InputType][]string{
	InputText: {
		`<script>alert('xss')</script>`,
		`' OR '1'='1' --`,
		`{{7*7}}${7*7}`,
		`../../../../etc/passwd`,
		strings.Repeat("A", 1025),
		"\u202egnp.exe",
	},
	InputEmail: {
		`plainaddress`,
		`user@`,
		`"><img src=x onerror=alert(1)>@example.com`,
		`admin'--@example.com`,
		strings.Repeat("a", 250) + "@example.com",
		`user@example.com%0d%0aBcc:victim@example.com`,
	},
	InputNumber: {
		`-1`,
		`0`,
		`99999999999999999999`,
		`1e309`,
		`NaN`,
		`1; DROP TABLE users`,
	},
}

// Picker draws an index in [0, n). *rand.Rand satisfies it.
type Picker interface {
	Intn(n int) int
}

func pickPayload(p Picker, t InputType) string {
	table, ok := payloads[t]
	if !ok {
		table = payloads[InputText]
	}
	return table[p.Intn(len(table))]
}
