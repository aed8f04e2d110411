package reporting

// SessionTemplate renders a printable session report
const SessionTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Session Report | {{.Session.Platform.Platform}}</title>
    <style>
        body { font-family: system-ui, sans-serif; background: #f9fafb; margin: 0; color: #111827; }
        header, main { max-width: 72rem; margin: 0 auto; padding: 1rem; }
        .cards { display: grid; grid-template-columns: repeat(6, 1fr); gap: 1rem; }
        .card { background: #fff; border-radius: .75rem; box-shadow: 0 1px 3px rgba(0,0,0,.1); padding: 1rem; }
        .card p { margin: 0; }
        .value { font-size: 1.5rem; font-weight: 700; }
        table { width: 100%; border-collapse: collapse; background: #fff; margin-top: 1.5rem; }
        th { background: #2563eb; color: #fff; text-align: left; padding: .5rem; }
        td { border-bottom: 1px solid #d3d3d3; padding: .5rem; vertical-align: top; white-space: pre-wrap; }
        .status-Pass { background: #c6efce; color: #006100; }
        .status-Fail { background: #ffc7ce; color: #9c0006; font-weight: 700; }
        .status-Fail-Known { background: #ffeb9c; color: #9c5700; }
        .status-NA { background: #e7e6e6; color: #3a3a3a; font-style: italic; }
        .status-Untested { color: #808080; }
    </style>
</head>
<body>
    <header>
        <h1>Session Report</h1>
        <p>{{.Session.UserName}} &middot; {{.Session.Platform.Platform}}{{with .Session.Platform.Device}} &middot; {{.}}{{end}}{{with .Session.Platform.AppVersion}} &middot; v{{.}}{{end}}</p>
        <p>{{.Session.CreatedAt.Format "Jan 2, 2006 3:04 PM"}} &middot; {{.Duration}} &middot; {{.Session.Status}}</p>
        {{with .Session.ReasonForIncompletion}}<p><strong>Aborted:</strong> {{.}}</p>{{end}}
    </header>

    <main>
        <div class="cards">
            <div class="card"><p>Total</p><p class="value">{{.Session.Summary.Total}}</p></div>
            <div class="card"><p>Passed</p><p class="value">{{.Session.Summary.Pass}}</p></div>
            <div class="card"><p>Failed</p><p class="value">{{.Session.Summary.Fail}}</p></div>
            <div class="card"><p>Known</p><p class="value">{{.Session.Summary.FailKnown}}</p></div>
            <div class="card"><p>N/A</p><p class="value">{{.Session.Summary.NA}}</p></div>
            <div class="card"><p>Pass rate</p><p class="value">{{printf "%.0f" .PassRate}}%</p></div>
        </div>

        <table>
            <thead>
                <tr><th>#</th><th>Test Case</th><th>Steps</th><th>Expected</th><th>Actual</th><th>Status</th><th>Bug / Reason</th></tr>
            </thead>
            <tbody>
                {{range .Session.TestCases}}
                <tr class="status-{{statusClass .Status}}">
                    <td>{{inc .OrderIndex}}</td>
                    <td>{{.Title}}{{with .TestBed}}<br><small>{{.}}</small>{{end}}</td>
                    <td>{{.Steps}}</td>
                    <td>{{.ExpectedResult}}</td>
                    <td>{{.ActualResult}}</td>
                    <td>{{.Status}}</td>
                    <td>{{.BugID}}{{.NAReason}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </main>
</body>
</html>
`
