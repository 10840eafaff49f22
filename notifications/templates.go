package notifications

import (
	"text/template"

	"jobflow/timetracking"
)

type Type string

const (
	TypeShortageWarning       Type = "SHORTAGE_WARNING"
	TypeShortageCritical      Type = "SHORTAGE_CRITICAL"
	TypeCompensationRequested Type = "COMPENSATION_REQUESTED"
	TypeCompensationApproved  Type = "COMPENSATION_APPROVED"
	TypeBreakViolation        Type = "BREAK_VIOLATION"
	TypeBalanceCapReached     Type = "BALANCE_CAP_REACHED"
)

type policy struct {
	severity string
	email    bool
	push     bool
	title    string
	body     string
}

var policies = map[Type]policy{
	TypeShortageWarning: {
		severity: "WARNING",
		push:     true,
		title:    "Urentekort voor {{.Name}}",
		body: `{{.Name}} heeft {{hours .ShortageHours}} te weinig gewerkt ({{hours .ActualHours}} van {{hours .ExpectedHours}}).
{{- range .SuggestedActions}}
- {{.}}{{end}}`,
	},
	TypeShortageCritical: {
		severity: "CRITICAL",
		email:    true,
		push:     true,
		title:    "Kritiek urentekort voor {{.Name}}",
		body: `{{.Name}} heeft {{hours .ShortageHours}} te weinig gewerkt ({{hours .ActualHours}} van {{hours .ExpectedHours}}).
{{- if gt .ConsecutiveWeeksShort 1}} Dit is de {{.ConsecutiveWeeksShort}}e week op rij.{{end}}
{{- range .SuggestedActions}}
- {{.}}{{end}}`,
	},
	TypeCompensationRequested: {
		severity: "INFO",
		push:     true,
		title:    "Tijd-voor-tijd aangevraagd door {{.Name}}",
		body:     `{{.Name}} vraagt {{hours .Hours}} tijd-voor-tijd aan voor {{.Days}} dag(en).{{if .Reason}} Reden: {{.Reason}}{{end}}`,
	},
	TypeCompensationApproved: {
		severity: "INFO",
		push:     true,
		title:    "Tijd-voor-tijd goedgekeurd",
		body:     `Je aanvraag van {{.Date}} ({{hours .Hours}}) is goedgekeurd door {{.Approver}}.`,
	},
	TypeBreakViolation: {
		severity: "WARNING",
		push:     true,
		title:    "Pauzeregel niet nageleefd",
		body:     `{{.Message}}`,
	},
	TypeBalanceCapReached: {
		severity: "WARNING",
		email:    true,
		push:     true,
		title:    "Maximaal tijd-voor-tijd saldo bereikt",
		body:     `{{.Message}}{{if gt .Forfeited 0.0}} Er is {{hours .Forfeited}} niet bijgeschreven.{{end}}`,
	},
}

var funcs = template.FuncMap{
	"hours": timetracking.FormatDuration,
}

type compiled struct {
	policy
	title *template.Template
	body  *template.Template
}

func compile() map[Type]compiled {
	out := make(map[Type]compiled, len(policies))
	for t, p := range policies {
		out[t] = compiled{
			policy: p,
			title:  template.Must(template.New(string(t) + ".title").Funcs(funcs).Parse(p.title)),
			body:   template.Must(template.New(string(t) + ".body").Funcs(funcs).Parse(p.body)),
		}
	}
	return out
}
