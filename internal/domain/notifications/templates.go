package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

var funcs = template.FuncMap{
	"date": func(t time.Time) string { return t.Format("Mon 2 Jan 2006") },
	"money": func(v float64, currency string) string {
		return fmt.Sprintf("%.2f %s", v, strings.ToUpper(currency))
	},
}

const layout = `{{define "details"}}
<table cellpadding="4">
  <tr><td>Reference</td><td><strong>{{.Reference}}</strong></td></tr>
  <tr><td>Gym</td><td>{{.GymName}}</td></tr>
  {{if .PackageName}}<tr><td>Package</td><td>{{.PackageName}}{{if .VariantName}} ({{.VariantName}}){{end}}</td></tr>{{end}}
  <tr><td>Dates</td><td>{{date .StartDate}} to {{date .EndDate}} ({{.Nights}} nights)</td></tr>
  {{if .Discipline}}<tr><td>Discipline</td><td>{{.Discipline}}</td></tr>{{end}}
  <tr><td>Total</td><td>{{money .Total .Currency}}</td></tr>
</table>
{{end}}`

var templates = template.Must(template.New("mail").Funcs(funcs).Parse(layout + `
{{define "admin_new_booking"}}
<h2>New booking request</h2>
<p>{{.GuestName}} ({{.GuestEmail}}{{if .GuestPhone}}, {{.GuestPhone}}{{end}}) requested a stay.</p>
{{template "details" .}}
<p>Experience: {{.ExperienceLevel}}</p>
{{if .Notes}}<p>Notes: {{.Notes}}</p>{{end}}
<p>Platform fee: {{money .PlatformFee .Currency}}</p>
{{end}}

{{define "guest_booking_received"}}
<h2>We received your booking request</h2>
<p>Hi {{.GuestName}}, {{.GymName}} will review your request shortly. Your card has been authorized but not charged.</p>
{{template "details" .}}
<p>Keep your reference and PIN <strong>{{.PIN}}</strong> to look up your booking.</p>
{{end}}

{{define "guest_payment_confirmed"}}
<h2>Your booking is confirmed</h2>
<p>Hi {{.Booking.GuestName}}, {{.Booking.GymName}} accepted your booking and your payment went through.</p>
{{template "details" .Booking}}
{{if .CardLast4}}<p>Charged to {{.CardBrand}} ending in {{.CardLast4}}.</p>{{end}}
<p><a href="{{.AccessURL}}">View your booking</a> (link valid until {{date .ExpiresAt}}).</p>
{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
