package billing

import (
	"bytes"
	"html/template"
)

var quotationEmailTemplate = template.Must(template.New("quotation").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e2e8f0; border-radius: 12px;">
  <h2 style="color: #1e293b;">New Quotation Received</h2>
  <p style="color: #475569;">Hello {{.CustomerName}},</p>
  <p style="color: #475569;">Please find attached your professional quotation. You can review the details in the attached PDF.</p>
  <p style="color: #475569;">Would you like to accept this proposal?</p>
  <div style="margin: 30px 0;">
    <a href="{{.AcceptURL}}" style="background-color: #10b981; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; font-weight: bold; display: inline-block;">Accept Quotation</a>
    <a href="{{.DeclineURL}}" style="background-color: #ef4444; color: white; padding: 12px 24px; text-decoration: none; border-radius: 8px; font-weight: bold; display: inline-block; margin-left: 10px;">Decline Quotation</a>
  </div>
  <p style="color: #94a3b8; font-size: 12px; margin-top: 40px; border-top: 1px solid #e2e8f0; padding-top: 20px;">
    This is an automated message from our Invoice Automation System.
  </p>
</div>
`))

var invoiceEmailTemplate = template.Must(template.New("invoice").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e2e8f0; border-radius: 12px;">
  <h2 style="color: #1e293b;">Invoice {{.Reference}}</h2>
  <p style="color: #475569;">Hello {{.CustomerName}},</p>
  <p style="color: #475569;">Please find invoice {{.Reference}} attached. The amount due is <strong>{{.Total}}</strong>{{if .DueDate}}, payable by {{.DueDate}}{{end}}.</p>
  <p style="color: #94a3b8; font-size: 12px; margin-top: 40px;">This is an automated message from our Invoice Automation System.</p>
</div>
`))

var reportEmailTemplate = template.Must(template.New("report").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #1e293b;">Weekly summary</h2>
  <p style="color: #475569;">Total revenue: {{.Revenue}}</p>
  <p style="color: #475569;">Overdue amount: {{.Overdue}}</p>
  <p style="color: #475569;">Active customers: {{.Customers}}</p>
  <p style="color: #94a3b8; font-size: 12px;">The full report is attached.</p>
</div>
`))

// responsePageTemplate is shown to a customer answering a quotation
var responsePageTemplate = template.Must(template.New("response").Parse(`<!DOCTYPE html>
<html><body>
<div style="font-family: Arial, sans-serif; text-align: center; padding: 50px;">
  <h1 style="color: {{if .Accepted}}#10b981{{else}}#ef4444{{end}};">{{.Heading}}</h1>
  {{range .Lines}}<p>{{.}}</p>
  {{end}}
</div>
</body></html>
`))

type quotationEmailData struct {
	CustomerName string
	AcceptURL    string
	DeclineURL   string
}

type invoiceEmailData struct {
	CustomerName string
	Reference    string
	Total        string
	DueDate      string
}

type reportEmailData struct {
	Revenue   string
	Overdue   string
	Customers int
}

type responsePageData struct {
	Accepted bool
	Heading  string
	Lines    []string
}

func renderTemplate(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// ResponsePage renders the confirmation page for an accepted or declined quotation
func ResponsePage(accepted bool) (string, error) {
	data := responsePageData{
		Heading: "Quotation Declined",
		Lines: []string{
			"We're sorry to hear that. Your response has been recorded.",
			"If you have any feedback, please feel free to reach out to us.",
		},
	}
	if accepted {
		data = responsePageData{
			Accepted: true,
			Heading:  "Quotation Accepted!",
			Lines: []string{
				"Thank you for accepting our proposal. We have received your confirmation.",
				"Your invoice will be generated and sent shortly.",
			},
		}
	}
	return renderTemplate(responsePageTemplate, data)
}
