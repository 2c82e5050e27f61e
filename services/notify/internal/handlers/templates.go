package handlers

import (
	"bytes"
	htmltemplate "html/template"
	"text/template"

	"github.com/diagnosis/hallbooking-admin/pkg/notify"
)

const approvedSubject = "Your hall booking has been approved"

var approvedHTML = htmltemplate.Must(htmltemplate.New("approved").Parse(`
<h2>Booking Approved</h2>
<p>Hi {{.UserInfo.Name}},</p>
<p>Your booking for <strong>{{.SelectedHall}}</strong> has been approved.</p>
<table>
  <tr><td>Date</td><td>{{.Date}}</td></tr>
  <tr><td>Time</td><td>{{.StartTime}} - {{.EndTime}}</td></tr>
</table>
<p>Thank you for booking with us.</p>
`))

var approvedText = template.Must(template.New("approved").Parse(
	"Hi {{.UserInfo.Name}},\n\nYour booking for {{.SelectedHall}} on {{.Date}} from {{.StartTime}} to {{.EndTime}} has been approved.\n\nThank you for booking with us.\n"))

var messageHTML = htmltemplate.Must(htmltemplate.New("message").Parse(`
<h2>{{.Subject}}</h2>
<p>{{.Message}}</p>
`))

func renderApproved(p notify.BookingApprovedPayload) (text, html string, err error) {
	var tb, hb bytes.Buffer
	if err := approvedText.Execute(&tb, p); err != nil {
		return "", "", err
	}
	if err := approvedHTML.Execute(&hb, p); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}

func renderMessage(p notify.PasswordChangedPayload) (string, error) {
	var hb bytes.Buffer
	if err := messageHTML.Execute(&hb, p); err != nil {
		return "", err
	}
	return hb.String(), nil
}
