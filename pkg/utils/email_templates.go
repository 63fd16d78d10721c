package utils

import (
	"bytes"
	"fmt"
	"html/template"
)

const emailLayout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; margin: 0; padding: 0;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<div style="text-align: center; margin-bottom: 30px; background-color: #f4f1ea; padding: 20px;">
			<h2 style="color: #8b5e34; margin: 0;">Rosetta Holiday Home</h2>
		</div>
		<div style="background-color: #f9f9f9; padding: 20px; border-radius: 5px;">
			{{template "content" .}}
			<p>Best regards,<br>The Rosetta Holiday Home Team</p>
		</div>
		<div style="text-align: center; margin-top: 20px; font-size: 12px; color: #666; border-top: 1px solid #eee; padding-top: 20px;">
			<p>This is an automated message, please do not reply to this email.</p>
		</div>
	</div>
</body>
</html>{{end}}`

const buttonStyle = `background-color: #8b5e34; color: white; padding: 12px 25px; text-decoration: none; border-radius: 5px;`

var emailContents = map[string]string{
	"booking_confirmation": `
<h1 style="color: #2c3e50; text-align: center;">Booking Received</h1>
<p>Hello {{.GuestName}},</p>
<p>Thank you for booking <strong>{{.PropertyTitle}}</strong> in {{.Location}}.</p>
<table style="width: 100%;">
	<tr><td>Booking reference</td><td><strong>{{.BookingID}}</strong></td></tr>
	<tr><td>Check-in</td><td>{{.CheckIn}}</td></tr>
	<tr><td>Check-out</td><td>{{.CheckOut}}</td></tr>
	<tr><td>Nights</td><td>{{.Nights}}</td></tr>
	<tr><td>Guests</td><td>{{.Guests}}</td></tr>
	<tr><td>Total</td><td>{{.Total}}</td></tr>
</table>
{{if .HostContact}}<p>Host contact: <strong>{{.HostContact}}</strong></p>{{end}}
{{if .PinLocation}}<p>Location pin: <a href="{{.PinLocation}}">{{.PinLocation}}</a></p>{{end}}
<p>Your booking is pending confirmation by the host. Keep your reference to view it at any time.</p>
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">View Booking</a></div>`,

	"new_booking_alert": `
<h1 style="color: #2c3e50; text-align: center;">New Booking Request</h1>
<p>Hello {{.HostName}},</p>
<p><strong>{{.GuestName}}</strong> has booked <strong>{{.PropertyTitle}}</strong>.</p>
<table style="width: 100%;">
	<tr><td>Check-in</td><td>{{.CheckIn}}</td></tr>
	<tr><td>Check-out</td><td>{{.CheckOut}}</td></tr>
	<tr><td>Guests</td><td>{{.Guests}}</td></tr>
	<tr><td>Total</td><td>{{.Total}}</td></tr>
	<tr><td>Guest email</td><td>{{.GuestEmail}}</td></tr>
	<tr><td>Guest phone</td><td>{{.GuestPhone}}</td></tr>
</table>
{{if .SpecialRequests}}<p>Special requests: {{.SpecialRequests}}</p>{{end}}
<p>Please confirm or cancel this booking from your dashboard.</p>
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">Open Dashboard</a></div>`,

	"booking_status": `
<h1 style="color: #2c3e50; text-align: center;">Booking {{.Status}}</h1>
<p>Hello {{.GuestName}},</p>
<p>Your booking <strong>{{.BookingID}}</strong> for <strong>{{.PropertyTitle}}</strong> ({{.CheckIn}} to {{.CheckOut}}) is now <strong>{{.Status}}</strong>.</p>
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">View Booking</a></div>`,

	"property_approved": `
<h1 style="color: #2c3e50; text-align: center;">Property Approved</h1>
<p>Hello {{.HostName}},</p>
<p>Great news! <strong>{{.PropertyTitle}}</strong> has been approved and is now visible to guests.</p>
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">View Listing</a></div>`,

	"property_rejected": `
<h1 style="color: #2c3e50; text-align: center;">Property Not Approved</h1>
<p>Hello {{.HostName}},</p>
<p>Unfortunately <strong>{{.PropertyTitle}}</strong> was not approved.</p>
<p>Reason: {{.Reason}}</p>
<p>You can update the listing and it will be reviewed again.</p>`,

	"welcome": `
<h1 style="color: #2c3e50; text-align: center;">Welcome!</h1>
<p>Hello {{.Name}},</p>
<p>Your Rosetta Holiday Home account is ready. Browse stays or list your own home.</p>
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">Get Started</a></div>`,

	"password_reset": `
<h1 style="color: #2c3e50; text-align: center;">Password Reset</h1>
<p>Hello {{.Name}},</p>
<p>We received a request to reset your password. The link below expires in one hour.</p>
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">Reset Password</a></div>
<p>If you didn't request this, you can ignore this email.</p>`,

	"password_changed": `
<h1 style="color: #2c3e50; text-align: center;">Password Changed</h1>
<p>Hello {{.Name}},</p>
<p>Your password was changed successfully. If this wasn't you, contact support immediately.</p>`,

	"new_review": `
<h1 style="color: #2c3e50; text-align: center;">New Review</h1>
<p>Hello {{.HostName}},</p>
<p>{{.AuthorName}} left a {{.Rating}}-star review for <strong>{{.PropertyTitle}}</strong>.</p>
{{if .Comment}}<blockquote>{{.Comment}}</blockquote>{{end}}
<div style="text-align: center; margin: 30px 0;"><a href="{{.Link}}" style="` + buttonStyle + `">Respond</a></div>`,

	"host_response": `
<h1 style="color: #2c3e50; text-align: center;">Your Host Replied</h1>
<p>Hello {{.Name}},</p>
<p>The host of <strong>{{.PropertyTitle}}</strong> responded to your review:</p>
<blockquote>{{.Response}}</blockquote>`,

	"test": `
<h1 style="color: #2c3e50; text-align: center;">Test Notification</h1>
<p>This is a test message sent at {{.SentAt}}. Email delivery is working.</p>`,
}

var emailTemplates = mustParseEmails()

func mustParseEmails() map[string]*template.Template {
	out := make(map[string]*template.Template, len(emailContents))
	for name, content := range emailContents {
		t := template.Must(template.New(name).Parse(emailLayout))
		template.Must(t.New("content").Parse(content))
		out[name] = t
	}
	return out
}

// RenderEmail renders the named body inside the common layout.
func RenderEmail(name string, data any) (string, error) {
	t, ok := emailTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown email template %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("render %s email: %w", name, err)
	}
	return buf.String(), nil
}
