package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var codeHTML = template.Must(template.New("code").Parse(
	`<p>Hi {{.Name}},</p>
<p>{{.Intro}}</p>
<p style="font-size:24px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>This code expires in {{.Minutes}} minutes. If you did not request it, you can ignore this email.</p>`))

type codeData struct {
	Name    string
	Intro   string
	Code    string
	Minutes int
}

// VerificationCode builds the email carrying an email verification code.
func VerificationCode(to, name, code string, validity time.Duration) Message {
	return codeMessage(to, "Verify your email", codeData{
		Name:    name,
		Intro:   "Use this code to verify your email address:",
		Code:    code,
		Minutes: minutes(validity),
	})
}

// PasswordResetCode builds the email carrying a password reset code.
func PasswordResetCode(to, name, code string, validity time.Duration) Message {
	return codeMessage(to, "Reset your password", codeData{
		Name:    name,
		Intro:   "Use this code to reset your password:",
		Code:    code,
		Minutes: minutes(validity),
	})
}

func codeMessage(to, subject string, d codeData) Message {
	text := fmt.Sprintf("Hi %s,\n\n%s %s\n\nThis code expires in %d minutes. If you did not request it, you can ignore this email.\n",
		d.Name, d.Intro, d.Code, d.Minutes)

	var html bytes.Buffer
	if err := codeHTML.Execute(&html, d); err != nil {
		// Plain text is enough to deliver the code.
		return Message{To: to, Subject: subject, Text: text}
	}
	return Message{To: to, Subject: subject, Text: text, HTML: html.String()}
}

func minutes(d time.Duration) int {
	m := int(d.Round(time.Minute) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}
