package service

import (
	"bytes"
	"embed"
	"html/template"
	"time"
)

//go:embed templates/*.html
var mailTemplatesFS embed.FS

var mailTemplates = template.Must(template.ParseFS(mailTemplatesFS, "templates/*.html"))

type mailTemplateData struct {
	Code string
	Year int
}

func renderMailTemplate(name, code string) (string, error) {
	var buf bytes.Buffer
	data := mailTemplateData{Code: code, Year: time.Now().UTC().Year()}
	if err := mailTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderVerificationEmail renders the registration confirmation body
// carrying the 6-digit code.
func RenderVerificationEmail(code string) (string, error) {
	return renderMailTemplate("verify_email.html", code)
}

// RenderPasswordResetEmail renders the password-reset body carrying the
// 6-digit code.
func RenderPasswordResetEmail(code string) (string, error) {
	return renderMailTemplate("reset_password.html", code)
}
