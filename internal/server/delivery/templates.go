package delivery

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const VerificationEmailSubject = "Verify Your EaseBox Account"

var verificationEmailTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">Verify Your Email</h2>
  <p>Thank you for registering with EaseBox. Please use the following code to verify your email address:</p>
  <div style="background-color: #f5f5f5; padding: 20px; text-align: center; margin: 20px 0;">
    <span style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #333;">{{.Code}}</span>
  </div>
  <p>This code will expire in <strong>{{.Minutes}} minutes</strong>.</p>
  <p>If you didn't create an account with EaseBox, please ignore this email.</p>
  <hr style="border: none; border-top: 1px solid #eee; margin: 20px 0;">
  <p style="color: #666; font-size: 12px;">This is an automated message, please do not reply.</p>
</div>
`))

// VerificationEmail renders the HTML body carrying code.
func VerificationEmail(code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := verificationEmailTmpl.Execute(&buf, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl.Minutes())})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

func VerificationSMS(code string, ttl time.Duration) string {
	return fmt.Sprintf("Your EaseBox verification code is: %s. Valid for %d minutes.", code, int(ttl.Minutes()))
}
