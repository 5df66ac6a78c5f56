package email

import (
	"fmt"
	"html"
	"time"
)

const appName = "Echoes of Art"

type message struct {
	Subject string
	HTML    string
	Text    string
}

func otpMessage(name, code string, ttl time.Duration) message {
	minutes := int(ttl.Minutes())
	safeName := html.EscapeString(name)
	return message{
		Subject: fmt.Sprintf("Your %s verification code", appName),
		HTML: fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Verify your email</h1>
    <p>Hi %s,</p>
    <p>Use this code to finish creating your %s account. It expires in %d minutes.</p>
    <p style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">%s</p>
    <p>If you didn't sign up, you can ignore this email.</p>
  </div>
</body>
</html>`, safeName, appName, minutes, code),
		Text: fmt.Sprintf(`Hi %s,

Your %s verification code is %s. It expires in %d minutes.

If you didn't sign up, you can ignore this email.
`, name, appName, code, minutes),
	}
}

func welcomeMessage(name, clientURL string) message {
	safeName := html.EscapeString(name)
	return message{
		Subject: fmt.Sprintf("Welcome to %s", appName),
		HTML: fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #333;">
  <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
    <h1>Welcome, %s!</h1>
    <p>Your email is verified. Start sharing your art and writing at <a href="%s">%s</a>.</p>
  </div>
</body>
</html>`, safeName, clientURL, clientURL),
		Text: fmt.Sprintf(`Welcome, %s!

Your email is verified. Start sharing your art and writing at %s.
`, name, clientURL),
	}
}
