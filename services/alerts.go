package services

import (
	"fmt"
	"html"
	"time"

	"streamgate/mail"
	"streamgate/models"
)

const resetEmailTag = "password-reset"

// resetEmail builds the password reset message. The link is the only
// credential it carries.
func resetEmail(user *models.User, link string, ttl time.Duration) mail.Message {
	greeting := "Hello,"
	if user.FullName != nil && *user.FullName != "" {
		greeting = fmt.Sprintf("Hello %s,", *user.FullName)
	}

	subject := "Reset your Streamgate password"

	plainTextContent := fmt.Sprintf(`%s

We received a request to reset the password for %s.

Open the link below to choose a new password:
%s

The link expires in %d minutes and can be used once.
If you did not ask for this, ignore this email; your password stays unchanged.`,
		greeting,
		user.Email,
		link,
		int(ttl.Minutes()),
	)

	htmlContent := fmt.Sprintf(`<p>%s</p>
<p>We received a request to reset the password for %s.</p>
<p><a href="%s">Choose a new password</a></p>
<p>The link expires in %d minutes and can be used once.<br>
If you did not ask for this, ignore this email; your password stays unchanged.</p>`,
		html.EscapeString(greeting),
		html.EscapeString(user.Email),
		html.EscapeString(link),
		int(ttl.Minutes()),
	)

	return mail.Message{
		To:      user.Email,
		Subject: subject,
		Text:    plainTextContent,
		HTML:    htmlContent,
		Tag:     resetEmailTag,
	}
}
