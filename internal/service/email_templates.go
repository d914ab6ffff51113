package service

import (
	"fmt"
	"time"
)

func passwordResetEmailTemplate(name, resetURL, appName string, expiresIn time.Duration) (string, string) {
	subject := "Password Reset Request"
	greeting := "Hi,"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s,", name)
	}

	body := fmt.Sprintf(`%s

You are receiving this email because you (or someone else) requested a password reset for your %s account.

Reset your password here:
%s

This link expires in %d minutes and can only be used once.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, greeting, appName, resetURL, int(expiresIn.Minutes()), appName)

	return subject, body
}
