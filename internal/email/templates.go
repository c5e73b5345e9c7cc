package email

import (
	"fmt"
	"html"
	"net/url"
)

// Message is a rendered email ready for a Sender.
type Message struct {
	Kind    string // verification, welcome or password_reset
	Subject string
	Body    string
}

// Links builds the app URLs embedded in account emails.
type Links struct {
	base string
}

func NewLinks(appURL string) Links {
	return Links{base: appURL}
}

func (l Links) with(path, token string) string {
	return l.base + path + "?token=" + url.QueryEscape(token)
}

func Verification(l Links, name, token string) Message {
	link := l.with("/verify-email", token)
	return Message{
		Kind:    "verification",
		Subject: "Verify your Wisdom Hub email",
		Body: fmt.Sprintf(
			`<p>Hi %s,</p><p>Confirm your email address to start using Wisdom Hub (link expires in 24 hours):</p><p><a href="%s">%s</a></p>`,
			html.EscapeString(name), link, link,
		),
	}
}

func Welcome(name string) Message {
	return Message{
		Kind:    "welcome",
		Subject: "Welcome to Wisdom Hub",
		Body: fmt.Sprintf(
			`<p>Hi %s,</p><p>Your email is verified. Your daily wisdom is waiting for you in the app.</p>`,
			html.EscapeString(name),
		),
	}
}

func PasswordReset(l Links, name, token string) Message {
	link := l.with("/reset-password", token)
	return Message{
		Kind:    "password_reset",
		Subject: "Reset your Wisdom Hub password",
		Body: fmt.Sprintf(
			`<p>Hi %s,</p><p>Use the link below to choose a new password (expires in 1 hour):</p><p><a href="%s">%s</a></p><p>If you did not ask for this, you can ignore this email.</p>`,
			html.EscapeString(name), link, link,
		),
	}
}
