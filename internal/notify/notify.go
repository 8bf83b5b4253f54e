// Package notify sends transactional messages about subscription changes.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"billing/internal/domain"
)

// Kind identifies the account event a message is about.
type Kind string

const (
	KindAccountExtended Kind = "account_extended"
	KindAccountExpired  Kind = "account_expired"
	KindExpiresSoon     Kind = "account_expires_soon"
)

// Event carries everything a message template needs.
type Event struct {
	Kind     Kind
	Contact  domain.Contact
	PlanName string
	Expire   *time.Time
	DaysLeft int
}

// Message is a rendered e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers account events to users.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

type templateSet struct {
	subject string
	body    *template.Template
}

var templates = map[Kind]templateSet{
	KindAccountExtended: {
		subject: "Your {{.Plan}} plan has been extended",
		body: template.Must(template.New("extended").Parse(`Hello {{.Name}},

your {{.Plan}} plan is active{{if .Expire}} until {{.Expire}}{{end}}.
Thank you for your purchase.
`)),
	},
	KindAccountExpired: {
		subject: "Your {{.Plan}} plan has expired",
		body: template.Must(template.New("expired").Parse(`Hello {{.Name}},

your {{.Plan}} plan expired{{if .Expire}} on {{.Expire}}{{end}}.
Renew it any time to restore access.
`)),
	},
	KindExpiresSoon: {
		subject: "Your {{.Plan}} plan expires in {{.Days}}",
		body: template.Must(template.New("expires_soon").Parse(`Hello {{.Name}},

your {{.Plan}} plan expires in {{.Days}}{{if .Expire}} ({{.Expire}}){{end}}.
Extend it now to keep uninterrupted access.
`)),
	},
}

type templateData struct {
	Name   string
	Plan   string
	Expire string
	Days   string
}

// Compose renders the message for an event.
func Compose(e Event) (Message, error) {
	set, ok := templates[e.Kind]
	if !ok {
		return Message{}, fmt.Errorf("notify: unknown event kind %q", e.Kind)
	}
	if strings.TrimSpace(e.Contact.Email) == "" {
		return Message{}, fmt.Errorf("notify: user %s has no e-mail address", e.Contact.UserID)
	}
	tag := parseLocale(e.Contact.Locale)
	p := message.NewPrinter(tag)

	data := templateData{
		Name: e.Contact.Name,
		Plan: cases.Title(tag).String(e.PlanName),
	}
	if data.Name == "" {
		data.Name = e.Contact.Email
	}
	if e.Expire != nil {
		data.Expire = e.Expire.Format("2006-01-02")
	}
	if e.DaysLeft == 1 {
		data.Days = "1 day"
	} else {
		data.Days = p.Sprintf("%d days", e.DaysLeft)
	}

	subject, err := render(template.Must(template.New("subject").Parse(set.subject)), data)
	if err != nil {
		return Message{}, err
	}
	body, err := render(set.body, data)
	if err != nil {
		return Message{}, err
	}
	return Message{To: e.Contact.Email, Subject: subject, Body: body}, nil
}

func render(t *template.Template, data templateData) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("notify: render %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

func parseLocale(locale string) language.Tag {
	if strings.TrimSpace(locale) == "" {
		return language.English
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English
	}
	return tag
}
