package mailer

import (
	"encoding/json"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

// ErrUnknownType is returned for messages no template exists for. Such
// messages cannot succeed on redelivery.
var ErrUnknownType = errors.New("unknown mail type")

type envelope struct {
	Type string          `json:"type"`
	To   string          `json:"to"`
	Data json.RawMessage `json:"data"`
}

var statusSubjects = map[domain.ApplicationStatus]string{
	domain.StatusShortlisted: "You have been shortlisted",
	domain.StatusInterview:   "You have been invited to an interview",
	domain.StatusHired:       "Congratulations, you have been hired",
	domain.StatusRejected:    "An update on your application",
}

// Composer turns queued mail messages into ready-to-send mails.
type Composer struct {
	from        string
	templateDir string
}

func NewComposer(from, templateDir string) *Composer {
	return &Composer{from: from, templateDir: templateDir}
}

// Compose decodes a queued message body and renders its template.
func (c *Composer) Compose(body []byte) (*mail.Msg, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, errors.Wrap(err, "decode mail message")
	}

	var (
		file    string
		subject string
		data    any
	)
	switch env.Type {
	case domain.MailApplicationStatus:
		var d domain.ApplicationStatusMailData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, errors.Wrap(err, "decode application status data")
		}
		file, data = "application_status.html", d
		subject = statusSubjects[d.Status]
		if subject == "" {
			subject = "Your application status changed"
		}
		if d.JobTitle != "" {
			subject = fmt.Sprintf("%s: %s", subject, d.JobTitle)
		}
	case domain.MailEntitlementUpgraded:
		var d domain.EntitlementUpgradedMailData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return nil, errors.Wrap(err, "decode entitlement data")
		}
		file, data = "entitlement_upgraded.html", d
		subject = "Your TeachHire plan is active"
	default:
		return nil, errors.Wrapf(ErrUnknownType, "%q", env.Type)
	}

	tmpl, err := template.ParseFiles(filepath.Join(c.templateDir, file))
	if err != nil {
		return nil, errors.Wrapf(err, "parse template %s", file)
	}

	msg := mail.NewMsg()
	if err := msg.From(c.from); err != nil {
		return nil, errors.Wrap(err, "set sender")
	}
	if err := msg.To(env.To); err != nil {
		return nil, errors.Wrap(err, "set recipient")
	}
	msg.Subject(subject)
	if err := msg.SetBodyHTMLTemplate(tmpl, data); err != nil {
		return nil, errors.Wrap(err, "render body")
	}

	return msg, nil
}
