package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/wneessen/go-mail"
)

type publishedMessage struct {
	key string
	msg amqp.Publishing
}

type fakeChannel struct {
	published []publishedMessage
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	c.published = append(c.published, publishedMessage{key: key, msg: msg})
	return nil
}

func TestPublisher(t *testing.T) {
	ch := &fakeChannel{}
	p := NewPublisher(ch, "email_queue", time.Second)

	msg := domain.MailMessage{
		Type: domain.MailApplicationStatus,
		To:   "cand1@example.com",
		Data: domain.ApplicationStatusMailData{ApplicationID: 7, JobTitle: "Physics teacher", Status: domain.StatusShortlisted},
	}
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, ch.published, 1)
	published := ch.published[0]
	assert.Equal(t, "email_queue", published.key)
	assert.Equal(t, "application/json", published.msg.ContentType)
	assert.Equal(t, amqp.Persistent, published.msg.DeliveryMode)
	assert.NotEmpty(t, published.msg.MessageId)
	assert.JSONEq(t, `{
		"type": "application_status",
		"to": "cand1@example.com",
		"data": {"applicationID": 7, "jobTitle": "Physics teacher", "status": "shortlisted"}
	}`, string(published.msg.Body))
}

func writeTemplates(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"application_status.html":   `<p>{{.JobTitle}} is now {{.Status}}</p>`,
		"entitlement_upgraded.html": `<p>plan {{.Tier}}</p>`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	return dir
}

func TestComposer(t *testing.T) {
	c := NewComposer("noreply@teachhire.example.com", writeTemplates(t))

	body, err := json.Marshal(domain.MailMessage{
		Type: domain.MailApplicationStatus,
		To:   "cand1@example.com",
		Data: domain.ApplicationStatusMailData{ApplicationID: 7, JobTitle: "Physics", Status: domain.StatusInterview},
	})
	require.NoError(t, err)

	msg, err := c.Compose(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"You have been invited to an interview: Physics"}, msg.GetGenHeader(mail.HeaderSubject))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Physics is now interview")
	assert.Contains(t, buf.String(), "cand1@example.com")

	body, err = json.Marshal(domain.MailMessage{
		Type: domain.MailEntitlementUpgraded,
		To:   "cand1@example.com",
		Data: domain.EntitlementUpgradedMailData{Tier: domain.TierPremium},
	})
	require.NoError(t, err)

	msg, err = c.Compose(body)
	require.NoError(t, err)
	assert.Equal(t, []string{"Your TeachHire plan is active"}, msg.GetGenHeader(mail.HeaderSubject))
}

func TestComposerRejectsBadMessages(t *testing.T) {
	c := NewComposer("noreply@teachhire.example.com", writeTemplates(t))

	_, err := c.Compose([]byte(`{"type": "create_user", "to": "a@example.com", "data": {}}`))
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = c.Compose([]byte(`not json`))
	assert.Error(t, err)

	_, err = c.Compose([]byte(`{"type": "entitlement_upgraded", "to": "not an address", "data": {"tier": "premium"}}`))
	assert.Error(t, err)
}
