package hiring

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/teachhire/marketplace/backend/internal/domain"
	"github.com/teachhire/marketplace/backend/internal/store"
)

// dispatch records the notification for entering status. It returns a nil
// notification for statuses that do not notify and for dedupe key hits.
func (e *Engine) dispatch(ctx context.Context, tx store.Tx, recipientID string, applicationID int64, status domain.ApplicationStatus) (*domain.Notification, bool, error) {
	if !status.Notifies() {
		return nil, false, nil
	}

	n := &domain.Notification{
		RecipientID:          recipientID,
		Kind:                 domain.KindApplicationStatus,
		RelatedApplicationID: applicationID,
		Status:               status,
		DedupeKey:            domain.DedupeKey(applicationID, status),
		CreatedAt:            e.clock(),
	}

	created, err := tx.InsertNotification(ctx, n)
	if err != nil {
		return nil, false, errors.Wrapf(err, "insert notification %s", n.DedupeKey)
	}
	if !created {
		return nil, false, nil
	}
	return n, true, nil
}

// Dispatch emits the notification for an application entering status. Calling
// it again for the same application and status is a no-op, which makes it safe
// under redelivered triggers.
func (e *Engine) Dispatch(ctx context.Context, recipientID string, applicationID int64, status domain.ApplicationStatus) (*domain.Notification, bool, error) {
	if !status.Valid() {
		return nil, false, domain.Validationf("unknown status %q", status)
	}

	var (
		n       *domain.Notification
		created bool
	)
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		n, created, err = e.dispatch(ctx, tx, recipientID, applicationID, status)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		e.queueStatusMail(ctx, n)
	}
	return n, created, nil
}

func (e *Engine) queueStatusMail(ctx context.Context, n *domain.Notification) {
	if e.mail == nil {
		return
	}

	recipient, err := e.store.GetAccount(ctx, n.RecipientID)
	if err != nil {
		e.logger.Warn("notification recipient not found", "recipient", n.RecipientID, "error", err)
		return
	}

	data := domain.ApplicationStatusMailData{
		ApplicationID: n.RelatedApplicationID,
		Status:        n.Status,
	}
	if app, err := e.store.GetApplication(ctx, n.RelatedApplicationID); err == nil {
		if job, err := e.store.GetJob(ctx, app.JobID); err == nil {
			data.JobTitle = job.Title
		}
	}

	e.publish(ctx, domain.MailMessage{
		Type: domain.MailApplicationStatus,
		To:   recipient.Email,
		Data: data,
	})
}

func (e *Engine) ListNotifications(ctx context.Context, recipientID string, unreadOnly bool) ([]*domain.Notification, error) {
	return e.store.ListNotifications(ctx, recipientID, unreadOnly)
}

func (e *Engine) CountUnreadNotifications(ctx context.Context, recipientID string) (int, error) {
	return e.store.CountUnreadNotifications(ctx, recipientID)
}

// MarkNotificationRead is only allowed for the recipient.
func (e *Engine) MarkNotificationRead(ctx context.Context, notificationID int64, recipientID string) (*domain.Notification, error) {
	var n *domain.Notification
	err := e.store.Transactionally(ctx, func(tx store.Tx) error {
		var err error
		n, err = tx.MarkNotificationRead(ctx, notificationID, recipientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}
