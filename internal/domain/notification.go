package domain

import (
	"strconv"
	"time"
)

type NotificationKind string

const KindApplicationStatus NotificationKind = "application_status"

type Notification struct {
	ID                   int64             `json:"id"`
	RecipientID          string            `json:"recipientID"`
	Kind                 NotificationKind  `json:"kind"`
	RelatedApplicationID int64             `json:"relatedApplicationID"`
	Status               ApplicationStatus `json:"status"`
	DedupeKey            string            `json:"dedupeKey"`
	Read                 bool              `json:"read"`
	CreatedAt            time.Time         `json:"createdAt"`
}

func DedupeKey(applicationID int64, status ApplicationStatus) string {
	return strconv.FormatInt(applicationID, 10) + "_" + string(status)
}
