package model

import "time"

// Notification is a persisted message for a single user.
type Notification struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"userId"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Type           string    `json:"type"`
	Read           bool      `json:"read"`
	RelatedItemID  *int64    `json:"relatedItemId,omitempty"`
	RelatedClaimID *int64    `json:"relatedClaimId,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Notification types.
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)
