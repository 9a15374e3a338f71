package domain

import (
	"errors"
	"time"

	"gorm.io/datatypes"
)

var ErrNotificationNotFound = errors.New("notification not found")

// Channel is the delivery medium of a notification.
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
)

// NotificationStatus tracks delivery progress.
type NotificationStatus string

const (
	NotificationPending NotificationStatus = "pending"
	NotificationSent    NotificationStatus = "sent"
	NotificationFailed  NotificationStatus = "failed"
	NotificationRead    NotificationStatus = "read"
)

// Notification is a message addressed to a single user on one channel.
// Email rows are delivered asynchronously; in-app rows are born "sent".
type Notification struct {
	ID          uint               `gorm:"primaryKey" json:"id"`
	RecipientID uint               `gorm:"index;not null" json:"recipient_id"`
	Channel     Channel            `gorm:"size:10;index;not null" json:"channel"`
	Title       string             `gorm:"size:200;not null" json:"title"`
	Message     string             `gorm:"type:text;not null" json:"message"`
	CaseID      *uint              `gorm:"index" json:"case_id,omitempty"`
	LivestockID *uint              `json:"livestock_id,omitempty"`
	Status      NotificationStatus `gorm:"size:10;index;not null" json:"status"`
	Destination string             `gorm:"size:254" json:"-"`
	Attempts    int                `gorm:"not null;default:0" json:"-"`
	LastError   string             `gorm:"type:text" json:"-"`
	Metadata    datatypes.JSON     `json:"metadata,omitempty"`
	SentAt      *time.Time         `json:"sent_at,omitempty"`
	ReadAt      *time.Time         `json:"read_at,omitempty"`
	CreatedAt   time.Time          `gorm:"index" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }

// Message is the payload handed to the notification fan-out.
type Message struct {
	Title       string
	Body        string
	CaseID      *uint
	LivestockID *uint
	Metadata    map[string]any
}

// EmailJob is one queued email delivery attempt for a pending notification.
type EmailJob struct {
	NotificationID uint
	To             string
	Subject        string
	Body           string
	Attempt        int
}
