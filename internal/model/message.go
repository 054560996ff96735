// internal/model/message.go
package model

import "time"

type MessageStatus string

const (
	StatusPending   MessageStatus = "pending"
	StatusDelivered MessageStatus = "delivered"
	StatusFailed    MessageStatus = "failed"
)

type Message struct {
	ID           int           `db:"id" json:"id"`
	MailingID    int           `db:"mailing_id" json:"mailing_id"`
	SubscriberID int           `db:"subscriber_id" json:"subscriber_id"`
	Status       MessageStatus `db:"status" json:"status"`
	SentAt       *time.Time    `db:"sent_at" json:"sent_at,omitempty"`
}
