// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrMailingNotFound is a sentinel error
type ErrMailingNotFound struct {
	MailingID int
}

func (e *ErrMailingNotFound) Error() string {
	return fmt.Sprintf("mailing with ID %d not found", e.MailingID)
}

// Helper constructor
func NewMailingNotFound(id int) error {
	return &ErrMailingNotFound{MailingID: id}
}

type ErrSubscriberNotFound struct {
	SubscriberID int
}

func (e *ErrSubscriberNotFound) Error() string {
	return fmt.Sprintf("subscriber with ID %d not found", e.SubscriberID)
}

func NewSubscriberNotFound(id int) error {
	return &ErrSubscriberNotFound{SubscriberID: id}
}

var (
	// ErrMessageNotFound is returned by status updates against a message row
	// that no longer exists.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidWindow is returned when start_time is not strictly before end_time.
	ErrInvalidWindow = errors.New("start_time must be before end_time")

	// ErrMailingActive is returned when a mailing is mutated while the current
	// time lies inside its dispatch window.
	ErrMailingActive = errors.New("mailing window is open, updates are rejected")

	// ErrSubscriberExists is returned on phone collisions.
	ErrSubscriberExists = errors.New("subscriber with given phone exists")
)
