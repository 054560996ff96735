package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/descensiontohell/mailing-service/internal/errors"
	"github.com/descensiontohell/mailing-service/internal/model"
)

type MessageRepositoryInterface interface {
	GetOrCreatePending(mailingID, subscriberID int) (*model.Message, error)
	UpdateStatus(id int, status model.MessageStatus, sentAt *time.Time) error
	StatsByMailing(mailingID int) (map[string]int, error)
}

type MessageRepository struct {
	DB *sql.DB
}

// GetOrCreatePending returns the message row for the (mailing, subscriber)
// pair, creating a pending one when none exists yet. The pair carries a
// unique index, so two concurrent callers cannot both insert: the loser of
// the ON CONFLICT race falls through to a re-select of the winner's row.
func (r *MessageRepository) GetOrCreatePending(mailingID, subscriberID int) (*model.Message, error) {
	existing, err := r.getByPair(mailingID, subscriberID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil // return the existing one, whatever its status
	}

	query := `
        INSERT INTO messages (mailing_id, subscriber_id, status)
        VALUES ($1, $2, 'pending')
        ON CONFLICT (mailing_id, subscriber_id) DO NOTHING
        RETURNING id, status, sent_at
    `
	var msg model.Message
	err = r.DB.QueryRow(query, mailingID, subscriberID).Scan(&msg.ID, &msg.Status, &msg.SentAt)
	if err == sql.ErrNoRows {
		// Lost the insert race, the row exists now.
		return r.getByPair(mailingID, subscriberID)
	}
	if err != nil {
		return nil, err
	}

	msg.MailingID = mailingID
	msg.SubscriberID = subscriberID
	return &msg, nil
}

func (r *MessageRepository) getByPair(mailingID, subscriberID int) (*model.Message, error) {
	query := `
        SELECT id, mailing_id, subscriber_id, status, sent_at
        FROM messages
        WHERE mailing_id=$1 AND subscriber_id=$2
    `
	var msg model.Message
	err := r.DB.QueryRow(query, mailingID, subscriberID).Scan(
		&msg.ID, &msg.MailingID, &msg.SubscriberID, &msg.Status, &msg.SentAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// UpdateStatus overwrites the status and, when sentAt is non-nil, the
// sent_at stamp of an existing message row.
func (r *MessageRepository) UpdateStatus(id int, status model.MessageStatus, sentAt *time.Time) error {
	query := `
        UPDATE messages
        SET status=$1, sent_at=COALESCE($2, sent_at)
        WHERE id=$3
    `
	res, err := r.DB.Exec(query, status, sentAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return appErrors.ErrMessageNotFound
	}
	return nil
}

func (r *MessageRepository) StatsByMailing(mailingID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM messages WHERE mailing_id=$1 GROUP BY status`
	rows, err := r.DB.Query(query, mailingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"pending": 0, "delivered": 0, "failed": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

var _ MessageRepositoryInterface = (*MessageRepository)(nil)
