package repository

import (
	"database/sql"
	"time"

	"github.com/descensiontohell/mailing-service/internal/model"
)

type MailingRepositoryInterface interface {
	Create(m *model.Mailing) error
	Update(m *model.Mailing) error
	Delete(id int) (bool, error)
	GetByID(id int) (*model.Mailing, error)
	List(offset, limit int) ([]*model.Mailing, int, error)
	ListUnfinished(now time.Time) ([]*model.Mailing, error)
}

type MailingRepository struct {
	DB *sql.DB
}

func (r *MailingRepository) Create(m *model.Mailing) error {
	query := `
        INSERT INTO mailings (mail_text, user_filter, start_time, end_time)
        VALUES ($1, $2, $3, $4)
        RETURNING id
    `
	return r.DB.QueryRow(query, m.MailText, m.UserFilter, m.StartTime, m.EndTime).Scan(&m.ID)
}

func (r *MailingRepository) Update(m *model.Mailing) error {
	query := `
        UPDATE mailings
        SET mail_text=$1, user_filter=$2, start_time=$3, end_time=$4
        WHERE id=$5
    `
	_, err := r.DB.Exec(query, m.MailText, m.UserFilter, m.StartTime, m.EndTime, m.ID)
	return err
}

func (r *MailingRepository) Delete(id int) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM mailings WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID returns (nil, nil) when the mailing does not exist. A deleted
// mailing is an absent value, not an error: the scheduler treats it as a
// cancellation signal at fire time.
func (r *MailingRepository) GetByID(id int) (*model.Mailing, error) {
	query := `
        SELECT id, mail_text, user_filter, start_time, end_time
        FROM mailings WHERE id=$1
    `
	var m model.Mailing
	err := r.DB.QueryRow(query, id).Scan(&m.ID, &m.MailText, &m.UserFilter, &m.StartTime, &m.EndTime)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MailingRepository) List(offset, limit int) ([]*model.Mailing, int, error) {
	mailings := []*model.Mailing{}
	query := `
        SELECT id, mail_text, user_filter, start_time, end_time
        FROM mailings
        ORDER BY id DESC LIMIT $1 OFFSET $2
    `
	rows, err := r.DB.Query(query, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		m := &model.Mailing{}
		if err := rows.Scan(&m.ID, &m.MailText, &m.UserFilter, &m.StartTime, &m.EndTime); err != nil {
			return nil, 0, err
		}
		mailings = append(mailings, m)
	}

	var total int
	if err := r.DB.QueryRow(`SELECT COUNT(*) FROM mailings`).Scan(&total); err != nil {
		return nil, 0, err
	}

	return mailings, total, nil
}

// ListUnfinished returns mailings whose window has not yet closed. The server
// re-registers a scheduler unit for each of them on startup, so an engine
// restart does not drop scheduled work.
func (r *MailingRepository) ListUnfinished(now time.Time) ([]*model.Mailing, error) {
	query := `
        SELECT id, mail_text, user_filter, start_time, end_time
        FROM mailings
        WHERE end_time > $1
        ORDER BY id
    `
	rows, err := r.DB.Query(query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mailings := []*model.Mailing{}
	for rows.Next() {
		m := &model.Mailing{}
		if err := rows.Scan(&m.ID, &m.MailText, &m.UserFilter, &m.StartTime, &m.EndTime); err != nil {
			return nil, err
		}
		mailings = append(mailings, m)
	}
	return mailings, rows.Err()
}

var _ MailingRepositoryInterface = (*MailingRepository)(nil)
