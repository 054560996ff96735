package repository

import (
	"database/sql"

	"github.com/descensiontohell/mailing-service/internal/model"
)

// SubscriberRepositoryInterface defines methods used by service
type SubscriberRepositoryInterface interface {
	Create(s *model.Subscriber) error
	Update(s *model.Subscriber) error
	Delete(id int) (bool, error)
	GetByID(id int) (*model.Subscriber, error)
	GetByPhone(phone string) (*model.Subscriber, error)
	ListAll() ([]model.Subscriber, error)
}

// SubscriberRepository is the concrete implementation
type SubscriberRepository struct {
	DB *sql.DB
}

func (r *SubscriberRepository) Create(s *model.Subscriber) error {
	query := `
        INSERT INTO subscribers (phone, category, group_name)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	return r.DB.QueryRow(query, s.Phone, s.Category, s.Group).Scan(&s.ID)
}

func (r *SubscriberRepository) Update(s *model.Subscriber) error {
	query := `
        UPDATE subscribers
        SET phone=$1, category=$2, group_name=$3
        WHERE id=$4
    `
	_, err := r.DB.Exec(query, s.Phone, s.Category, s.Group, s.ID)
	return err
}

func (r *SubscriberRepository) Delete(id int) (bool, error) {
	res, err := r.DB.Exec(`DELETE FROM subscribers WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetByID fetches a subscriber by ID
func (r *SubscriberRepository) GetByID(id int) (*model.Subscriber, error) {
	query := `
        SELECT id, phone, category, group_name
        FROM subscribers
        WHERE id = $1
    `
	row := r.DB.QueryRow(query, id)

	var s model.Subscriber
	if err := row.Scan(&s.ID, &s.Phone, &s.Category, &s.Group); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // not found
		}
		return nil, err
	}
	return &s, nil
}

func (r *SubscriberRepository) GetByPhone(phone string) (*model.Subscriber, error) {
	query := `
        SELECT id, phone, category, group_name
        FROM subscribers
        WHERE phone = $1
    `
	row := r.DB.QueryRow(query, phone)

	var s model.Subscriber
	if err := row.Scan(&s.ID, &s.Phone, &s.Category, &s.Group); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// ListAll fetches all subscribers in insertion order. The resolver filters
// this set in memory, so the per-call order stays stable.
func (r *SubscriberRepository) ListAll() ([]model.Subscriber, error) {
	query := `
        SELECT id, phone, category, group_name
        FROM subscribers
        ORDER BY id
    `
	rows, err := r.DB.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscribers := []model.Subscriber{}
	for rows.Next() {
		var s model.Subscriber
		if err := rows.Scan(&s.ID, &s.Phone, &s.Category, &s.Group); err != nil {
			return nil, err
		}
		subscribers = append(subscribers, s)
	}
	return subscribers, rows.Err()
}

var _ SubscriberRepositoryInterface = (*SubscriberRepository)(nil)
