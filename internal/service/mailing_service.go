// internal/service/mailing_service.go
package service

import (
	"time"

	appErrors "github.com/descensiontohell/mailing-service/internal/errors"
	"github.com/descensiontohell/mailing-service/internal/model"
	"github.com/descensiontohell/mailing-service/internal/repository"
)

// MailingScheduler is implemented by scheduler.Scheduler.
type MailingScheduler interface {
	Schedule(m model.Mailing)
	Cancel(mailingID int)
}

type MailingService struct {
	MailingRepo repository.MailingRepositoryInterface
	MessageRepo repository.MessageRepositoryInterface
	Scheduler   MailingScheduler
}

type MailingStats struct {
	Mailing model.Mailing  `json:"mailing"`
	Stats   map[string]int `json:"stats"`
}

func (s *MailingService) CreateMailing(m *model.Mailing) error {
	if !m.StartTime.Before(m.EndTime) {
		return appErrors.ErrInvalidWindow
	}
	if err := s.MailingRepo.Create(m); err != nil {
		return err
	}
	s.Scheduler.Schedule(*m)
	return nil
}

// UpdateMailing rejects mutation while the window is open; the dispatcher is
// the only actor allowed to touch an active mailing's state.
func (s *MailingService) UpdateMailing(m *model.Mailing) error {
	existing, err := s.MailingRepo.GetByID(m.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return appErrors.NewMailingNotFound(m.ID)
	}
	if existing.Active(time.Now()) {
		return appErrors.ErrMailingActive
	}
	if !m.StartTime.Before(m.EndTime) {
		return appErrors.ErrInvalidWindow
	}
	return s.MailingRepo.Update(m)
}

// DeleteMailing removes the row and stops the scheduled unit immediately.
// A unit that already fired observes the deletion through its own checks.
func (s *MailingService) DeleteMailing(id int) error {
	deleted, err := s.MailingRepo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return appErrors.NewMailingNotFound(id)
	}
	s.Scheduler.Cancel(id)
	return nil
}

func (s *MailingService) GetMailing(id int) (*model.Mailing, error) {
	m, err := s.MailingRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, appErrors.NewMailingNotFound(id)
	}
	return m, nil
}

// ListMailings fetches mailings with pagination
func (s *MailingService) ListMailings(page, pageSize int) ([]model.Mailing, map[string]int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	ptrs, total, err := s.MailingRepo.List(offset, pageSize)
	if err != nil {
		return nil, nil, err
	}

	mailings := make([]model.Mailing, len(ptrs))
	for i, m := range ptrs {
		mailings[i] = *m
	}

	totalPages := (total + pageSize - 1) / pageSize
	pagination := map[string]int{
		"page":        page,
		"page_size":   pageSize,
		"total_count": total,
		"total_pages": totalPages,
	}

	return mailings, pagination, nil
}

// GetMailingStats returns the mailing together with message counts by status.
func (s *MailingService) GetMailingStats(id int) (*MailingStats, error) {
	m, err := s.GetMailing(id)
	if err != nil {
		return nil, err
	}

	stats, err := s.MessageRepo.StatsByMailing(id)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range stats {
		total += count
	}
	stats["total"] = total

	return &MailingStats{Mailing: *m, Stats: stats}, nil
}

// RestoreScheduled re-registers a scheduler unit for every mailing whose
// window has not yet closed. Called once on process start, it turns the
// in-memory schedule into a recoverable invariant across restarts.
func (s *MailingService) RestoreScheduled(now time.Time) (int, error) {
	mailings, err := s.MailingRepo.ListUnfinished(now)
	if err != nil {
		return 0, err
	}
	for _, m := range mailings {
		s.Scheduler.Schedule(*m)
	}
	return len(mailings), nil
}
