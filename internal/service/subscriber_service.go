// internal/service/subscriber_service.go
package service

import (
	"strings"

	appErrors "github.com/descensiontohell/mailing-service/internal/errors"
	"github.com/descensiontohell/mailing-service/internal/model"
	"github.com/descensiontohell/mailing-service/internal/repository"
)

type SubscriberService struct {
	SubscriberRepo repository.SubscriberRepositoryInterface
}

func (s *SubscriberService) CreateSubscriber(sub *model.Subscriber) error {
	existing, err := s.SubscriberRepo.GetByPhone(sub.Phone)
	if err != nil {
		return err
	}
	if existing != nil {
		return appErrors.ErrSubscriberExists
	}
	return s.SubscriberRepo.Create(sub)
}

func (s *SubscriberService) UpdateSubscriber(sub *model.Subscriber) error {
	existing, err := s.SubscriberRepo.GetByID(sub.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return appErrors.NewSubscriberNotFound(sub.ID)
	}
	return s.SubscriberRepo.Update(sub)
}

func (s *SubscriberService) DeleteSubscriber(id int) error {
	deleted, err := s.SubscriberRepo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return appErrors.NewSubscriberNotFound(id)
	}
	return nil
}

func (s *SubscriberService) GetSubscriber(id int) (*model.Subscriber, error) {
	sub, err := s.SubscriberRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, appErrors.NewSubscriberNotFound(id)
	}
	return sub, nil
}

func (s *SubscriberService) ListSubscribers() ([]model.Subscriber, error) {
	return s.SubscriberRepo.ListAll()
}

// Resolve returns the subscribers matching the mailing's filter, in the
// store's natural order. A subscriber matches when the filter is a
// case-insensitive substring of either its category or its group, so the
// empty filter matches everyone.
func (s *SubscriberService) Resolve(filter string) ([]model.Subscriber, error) {
	all, err := s.SubscriberRepo.ListAll()
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(filter)
	matched := []model.Subscriber{}
	for _, sub := range all {
		if strings.Contains(strings.ToLower(sub.Category), needle) ||
			strings.Contains(strings.ToLower(sub.Group), needle) {
			matched = append(matched, sub)
		}
	}
	return matched, nil
}
