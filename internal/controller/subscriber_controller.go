// internal/controller/subscriber_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/descensiontohell/mailing-service/internal/errors"
	"github.com/descensiontohell/mailing-service/internal/model"
	"github.com/descensiontohell/mailing-service/internal/service"
)

type SubscriberController struct {
	SubscriberService *service.SubscriberService
}

type subscriberPayload struct {
	Phone    string `json:"phone"`
	Category string `json:"category"`
	Group    string `json:"group"`
}

func (c *SubscriberController) CreateSubscriber(w http.ResponseWriter, r *http.Request) {
	var body subscriberPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	sub := &model.Subscriber{
		Phone:    body.Phone,
		Category: body.Category,
		Group:    body.Group,
	}

	if err := c.SubscriberService.CreateSubscriber(sub); err != nil {
		writeSubscriberError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (c *SubscriberController) UpdateSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid subscriber id", http.StatusBadRequest)
		return
	}

	var body subscriberPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	sub := &model.Subscriber{
		ID:       id,
		Phone:    body.Phone,
		Category: body.Category,
		Group:    body.Group,
	}

	if err := c.SubscriberService.UpdateSubscriber(sub); err != nil {
		writeSubscriberError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sub)
}

func (c *SubscriberController) DeleteSubscriber(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid subscriber id", http.StatusBadRequest)
		return
	}

	if err := c.SubscriberService.DeleteSubscriber(id); err != nil {
		writeSubscriberError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"id": id})
}

func (c *SubscriberController) ListSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := c.SubscriberService.ListSubscribers()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(subs)
}

func writeSubscriberError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrSubscriberNotFound
	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, appErrors.ErrSubscriberExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
