// internal/controller/mailing_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/descensiontohell/mailing-service/internal/errors"
	"github.com/descensiontohell/mailing-service/internal/model"
	"github.com/descensiontohell/mailing-service/internal/service"
)

type MailingController struct {
	MailingService *service.MailingService
}

type mailingPayload struct {
	MailText   string    `json:"mail_text"`
	UserFilter string    `json:"user_filter"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
}

func (c *MailingController) CreateMailing(w http.ResponseWriter, r *http.Request) {
	var body mailingPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	mailing := &model.Mailing{
		MailText:   body.MailText,
		UserFilter: body.UserFilter,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	}

	if err := c.MailingService.CreateMailing(mailing); err != nil {
		writeMailingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mailing)
}

func (c *MailingController) UpdateMailing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid mailing id", http.StatusBadRequest)
		return
	}

	var body mailingPayload
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	mailing := &model.Mailing{
		ID:         id,
		MailText:   body.MailText,
		UserFilter: body.UserFilter,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	}

	if err := c.MailingService.UpdateMailing(mailing); err != nil {
		writeMailingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(mailing)
}

func (c *MailingController) DeleteMailing(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid mailing id", http.StatusBadRequest)
		return
	}

	if err := c.MailingService.DeleteMailing(id); err != nil {
		writeMailingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"id": id})
}

func (c *MailingController) ListMailings(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	mailings, pagination, err := c.MailingService.ListMailings(page, pageSize)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"data":       mailings,
		"pagination": pagination,
	})
}

// GetMailingStats returns the mailing together with message counts by status.
func (c *MailingController) GetMailingStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid mailing id", http.StatusBadRequest)
		return
	}

	stats, err := c.MailingService.GetMailingStats(id)
	if err != nil {
		writeMailingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

func writeMailingError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrMailingNotFound
	switch {
	case errors.As(err, &notFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, appErrors.ErrInvalidWindow):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, appErrors.ErrMailingActive):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
