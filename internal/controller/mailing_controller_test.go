package controller_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/descensiontohell/mailing-service/internal/controller"
	"github.com/descensiontohell/mailing-service/internal/model"
	"github.com/descensiontohell/mailing-service/internal/service"
)

// --- Mock repositories ---

type MockMailingRepo struct {
	mailings map[int]*model.Mailing
	nextID   int
}

func (r *MockMailingRepo) Create(m *model.Mailing) error {
	r.nextID++
	m.ID = r.nextID
	r.mailings[m.ID] = m
	return nil
}

func (r *MockMailingRepo) Update(m *model.Mailing) error {
	r.mailings[m.ID] = m
	return nil
}

func (r *MockMailingRepo) Delete(id int) (bool, error) {
	if _, ok := r.mailings[id]; !ok {
		return false, nil
	}
	delete(r.mailings, id)
	return true, nil
}

func (r *MockMailingRepo) GetByID(id int) (*model.Mailing, error) {
	m, ok := r.mailings[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *MockMailingRepo) List(offset, limit int) ([]*model.Mailing, int, error) {
	return []*model.Mailing{}, 0, nil
}

func (r *MockMailingRepo) ListUnfinished(now time.Time) ([]*model.Mailing, error) {
	return []*model.Mailing{}, nil
}

type MockMessageRepo struct{}

func (r *MockMessageRepo) GetOrCreatePending(mailingID, subscriberID int) (*model.Message, error) {
	return &model.Message{ID: 1}, nil
}

func (r *MockMessageRepo) UpdateStatus(id int, status model.MessageStatus, sentAt *time.Time) error {
	return nil
}

func (r *MockMessageRepo) StatsByMailing(mailingID int) (map[string]int, error) {
	return map[string]int{"pending": 0, "delivered": 2, "failed": 1}, nil
}

type MockScheduler struct {
	scheduled []int
}

func (s *MockScheduler) Schedule(m model.Mailing) {
	s.scheduled = append(s.scheduled, m.ID)
}

func (s *MockScheduler) Cancel(mailingID int) {}

func newTestRouter(repo *MockMailingRepo, sched *MockScheduler) http.Handler {
	svc := &service.MailingService{
		MailingRepo: repo,
		MessageRepo: &MockMessageRepo{},
		Scheduler:   sched,
	}
	ctrl := &controller.MailingController{MailingService: svc}

	r := chi.NewRouter()
	r.Post("/mailings", ctrl.CreateMailing)
	r.Get("/mailings/{id}", ctrl.GetMailingStats)
	r.Put("/mailings/{id}", ctrl.UpdateMailing)
	r.Delete("/mailings/{id}", ctrl.DeleteMailing)
	return r
}

// --- Tests ---

func TestCreateMailingEndpoint(t *testing.T) {
	repo := &MockMailingRepo{mailings: map[int]*model.Mailing{}}
	sched := &MockScheduler{}
	router := newTestRouter(repo, sched)

	now := time.Now().UTC()
	body, _ := json.Marshal(map[string]interface{}{
		"mail_text":   "hello",
		"user_filter": "vip",
		"start_time":  now.Add(time.Minute).Format(time.RFC3339),
		"end_time":    now.Add(time.Hour).Format(time.RFC3339),
	})

	req := httptest.NewRequest("POST", "/mailings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var created model.Mailing
	require.NoError(t, json.NewDecoder(w.Body).Decode(&created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, []int{created.ID}, sched.scheduled)
}

func TestCreateMailingInvalidWindow(t *testing.T) {
	repo := &MockMailingRepo{mailings: map[int]*model.Mailing{}}
	router := newTestRouter(repo, &MockScheduler{})

	now := time.Now().UTC()
	body, _ := json.Marshal(map[string]interface{}{
		"mail_text":  "hello",
		"start_time": now.Add(time.Hour).Format(time.RFC3339),
		"end_time":   now.Format(time.RFC3339),
	})

	req := httptest.NewRequest("POST", "/mailings", bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, repo.mailings)
}

func TestGetMailingStatsEndpoint(t *testing.T) {
	now := time.Now()
	repo := &MockMailingRepo{mailings: map[int]*model.Mailing{
		4: {ID: 4, MailText: "hi", StartTime: now.Add(-time.Hour), EndTime: now.Add(-time.Minute)},
	}}
	router := newTestRouter(repo, &MockScheduler{})

	req := httptest.NewRequest("GET", "/mailings/4", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var res service.MailingStats
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, 4, res.Mailing.ID)
	assert.Equal(t, 3, res.Stats["total"])
	assert.Equal(t, 2, res.Stats["delivered"])
}

func TestGetMailingNotFound(t *testing.T) {
	repo := &MockMailingRepo{mailings: map[int]*model.Mailing{}}
	router := newTestRouter(repo, &MockScheduler{})

	req := httptest.NewRequest("GET", "/mailings/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateMailingDuringWindowConflicts(t *testing.T) {
	now := time.Now()
	repo := &MockMailingRepo{mailings: map[int]*model.Mailing{
		6: {ID: 6, StartTime: now.Add(-time.Minute), EndTime: now.Add(time.Hour)},
	}}
	router := newTestRouter(repo, &MockScheduler{})

	body, _ := json.Marshal(map[string]interface{}{
		"mail_text":  "changed",
		"start_time": now.Add(2 * time.Hour).Format(time.RFC3339),
		"end_time":   now.Add(3 * time.Hour).Format(time.RFC3339),
	})

	req := httptest.NewRequest("PUT", fmt.Sprintf("/mailings/%d", 6), bytes.NewReader(body))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
