// internal/model/mailing.go
package model

import "time"

type Mailing struct {
	ID         int       `db:"id" json:"id"`
	MailText   string    `db:"mail_text" json:"mail_text"`
	UserFilter string    `db:"user_filter" json:"user_filter"`
	StartTime  time.Time `db:"start_time" json:"start_time"`
	EndTime    time.Time `db:"end_time" json:"end_time"`
}

// Expired reports whether the dispatch window has fully elapsed.
func (m *Mailing) Expired(now time.Time) bool {
	return now.After(m.EndTime)
}

// Started reports whether the dispatch window has opened.
func (m *Mailing) Started(now time.Time) bool {
	return now.After(m.StartTime)
}

// Active reports whether now lies inside the dispatch window.
func (m *Mailing) Active(now time.Time) bool {
	return m.Started(now) && !m.Expired(now)
}
