package model

import "time"

// Event status values derived from the time window; never persisted.
const (
	EventStatusPending    = "pending"
	EventStatusInProgress = "in_progress"
	EventStatusFinished   = "finished"
)

// Event is a rehearsal, procession or cuadrilla gathering, table events.
type Event struct {
	EventID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"event_id"`
	Name       string    `gorm:"type:varchar(200);not null"                     json:"name"`
	Location   string    `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	StartAt    time.Time `gorm:"column:start_at;not null"                       json:"start_at"`
	EndAt      time.Time `gorm:"column:end_at;not null"                         json:"end_at"`
	SeasonYear int       `gorm:"column:season_year;not null"                    json:"season_year"`
	VersionedModel
}

// TableName sets the table name.
func (Event) TableName() string { return "events" }

// StatusAt derives the event status from the clock. Timestamps are
// stored in UTC; the caller supplies now in whatever zone it trusts.
func (e *Event) StatusAt(now time.Time) string {
	switch {
	case now.Before(e.StartAt):
		return EventStatusPending
	case now.After(e.EndAt):
		return EventStatusFinished
	default:
		return EventStatusInProgress
	}
}
