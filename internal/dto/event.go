package dto

// CreateEventRequest schedules an event.
// Timestamps are RFC 3339.
type CreateEventRequest struct {
	Name       string `json:"name" binding:"required"`
	Location   string `json:"location"`
	StartAt    string `json:"start_at" binding:"required"`
	EndAt      string `json:"end_at" binding:"required"`
	SeasonYear int    `json:"season_year" binding:"required,min=1900"`
}

// UpdateEventRequest patches event fields; nil means unchanged.
type UpdateEventRequest struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	StartAt  *string `json:"start_at"`
	EndAt    *string `json:"end_at"`
}

// EventResponse describes an event with its derived status.
type EventResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	StartAt    string `json:"start_at"`
	EndAt      string `json:"end_at"`
	SeasonYear int    `json:"season_year"`
	Status     string `json:"status"` // pending | in_progress | finished
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}
