package dto

// SeasonResponse reports the active season-year.
type SeasonResponse struct {
	ActiveYear int    `json:"active_year"`
	UpdatedAt  string `json:"updated_at"`
}

// SetSeasonRequest switches the active season-year.
type SetSeasonRequest struct {
	ActiveYear int `json:"active_year" binding:"required,min=1900"`
}
