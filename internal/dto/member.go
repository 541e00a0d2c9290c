package dto

// CreateMemberRequest adds a costalero to the season roster.
type CreateMemberRequest struct {
	FirstName    string   `json:"first_name" binding:"required"`
	Surname      string   `json:"surname" binding:"required"`
	Trabajadera  int      `json:"trabajadera" binding:"min=0,max=7"`
	Role         string   `json:"role" binding:"omitempty,oneof=costalero contraguia fijador"`
	SeasonYear   int      `json:"season_year" binding:"required,min=1900"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email" binding:"omitempty,email"`
	HeightCm     *float64 `json:"height_cm"`
	ShoeHeightCm *float64 `json:"shoe_height_cm"`
}

// UpdateMemberRequest patches roster fields; nil means unchanged.
type UpdateMemberRequest struct {
	FirstName    *string  `json:"first_name"`
	Surname      *string  `json:"surname"`
	Trabajadera  *int     `json:"trabajadera" binding:"omitempty,min=0,max=7"`
	Role         *string  `json:"role" binding:"omitempty,oneof=costalero contraguia fijador"`
	Phone        *string  `json:"phone"`
	Email        *string  `json:"email" binding:"omitempty,email"`
	HeightCm     *float64 `json:"height_cm"`
	ShoeHeightCm *float64 `json:"shoe_height_cm"`
}

// CloneSeasonRequest copies a season roster into a new year.
type CloneSeasonRequest struct {
	FromYear int `json:"from_year" binding:"required,min=1900"`
	ToYear   int `json:"to_year" binding:"required,min=1900"`
}

// MemberResponse describes a roster entry.
type MemberResponse struct {
	ID           string   `json:"id"`
	FirstName    string   `json:"first_name"`
	Surname      string   `json:"surname"`
	FullName     string   `json:"full_name"`
	Trabajadera  int      `json:"trabajadera"`
	Role         string   `json:"role"`
	SeasonYear   int      `json:"season_year"`
	Phone        string   `json:"phone,omitempty"`
	Email        string   `json:"email,omitempty"`
	HeightCm     *float64 `json:"height_cm,omitempty"`
	ShoeHeightCm *float64 `json:"shoe_height_cm,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
}

// TrabajaderaGroup is one carrying-pole bucket of the grouped roster.
// Trabajadera 0 (unassigned) always sorts last.
type TrabajaderaGroup struct {
	Trabajadera int              `json:"trabajadera"`
	Members     []MemberResponse `json:"members"`
}
