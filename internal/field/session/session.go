// Package session carries the field device's ambient identity as an
// explicit value instead of process-global state: who is signed in,
// which season they are working, and which device this is. Components
// take a Session parameter; swapping seasons builds a new value rather
// than mutating shared state under running callers.
package session

import (
	"fmt"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
)

// Session is immutable once built; derive variants with WithSeason.
type Session struct {
	SeasonYear int
	Role       string
	UserID     string
	MemberID   string
	DeviceID   string
}

// New builds a session for a signed-in user.
func New(seasonYear int, role, userID, memberID, deviceID string) (Session, error) {
	if seasonYear < 1900 || seasonYear > 2200 {
		return Session{}, fmt.Errorf("session: season year %d out of range", seasonYear)
	}
	if role == "" {
		return Session{}, fmt.Errorf("session: role is required")
	}
	return Session{
		SeasonYear: seasonYear,
		Role:       role,
		UserID:     userID,
		MemberID:   memberID,
		DeviceID:   deviceID,
	}, nil
}

// WithSeason returns a copy of s bound to another season.
func (s Session) WithSeason(year int) (Session, error) {
	return New(year, s.Role, s.UserID, s.MemberID, s.DeviceID)
}

// CanManage reports whether the session may perform roster and
// attendance management actions.
func (s Session) CanManage() bool {
	return s.Role == model.RoleAdmin || s.Role == model.RoleCapataz
}
