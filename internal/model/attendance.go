package model

import "time"

// Attendance status values. "Unregistered" is the implicit state of a
// (event, member) pair with no row at all.
const (
	AttendancePresent   = "present"
	AttendanceAbsent    = "absent"
	AttendanceJustified = "justified"
)

// ValidAttendanceStatus reports whether s is a persistable status.
func ValidAttendanceStatus(s string) bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceJustified:
		return true
	}
	return false
}

// Attendance is the authoritative attendance record, table attendance.
// Composite identity (event_id, member_id) is backed by a UNIQUE
// constraint; all writes go through a keyed upsert.
//
// MemberName is a write-time snapshot of the costalero's name. It is
// frozen on purpose: historical rows keep the name under which they were
// recorded even if the roster entry is later renamed. Presentation joins
// live member data instead.
type Attendance struct {
	AttendanceID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"attendance_id"`
	EventID      string    `gorm:"type:uuid;not null"                             json:"event_id"`
	MemberID     string    `gorm:"type:uuid;not null"                             json:"member_id"`
	Status       string    `gorm:"type:varchar(20);not null"                      json:"status"`
	MarkedAt     time.Time `gorm:"column:marked_at;not null"                      json:"marked_at"`
	MemberName   string    `gorm:"type:varchar(255);not null;default:''"          json:"member_name"`
	HeightPreCm  *float64  `gorm:"column:height_pre_cm;type:numeric(5,1)"         json:"height_pre_cm,omitempty"`
	HeightPostCm *float64  `gorm:"column:height_post_cm;type:numeric(5,1)"        json:"height_post_cm,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// associations
	Event  *Event  `gorm:"foreignKey:EventID;references:EventID"    json:"event,omitempty"`
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID"  json:"member,omitempty"`
}

// TableName sets the table name.
func (Attendance) TableName() string { return "attendance" }
