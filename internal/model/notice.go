package model

import "time"

// Notice types.
const (
	NoticeTypeAbsence = "absence"
)

// Notice is an absence pre-notification from a costalero, table notices.
// Management resolves it by setting the attendance status for the pair
// and marking the notice read.
type Notice struct {
	NoticeID  string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notice_id"`
	MemberID  string    `gorm:"type:uuid;not null"                             json:"member_id"`
	EventID   string    `gorm:"type:uuid;not null"                             json:"event_id"`
	Type      string    `gorm:"type:varchar(50);not null;default:'absence'"    json:"type"`
	Title     string    `gorm:"type:varchar(200);not null"                     json:"title"`
	Message   string    `gorm:"type:text;not null;default:''"                  json:"message"`
	Reason    string    `gorm:"type:text;not null;default:''"                  json:"reason"`
	IsRead    bool      `gorm:"not null;default:false"                         json:"is_read"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"updated_at"`

	// associations
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
	Event  *Event  `gorm:"foreignKey:EventID;references:EventID"   json:"event,omitempty"`
}

// TableName sets the table name.
func (Notice) TableName() string { return "notices" }
