package model

// Account roles.
const (
	RoleAdmin     = "admin"     // junta: full management
	RoleCapataz   = "capataz"   // field management: scans, closures
	RoleCostalero = "costalero" // self-service only
)

// UserProfile links an account to its role and, optionally, to a
// costalero on the roster, table user_profiles.
type UserProfile struct {
	UserID       string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string  `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	PasswordHash string  `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string  `gorm:"type:varchar(20);not null;default:'costalero'"  json:"role"`
	MemberID     *string `gorm:"type:uuid"                                      json:"member_id,omitempty"`
	VersionedModel
}

// TableName sets the table name.
func (UserProfile) TableName() string { return "user_profiles" }
