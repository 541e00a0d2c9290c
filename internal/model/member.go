package model

// TrabajaderaUnassigned marks a costalero without a carrying-pole group.
const TrabajaderaUnassigned = 0

// Member is a costalero on the season roster, table members.
// A member row belongs to exactly one season-year; carrying a costalero
// into the next season is an explicit copy, never a mutation.
type Member struct {
	MemberID     string   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"member_id"`
	FirstName    string   `gorm:"type:varchar(100);not null"                     json:"first_name"`
	Surname      string   `gorm:"type:varchar(150);not null"                     json:"surname"`
	Trabajadera  int      `gorm:"not null;default:0"                             json:"trabajadera"` // 0–7, 0 = unassigned
	Role         string   `gorm:"type:varchar(20);not null;default:'costalero'"  json:"role"`        // costalero | contraguia | fijador
	SeasonYear   int      `gorm:"column:season_year;not null"                    json:"season_year"`
	Phone        string   `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Email        string   `gorm:"type:varchar(255)"                              json:"email,omitempty"`
	HeightCm     *float64 `gorm:"column:height_cm;type:numeric(5,1)"             json:"height_cm,omitempty"`      // barefoot, equipment fitting
	ShoeHeightCm *float64 `gorm:"column:shoe_height_cm;type:numeric(5,1)"        json:"shoe_height_cm,omitempty"` // with costal footwear
	VersionedModel
}

// TableName sets the table name.
func (Member) TableName() string { return "members" }

// FullName renders "Surname, FirstName" for roll lists.
func (m *Member) FullName() string {
	return m.Surname + ", " + m.FirstName
}
