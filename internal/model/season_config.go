package model

import "time"

// Season config keys.
const ConfigKeyActiveSeasonYear = "active_season_year"

// SeasonConfig is the key/value singleton table holding, among others,
// the active season-year, table season_config.
type SeasonConfig struct {
	ConfigKey   string    `gorm:"column:config_key;type:varchar(50);primaryKey" json:"config_key"`
	ConfigValue string    `gorm:"column:config_value;type:varchar(255);not null" json:"config_value"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"            json:"updated_at"`
	UpdatedBy   *string   `gorm:"type:uuid"                                     json:"updated_by,omitempty"`
}

// TableName sets the table name.
func (SeasonConfig) TableName() string { return "season_config" }
