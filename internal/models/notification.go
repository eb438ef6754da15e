package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification is a single entry in a user's durable notification feed.
// Rows are immutable after creation except for the read state.
type Notification struct {
	BaseModel

	UserID  string         `gorm:"type:uuid;index" json:"user_id"`
	Type    string         `gorm:"type:varchar(64);not null;index" json:"type"`
	Title   string         `gorm:"type:varchar(255);not null" json:"title"`
	Message string         `gorm:"type:text" json:"message"`
	Link    string         `gorm:"type:text" json:"link"`
	Data    datatypes.JSON `json:"data"`

	IsRead bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt *time.Time `json:"read_at"`
}
