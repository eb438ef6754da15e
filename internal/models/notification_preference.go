package models

// NotificationPreference stores per-user toggles for each notification
// category plus the global push switch. One row per user, created lazily
// with everything enabled.
type NotificationPreference struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	DdayEnabled           bool `gorm:"default:true" json:"dday_enabled"`
	ScheduleEnabled       bool `gorm:"default:true" json:"schedule_enabled"`
	ChecklistEnabled      bool `gorm:"default:true" json:"checklist_enabled"`
	BudgetEnabled         bool `gorm:"default:true" json:"budget_enabled"`
	CoupleActivityEnabled bool `gorm:"default:true" json:"couple_activity_enabled"`
	AnnouncementEnabled   bool `gorm:"default:true" json:"announcement_enabled"`

	DailyDigestEnabled bool `gorm:"default:true" json:"daily_digest_enabled"`
	PushEnabled        bool `gorm:"default:true" json:"push_enabled"`

	// PreferredHour is the local hour (0-23) at which digest-style
	// notifications should be delivered.
	PreferredHour int `gorm:"default:9" json:"preferred_hour"`
}
