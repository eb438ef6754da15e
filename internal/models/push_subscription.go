package models

// PushSubscription is one browser push endpoint registered by a user.
// A user may hold many subscriptions (one per device/browser); the
// (user_id, endpoint) pair is unique so re-subscribing the same endpoint
// refreshes the keys instead of duplicating the row.
type PushSubscription struct {
	BaseModel

	UserID    string `gorm:"type:uuid;index;uniqueIndex:idx_push_user_endpoint;not null" json:"user_id"`
	Endpoint  string `gorm:"type:text;uniqueIndex:idx_push_user_endpoint,length:255;not null" json:"endpoint"`
	P256dh    string `gorm:"type:text;not null" json:"p256dh"`
	Auth      string `gorm:"type:text;not null" json:"auth"`
	UserAgent string `gorm:"type:text" json:"user_agent"`
}
