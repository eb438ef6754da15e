package models

// User is a read-only projection of the account table owned by the
// couple-management service. The notification engine reads it to resolve
// partners, admin status, and announcement fan-out targets; it never
// writes to it outside of test setup.
type User struct {
	BaseModel

	Name     string  `gorm:"type:varchar(100);not null" json:"name"`
	Email    string  `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	CoupleID *string `gorm:"type:uuid;index" json:"couple_id"`
	IsAdmin  bool    `gorm:"default:false" json:"is_admin"`
}
