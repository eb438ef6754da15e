package database

import (
	"gorm.io/gorm"

	"github.com/wedfulapp/wedful-notify/internal/models"
)

// AutoMigrate creates or updates the schema for the tables this service
// owns. User and Couple belong to the couple-management service and are
// migrated here only so tests and local development have the projections
// available; production deployments point at the shared schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Notification{},
		&models.NotificationPreference{},
		&models.PushSubscription{},
		&models.User{},
		&models.Couple{},
	)
}
