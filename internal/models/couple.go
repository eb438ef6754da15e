package models

import "time"

// Couple is a read-only projection of the couple table owned by the
// couple-management service. WeddingDate drives the D-day sweeps and
// TotalBudget the budget threshold checks.
type Couple struct {
	BaseModel

	WeddingDate *time.Time `json:"wedding_date"`
	TotalBudget int64      `gorm:"default:0" json:"total_budget"`
}
