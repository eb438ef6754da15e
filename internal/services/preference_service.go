package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/wedfulapp/wedful-notify/internal/models"
)

// UpdatePreferenceInput carries a partial preference update. Nil fields
// leave the stored value unchanged.
type UpdatePreferenceInput struct {
	DdayEnabled           *bool `json:"dday_enabled"`
	ScheduleEnabled       *bool `json:"schedule_enabled"`
	ChecklistEnabled      *bool `json:"checklist_enabled"`
	BudgetEnabled         *bool `json:"budget_enabled"`
	CoupleActivityEnabled *bool `json:"couple_activity_enabled"`
	AnnouncementEnabled   *bool `json:"announcement_enabled"`
	DailyDigestEnabled    *bool `json:"daily_digest_enabled"`
	PushEnabled           *bool `json:"push_enabled"`
	PreferredHour         *int  `json:"preferred_hour" validate:"omitempty,gte=0,lte=23"`
}

// PreferenceService owns per-user notification preference rows.
type PreferenceService struct {
	db *gorm.DB
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(db *gorm.DB) (*PreferenceService, error) {
	if db == nil {
		return nil, errors.New("preference service: db is required")
	}
	return &PreferenceService{db: db}, nil
}

// GetOrCreate returns the user's preference row, inserting the all-enabled
// defaults if none exists. The insert uses an on-conflict no-op so two
// racing first reads converge on a single row.
func (s *PreferenceService) GetOrCreate(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	ctx = ensureContext(ctx)
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, errors.New("preference service: user id is required")
	}

	defaults := defaultPreference(userID)
	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).
		Create(&defaults).Error; err != nil {
		return nil, fmt.Errorf("preference service: ensure preference: %w", err)
	}

	var pref models.NotificationPreference
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&pref).Error; err != nil {
		return nil, fmt.Errorf("preference service: load preference: %w", err)
	}

	return &pref, nil
}

// Update applies a partial preference update and returns the stored row.
func (s *PreferenceService) Update(ctx context.Context, userID string, input UpdatePreferenceInput) (*models.NotificationPreference, error) {
	ctx = ensureContext(ctx)

	pref, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.DdayEnabled != nil {
		updates["dday_enabled"] = *input.DdayEnabled
	}
	if input.ScheduleEnabled != nil {
		updates["schedule_enabled"] = *input.ScheduleEnabled
	}
	if input.ChecklistEnabled != nil {
		updates["checklist_enabled"] = *input.ChecklistEnabled
	}
	if input.BudgetEnabled != nil {
		updates["budget_enabled"] = *input.BudgetEnabled
	}
	if input.CoupleActivityEnabled != nil {
		updates["couple_activity_enabled"] = *input.CoupleActivityEnabled
	}
	if input.AnnouncementEnabled != nil {
		updates["announcement_enabled"] = *input.AnnouncementEnabled
	}
	if input.DailyDigestEnabled != nil {
		updates["daily_digest_enabled"] = *input.DailyDigestEnabled
	}
	if input.PushEnabled != nil {
		updates["push_enabled"] = *input.PushEnabled
	}
	if input.PreferredHour != nil {
		hour := *input.PreferredHour
		if hour < 0 || hour > 23 {
			return nil, fmt.Errorf("preference service: preferred hour %d out of range", hour)
		}
		updates["preferred_hour"] = hour
	}

	if len(updates) == 0 {
		return pref, nil
	}

	if err := s.db.WithContext(ctx).
		Model(&models.NotificationPreference{}).
		Where("user_id = ?", userID).
		Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("preference service: update preference: %w", err)
	}

	var updated models.NotificationPreference
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&updated).Error; err != nil {
		return nil, fmt.Errorf("preference service: reload preference: %w", err)
	}

	return &updated, nil
}

func defaultPreference(userID string) models.NotificationPreference {
	return models.NotificationPreference{
		UserID:                userID,
		DdayEnabled:           true,
		ScheduleEnabled:       true,
		ChecklistEnabled:      true,
		BudgetEnabled:         true,
		CoupleActivityEnabled: true,
		AnnouncementEnabled:   true,
		DailyDigestEnabled:    true,
		PushEnabled:           true,
		PreferredHour:         9,
	}
}
