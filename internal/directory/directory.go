package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/wedfulapp/wedful-notify/internal/models"
	"github.com/wedfulapp/wedful-notify/internal/sweep"
)

// Service answers recipient queries against the shared identity tables
// (users, couples). It satisfies notify.Audience and the sweep directory
// interfaces; everything here is read-only.
type Service struct {
	db *gorm.DB
}

// NewService constructs a directory Service.
func NewService(db *gorm.DB) (*Service, error) {
	if db == nil {
		return nil, errors.New("directory: db is required")
	}
	return &Service{db: db}, nil
}

// PartnersOf lists the members of a couple, excluding excludeUserID when
// non-empty. An empty exclude returns both partners.
func (s *Service) PartnersOf(ctx context.Context, coupleID, excludeUserID string) ([]string, error) {
	coupleID = strings.TrimSpace(coupleID)
	if coupleID == "" {
		return nil, errors.New("directory: couple id is required")
	}

	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("couple_id = ?", coupleID)
	if excludeUserID != "" {
		query = query.Where("id <> ?", excludeUserID)
	}

	var ids []string
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("directory: partners of couple: %w", err)
	}
	return ids, nil
}

// NonAdminUserIDs lists every regular user for announcement fan-out.
func (s *Service) NonAdminUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("is_admin = ?", false).
		Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("directory: non-admin users: %w", err)
	}
	return ids, nil
}

// UpcomingWeddings returns couples whose wedding date is today or later,
// with their member user IDs, for the milestone sweep.
func (s *Service) UpcomingWeddings(ctx context.Context, now time.Time) ([]sweep.Wedding, error) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var couples []models.Couple
	if err := s.db.WithContext(ctx).
		Where("wedding_date IS NOT NULL AND wedding_date >= ?", midnight).
		Find(&couples).Error; err != nil {
		return nil, fmt.Errorf("directory: upcoming weddings: %w", err)
	}

	weddings := make([]sweep.Wedding, 0, len(couples))
	for _, couple := range couples {
		members, err := s.PartnersOf(ctx, couple.ID, "")
		if err != nil {
			return nil, err
		}
		weddings = append(weddings, sweep.Wedding{
			CoupleID:    couple.ID,
			WeddingDate: *couple.WeddingDate,
			MemberIDs:   members,
		})
	}
	return weddings, nil
}

// DigestRecipients returns users attached to a couple with a wedding date
// whose daily digest preference is enabled. Users without a preference row
// count as enabled, matching the lazily-created defaults.
func (s *Service) DigestRecipients(ctx context.Context) ([]sweep.DigestRecipient, error) {
	var rows []struct {
		ID          string
		WeddingDate time.Time
	}

	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.id AS id", "couples.wedding_date AS wedding_date").
		Joins("JOIN couples ON couples.id = users.couple_id").
		Joins("LEFT JOIN notification_preferences ON notification_preferences.user_id = users.id").
		Where("couples.wedding_date IS NOT NULL").
		Where("notification_preferences.id IS NULL OR notification_preferences.daily_digest_enabled = ?", true).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("directory: digest recipients: %w", err)
	}

	recipients := make([]sweep.DigestRecipient, 0, len(rows))
	for _, row := range rows {
		recipients = append(recipients, sweep.DigestRecipient{
			UserID:      row.ID,
			WeddingDate: row.WeddingDate,
		})
	}
	return recipients, nil
}
