package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/wedfulapp/wedful-notify/internal/database/testutil"
	"github.com/wedfulapp/wedful-notify/internal/models"
)

func seedCouple(t *testing.T, db *gorm.DB, coupleID string, weddingDate *time.Time, memberIDs ...string) {
	t.Helper()

	couple := models.Couple{WeddingDate: weddingDate}
	couple.ID = coupleID
	require.NoError(t, db.Create(&couple).Error)

	for _, id := range memberIDs {
		user := models.User{Name: id, Email: id + "@example.com", CoupleID: &coupleID}
		user.ID = id
		require.NoError(t, db.Create(&user).Error)
	}
}

func newDirectory(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	svc, err := NewService(db)
	require.NoError(t, err)
	return svc, db
}

func TestPartnersOf(t *testing.T) {
	svc, db := newDirectory(t)
	seedCouple(t, db, "couple-1", nil, "user-1", "user-2")

	ids, err := svc.PartnersOf(context.Background(), "couple-1", "")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"user-1", "user-2"}, ids)

	ids, err = svc.PartnersOf(context.Background(), "couple-1", "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"user-2"}, ids)

	_, err = svc.PartnersOf(context.Background(), "", "")
	require.Error(t, err)
}

func TestNonAdminUserIDs(t *testing.T) {
	svc, db := newDirectory(t)
	seedCouple(t, db, "couple-1", nil, "user-1", "user-2")

	admin := models.User{Name: "admin", Email: "admin@example.com", IsAdmin: true}
	admin.ID = "admin-1"
	require.NoError(t, db.Create(&admin).Error)

	ids, err := svc.NonAdminUserIDs(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"user-1", "user-2"}, ids)
}

func TestUpcomingWeddings(t *testing.T) {
	svc, db := newDirectory(t)

	future := time.Now().AddDate(0, 0, 30)
	past := time.Now().AddDate(0, 0, -10)
	seedCouple(t, db, "couple-future", &future, "user-1", "user-2")
	seedCouple(t, db, "couple-past", &past, "user-3")
	seedCouple(t, db, "couple-undated", nil, "user-4")

	weddings, err := svc.UpcomingWeddings(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, weddings, 1)
	require.Equal(t, "couple-future", weddings[0].CoupleID)
	require.ElementsMatch(t, []string{"user-1", "user-2"}, weddings[0].MemberIDs)
}

func TestUpcomingWeddingsIncludesToday(t *testing.T) {
	svc, db := newDirectory(t)

	today := time.Now()
	seedCouple(t, db, "couple-today", &today, "user-1")

	weddings, err := svc.UpcomingWeddings(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, weddings, 1)
}

func TestDigestRecipients(t *testing.T) {
	svc, db := newDirectory(t)

	future := time.Now().AddDate(0, 0, 60)
	seedCouple(t, db, "couple-1", &future, "user-1", "user-2")
	seedCouple(t, db, "couple-undated", nil, "user-3")

	// user-2 opted out of the digest; user-1 has no preference row and
	// counts as enabled
	pref := models.NotificationPreference{UserID: "user-2"}
	require.NoError(t, db.Create(&pref).Error)
	require.NoError(t, db.Model(&pref).Update("daily_digest_enabled", false).Error)

	recipients, err := svc.DigestRecipients(context.Background())
	require.NoError(t, err)
	require.Len(t, recipients, 1)
	require.Equal(t, "user-1", recipients[0].UserID)
	require.WithinDuration(t, future, recipients[0].WeddingDate, time.Minute)
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}
