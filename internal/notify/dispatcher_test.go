package notify

import (
	"context"
	"net/http"
	"sync"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/require"

	"github.com/wedfulapp/wedful-notify/internal/database/testutil"
	"github.com/wedfulapp/wedful-notify/internal/push"
	"github.com/wedfulapp/wedful-notify/internal/services"
)

type fakeAudience struct {
	partners map[string][]string
	users    []string
}

func (f *fakeAudience) PartnersOf(ctx context.Context, coupleID, excludeUserID string) ([]string, error) {
	var out []string
	for _, id := range f.partners[coupleID] {
		if id != excludeUserID {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeAudience) NonAdminUserIDs(ctx context.Context) ([]string, error) {
	return f.users, nil
}

type dispatcherFixture struct {
	dispatcher    *Dispatcher
	notifications *services.NotificationService
	preferences   *services.PreferenceService
	push          *push.Service
	sent          func() []string
}

func newDispatcherFixture(t *testing.T, audience Audience) *dispatcherFixture {
	t.Helper()
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	notificationSvc, err := services.NewNotificationService(db)
	require.NoError(t, err)
	preferenceSvc, err := services.NewPreferenceService(db)
	require.NoError(t, err)

	var (
		mu        sync.Mutex
		endpoints []string
	)
	pushSvc, err := push.NewService(db, push.Config{
		VAPIDPublicKey:  "pub",
		VAPIDPrivateKey: "priv",
	}, push.WithSender(func(ctx context.Context, message []byte, sub *webpush.Subscription) (int, error) {
		mu.Lock()
		endpoints = append(endpoints, sub.Endpoint)
		mu.Unlock()
		return http.StatusCreated, nil
	}))
	require.NoError(t, err)

	dispatcher, err := NewDispatcher(notificationSvc, preferenceSvc, pushSvc, audience)
	require.NoError(t, err)
	t.Cleanup(dispatcher.Close)

	return &dispatcherFixture{
		dispatcher:    dispatcher,
		notifications: notificationSvc,
		preferences:   preferenceSvc,
		push:          pushSvc,
		sent: func() []string {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), endpoints...)
		},
	}
}

func subscribe(t *testing.T, svc *push.Service, userID, endpoint string) {
	t.Helper()
	input := push.SubscriptionInput{Endpoint: endpoint}
	input.Keys.P256dh = "p256dh"
	input.Keys.Auth = "auth"
	require.NoError(t, svc.Subscribe(context.Background(), userID, input, ""))
}

func TestDispatcherCreatePersistsAndPushes(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	ctx := context.Background()

	subscribe(t, f.push, "user-1", "https://push.example.com/u1")

	content, ok := DdayMilestone(7)
	require.True(t, ok)

	dto, err := f.dispatcher.Create(ctx, CreateInput{UserID: "user-1", Type: TypeDdayMilestone, Content: content})
	require.NoError(t, err)
	require.NotNil(t, dto)
	require.Equal(t, "dday_milestone", dto.Type)
	require.Equal(t, "D-7", dto.Title)

	items, total, err := f.notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Len(t, items, 1)

	f.dispatcher.Close() // drain the push queue
	require.Equal(t, []string{"https://push.example.com/u1"}, f.sent())
}

func TestDispatcherCreateRejectsInvalidInput(t *testing.T) {
	f := newDispatcherFixture(t, nil)

	_, err := f.dispatcher.Create(context.Background(), CreateInput{UserID: "", Type: TypeAnnouncement})
	require.Error(t, err)

	_, err = f.dispatcher.Create(context.Background(), CreateInput{UserID: "user-1", Type: Type("bogus")})
	require.Error(t, err)
}

func TestDispatcherSuppressesByPreference(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	ctx := context.Background()

	disabled := false
	_, err := f.preferences.Update(ctx, "user-1", services.UpdatePreferenceInput{BudgetEnabled: &disabled})
	require.NoError(t, err)

	subscribe(t, f.push, "user-1", "https://push.example.com/u1")

	alertType, content := BudgetAlert(85, 1000, 850)
	dto, err := f.dispatcher.Create(ctx, CreateInput{UserID: "user-1", Type: alertType, Content: content})
	require.NoError(t, err)
	require.Nil(t, dto)

	_, total, err := f.notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Zero(t, total)

	f.dispatcher.Close()
	require.Empty(t, f.sent())
}

func TestDispatcherRespectsPushOptOut(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	ctx := context.Background()

	disabled := false
	_, err := f.preferences.Update(ctx, "user-1", services.UpdatePreferenceInput{PushEnabled: &disabled})
	require.NoError(t, err)

	subscribe(t, f.push, "user-1", "https://push.example.com/u1")

	dto, err := f.dispatcher.Create(ctx, CreateInput{UserID: "user-1", Type: TypeAnnouncement, Content: Announcement("공지", "내용")})
	require.NoError(t, err)
	require.NotNil(t, dto) // the feed row is still written

	f.dispatcher.Close()
	require.Empty(t, f.sent())
}

func TestDispatcherCreateBulkDeduplicates(t *testing.T) {
	f := newDispatcherFixture(t, nil)

	created, err := f.dispatcher.CreateBulk(context.Background(),
		[]string{"user-1", "user-2", "user-1", "", "user-2"},
		TypeAnnouncement, Announcement("공지", "내용"))
	require.NoError(t, err)
	require.Equal(t, 2, created)
}

func TestNotifyCoupleActivityExcludesActor(t *testing.T) {
	audience := &fakeAudience{partners: map[string][]string{
		"couple-1": {"user-1", "user-2"},
	}}
	f := newDispatcherFixture(t, audience)
	ctx := context.Background()

	created, err := f.dispatcher.NotifyCoupleActivity(ctx, "user-1", "지수", "couple-1", ActivityChecklist, ActionUpdate, "부케 주문")
	require.NoError(t, err)
	require.Equal(t, 1, created)

	_, actorTotal, err := f.notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Zero(t, actorTotal)

	items, partnerTotal, err := f.notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-2"})
	require.NoError(t, err)
	require.EqualValues(t, 1, partnerTotal)
	require.Contains(t, items[0].Message, "지수님이")
	require.Contains(t, items[0].Message, "부케 주문")
}

func TestNotifyBudgetChangeOnlyOnCrossing(t *testing.T) {
	audience := &fakeAudience{partners: map[string][]string{
		"couple-1": {"user-1", "user-2"},
	}}
	f := newDispatcherFixture(t, audience)
	ctx := context.Background()

	// 75% -> 85% crosses the warning line; both members hear about it
	created, err := f.dispatcher.NotifyBudgetChange(ctx, "couple-1", 750_000, 850_000, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	// 85% -> 90% stays between thresholds
	created, err = f.dispatcher.NotifyBudgetChange(ctx, "couple-1", 850_000, 900_000, 1_000_000)
	require.NoError(t, err)
	require.Zero(t, created)

	// 90% -> 110% crosses the budget itself
	created, err = f.dispatcher.NotifyBudgetChange(ctx, "couple-1", 900_000, 1_100_000, 1_000_000)
	require.NoError(t, err)
	require.Equal(t, 2, created)

	items, _, err := f.notifications.ListForUser(ctx, services.ListNotificationsInput{UserID: "user-1"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Contains(t, items[0].Title, "예산 초과")
}

func TestAnnounceToAll(t *testing.T) {
	audience := &fakeAudience{users: []string{"user-1", "user-2", "user-3"}}
	f := newDispatcherFixture(t, audience)
	ctx := context.Background()

	disabled := false
	_, err := f.preferences.Update(ctx, "user-3", services.UpdatePreferenceInput{AnnouncementEnabled: &disabled})
	require.NoError(t, err)

	created, err := f.dispatcher.AnnounceToAll(ctx, "점검 안내", "오늘 밤 점검이 있어요")
	require.NoError(t, err)
	require.Equal(t, 2, created)
}

func TestDispatcherRequiresAudienceForFanOut(t *testing.T) {
	f := newDispatcherFixture(t, nil)
	ctx := context.Background()

	_, err := f.dispatcher.NotifyCoupleActivity(ctx, "u", "n", "c", ActivityVenue, ActionAdd, "")
	require.Error(t, err)

	_, err = f.dispatcher.NotifyBudgetChange(ctx, "c", 0, 900, 1000)
	require.Error(t, err)

	_, err = f.dispatcher.AnnounceToAll(ctx, "t", "c")
	require.Error(t, err)
}
