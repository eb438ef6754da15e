package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wedfulapp/wedful-notify/internal/push"
	"github.com/wedfulapp/wedful-notify/internal/services"
	"github.com/wedfulapp/wedful-notify/pkg/logger"
	"github.com/wedfulapp/wedful-notify/pkg/metrics"
)

// Audience resolves notification recipients from the shared identity
// tables. Implemented by the directory package; declared here so the
// dispatcher stays decoupled from storage.
type Audience interface {
	// PartnersOf returns the user IDs sharing coupleID, excluding
	// excludeUserID (the actor should not be notified of their own edit).
	PartnersOf(ctx context.Context, coupleID, excludeUserID string) ([]string, error)
	// NonAdminUserIDs returns every regular user, for announcements.
	NonAdminUserIDs(ctx context.Context) ([]string, error)
}

// CreateInput describes one notification to dispatch.
type CreateInput struct {
	UserID  string
	Type    Type
	Content Content
}

type pushJob struct {
	userID  string
	payload push.Payload
}

// Dispatcher is the single gate through which notifications are created.
// It checks preferences, persists the feed row, and hands delivery to the
// push transport on a background worker so a slow push provider never
// stalls the request path that triggered the notification.
type Dispatcher struct {
	notifications *services.NotificationService
	preferences   *services.PreferenceService
	transport     *push.Service
	audience      Audience
	log           *zap.Logger

	queue chan pushJob
	wg    sync.WaitGroup

	closeOnce sync.Once
}

// NewDispatcher constructs a Dispatcher and starts its push worker.
// audience may be nil when activity/announcement fan-out is not needed.
func NewDispatcher(notifications *services.NotificationService, preferences *services.PreferenceService, transport *push.Service, audience Audience) (*Dispatcher, error) {
	if notifications == nil {
		return nil, errors.New("dispatcher: notification service is required")
	}
	if preferences == nil {
		return nil, errors.New("dispatcher: preference service is required")
	}
	if transport == nil {
		return nil, errors.New("dispatcher: push transport is required")
	}

	d := &Dispatcher{
		notifications: notifications,
		preferences:   preferences,
		transport:     transport,
		audience:      audience,
		log:           logger.WithModule("dispatcher"),
		queue:         make(chan pushJob, 64),
	}

	d.wg.Add(1)
	go d.pushWorker()

	return d, nil
}

// Close stops the push worker after draining queued deliveries.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}

// Create runs the full gate: preference check, persistence, async push.
// A nil result with a nil error means the notification was suppressed by
// the user's preferences; nothing was written and nothing will be pushed.
// Storage failures propagate to the caller.
func (d *Dispatcher) Create(ctx context.Context, input CreateInput) (*services.NotificationDTO, error) {
	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		return nil, errors.New("dispatcher: user id is required")
	}
	if !input.Type.Valid() {
		return nil, fmt.Errorf("dispatcher: invalid notification type %q", input.Type)
	}

	pref, err := d.preferences.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	allowed, err := preferenceAllows(pref, input.Type)
	if err != nil {
		return nil, err
	}
	if !allowed {
		metrics.NotificationsSuppressed.WithLabelValues(input.Type.String()).Inc()
		d.log.Debug("notification suppressed by preference",
			zap.String("user_id", userID),
			zap.String("type", input.Type.String()),
		)
		return nil, nil
	}

	dto, err := d.notifications.Create(ctx, services.CreateNotificationInput{
		UserID:  userID,
		Type:    input.Type.String(),
		Title:   input.Content.Title,
		Message: input.Content.Message,
		Link:    input.Content.Link,
		Data:    input.Content.Data,
	})
	if err != nil {
		return nil, err
	}

	if pref.PushEnabled {
		d.enqueuePush(pushJob{
			userID:  userID,
			payload: push.NewPayload(input.Content.Title, input.Content.Message, input.Type.String(), input.Content.Link),
		})
	}

	return dto, nil
}

// CreateBulk dispatches the same content to many users and returns how
// many notifications were actually created (suppressed users don't
// count). Per-user storage errors are aggregated, not fatal to the rest.
func (d *Dispatcher) CreateBulk(ctx context.Context, userIDs []string, t Type, content Content) (int, error) {
	seen := make(map[string]struct{}, len(userIDs))
	created := 0
	var errs error

	for _, userID := range userIDs {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		if _, dup := seen[userID]; dup {
			continue
		}
		seen[userID] = struct{}{}

		dto, err := d.Create(ctx, CreateInput{UserID: userID, Type: t, Content: content})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if dto != nil {
			created++
		}
	}

	return created, errs
}

// NotifyCoupleActivity tells the actor's partner about a mutation in one
// of the shared planning areas. Callers invoke it after the mutation
// succeeds; the actor themselves is never notified.
func (d *Dispatcher) NotifyCoupleActivity(ctx context.Context, actorID, actorName, coupleID string, activity ActivityType, action ActivityAction, itemName string) (int, error) {
	if d.audience == nil {
		return 0, errors.New("dispatcher: audience resolver is required for activity notifications")
	}

	content, err := CoupleActivity(activity, action, actorName, itemName)
	if err != nil {
		return 0, err
	}

	partners, err := d.audience.PartnersOf(ctx, coupleID, actorID)
	if err != nil {
		return 0, err
	}

	return d.CreateBulk(ctx, partners, TypeCoupleActivity, content)
}

// NotifyBudgetChange is the realtime companion to the budget sweep,
// invoked inline after an expense mutation. It fires only when the new
// total crosses a threshold the previous total was under, so repeated
// edits above the line stay silent. Every member of the couple is
// notified, including the actor.
func (d *Dispatcher) NotifyBudgetChange(ctx context.Context, coupleID string, previousSpent, currentSpent, totalBudget int64) (int, error) {
	if d.audience == nil {
		return 0, errors.New("dispatcher: audience resolver is required for budget notifications")
	}

	if DetectBudgetCrossing(previousSpent, currentSpent, totalBudget) == BudgetCrossingNone {
		return 0, nil
	}

	pct := BudgetPercent(currentSpent, totalBudget)
	alertType, content := BudgetAlert(pct, totalBudget, currentSpent)

	members, err := d.audience.PartnersOf(ctx, coupleID, "")
	if err != nil {
		return 0, err
	}

	return d.CreateBulk(ctx, members, alertType, content)
}

// AnnounceToAll broadcasts an admin announcement to every non-admin user.
func (d *Dispatcher) AnnounceToAll(ctx context.Context, title, content string) (int, error) {
	if d.audience == nil {
		return 0, errors.New("dispatcher: audience resolver is required for announcements")
	}

	userIDs, err := d.audience.NonAdminUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	return d.CreateBulk(ctx, userIDs, TypeAnnouncement, Announcement(title, content))
}

// enqueuePush hands a delivery to the background worker. When the queue
// is saturated the delivery runs on the calling goroutine instead of
// being dropped; the row is already persisted either way.
func (d *Dispatcher) enqueuePush(job pushJob) {
	select {
	case d.queue <- job:
	default:
		d.log.Warn("push queue full, delivering inline", zap.String("user_id", job.userID))
		d.deliver(job)
	}
}

func (d *Dispatcher) pushWorker() {
	defer d.wg.Done()
	for job := range d.queue {
		d.deliver(job)
	}
}

// deliver performs one push fan-out. Failures are logged and counted by
// the transport; they never surface to the notification-creation path.
func (d *Dispatcher) deliver(job pushJob) {
	result, err := d.transport.Send(context.Background(), job.userID, job.payload)
	if err != nil {
		d.log.Warn("push delivery error",
			zap.String("user_id", job.userID),
			zap.Error(err),
		)
		return
	}
	if result.Failed > 0 {
		d.log.Debug("push fan-out had failures",
			zap.String("user_id", job.userID),
			zap.Int("success", result.Success),
			zap.Int("failed", result.Failed),
		)
	}
}
