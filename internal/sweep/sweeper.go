package sweep

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wedfulapp/wedful-notify/internal/notify"
	"github.com/wedfulapp/wedful-notify/internal/services"
	"github.com/wedfulapp/wedful-notify/pkg/logger"
	"github.com/wedfulapp/wedful-notify/pkg/metrics"
)

const (
	defaultMilestoneSpec = "@daily"
	defaultDigestSpec    = "@daily"
	defaultBudgetSpec    = "@daily"
	defaultChecklistSpec = "@hourly"
)

// Wedding is one couple with a scheduled wedding date.
type Wedding struct {
	CoupleID    string
	WeddingDate time.Time
	MemberIDs   []string
}

// DigestRecipient is a user who should receive the daily D-day digest.
type DigestRecipient struct {
	UserID      string
	WeddingDate time.Time
}

// CoupleBudget is a couple's current budget position, sourced from the
// expense tables by the host application.
type CoupleBudget struct {
	CoupleID   string
	MemberIDs  []string
	TotalSpent int64
	Budget     int64
}

// DueItem is a checklist item due today or overdue, as determined by the
// checklist owner.
type DueItem struct {
	UserID    string
	ItemID    string
	Title     string
	IsOverdue bool
}

// CoupleDirectory resolves wedding and digest recipients.
type CoupleDirectory interface {
	UpcomingWeddings(ctx context.Context, now time.Time) ([]Wedding, error)
	DigestRecipients(ctx context.Context) ([]DigestRecipient, error)
}

// BudgetReader supplies every couple's spend totals for the budget sweep.
type BudgetReader interface {
	CoupleBudgets(ctx context.Context) ([]CoupleBudget, error)
}

// ChecklistSource supplies checklist items that are due or overdue.
type ChecklistSource interface {
	DueItems(ctx context.Context, now time.Time) ([]DueItem, error)
}

// Sweeper runs the periodic notification sweeps. Each job re-checks the
// day's already-created notifications before dispatching, so running a
// sweep twice in one day does not duplicate anything. A nil source skips
// the corresponding job, mirroring how optional maintenance tasks are
// wired elsewhere.
type Sweeper struct {
	dispatcher    *notify.Dispatcher
	notifications *services.NotificationService
	directory     CoupleDirectory
	budget        BudgetReader
	checklist     ChecklistSource

	cron *cron.Cron
	now  func() time.Time
	log  *zap.Logger

	milestoneSpec string
	digestSpec    string
	budgetSpec    string
	checklistSpec string
}

// Option customises the Sweeper.
type Option func(*Sweeper)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Sweeper) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for day computations.
func WithNow(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBudgetReader wires the expense-totals source for the budget sweep.
func WithBudgetReader(reader BudgetReader) Option {
	return func(s *Sweeper) {
		s.budget = reader
	}
}

// WithChecklistSource wires the due-item source for the checklist sweep.
func WithChecklistSource(source ChecklistSource) Option {
	return func(s *Sweeper) {
		s.checklist = source
	}
}

// WithSchedules overrides the cron specs for the four jobs. Empty strings
// keep the defaults.
func WithSchedules(milestone, digest, budget, checklist string) Option {
	return func(s *Sweeper) {
		if milestone != "" {
			s.milestoneSpec = milestone
		}
		if digest != "" {
			s.digestSpec = digest
		}
		if budget != "" {
			s.budgetSpec = budget
		}
		if checklist != "" {
			s.checklistSpec = checklist
		}
	}
}

// NewSweeper constructs a Sweeper with sensible defaults.
func NewSweeper(dispatcher *notify.Dispatcher, notifications *services.NotificationService, directory CoupleDirectory, opts ...Option) (*Sweeper, error) {
	if dispatcher == nil {
		return nil, errors.New("sweeper: dispatcher is required")
	}
	if notifications == nil {
		return nil, errors.New("sweeper: notification service is required")
	}

	s := &Sweeper{
		dispatcher:    dispatcher,
		notifications: notifications,
		directory:     directory,
		now:           time.Now,
		log:           logger.WithModule("sweep"),
		milestoneSpec: defaultMilestoneSpec,
		digestSpec:    defaultDigestSpec,
		budgetSpec:    defaultBudgetSpec,
		checklistSpec: defaultChecklistSpec,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}

	return s, nil
}

// Start registers the sweep jobs with the cron scheduler and launches it.
func (s *Sweeper) Start() error {
	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
		skip bool
	}{
		{"milestone", s.milestoneSpec, s.RunMilestoneSweep, s.directory == nil},
		{"digest", s.digestSpec, s.RunDailyDigestSweep, s.directory == nil},
		{"budget", s.budgetSpec, s.RunBudgetSweep, s.budget == nil},
		{"checklist", s.checklistSpec, s.RunChecklistSweep, s.checklist == nil},
	}

	for _, job := range jobs {
		if job.skip {
			continue
		}
		name, run := job.name, job.run
		if _, err := s.cron.AddFunc(job.spec, func() {
			if err := run(context.Background()); err != nil {
				metrics.SweepRuns.WithLabelValues(name, "error").Inc()
				s.log.Warn("sweep failed", zap.String("job", name), zap.Error(err))
				return
			}
			metrics.SweepRuns.WithLabelValues(name, "ok").Inc()
		}); err != nil {
			return err
		}
	}

	s.cron.Start()
	return nil
}

// Stop halts the scheduler, waiting for any running jobs to complete.
func (s *Sweeper) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// RunOnce executes every configured sweep sequentially. Used by tests and
// during graceful shutdown.
func (s *Sweeper) RunOnce(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs error
	if s.directory != nil {
		errs = multierr.Append(errs, s.RunMilestoneSweep(ctx))
		errs = multierr.Append(errs, s.RunDailyDigestSweep(ctx))
	}
	if s.budget != nil {
		errs = multierr.Append(errs, s.RunBudgetSweep(ctx))
	}
	if s.checklist != nil {
		errs = multierr.Append(errs, s.RunChecklistSweep(ctx))
	}
	return errs
}

// RunMilestoneSweep notifies couples whose wedding is exactly a milestone
// number of days away. Dedup key: type + days_left, per user, per day.
func (s *Sweeper) RunMilestoneSweep(ctx context.Context) error {
	if s.directory == nil {
		return nil
	}

	now := s.now()
	weddings, err := s.directory.UpcomingWeddings(ctx, now)
	if err != nil {
		return err
	}

	var errs error
	for _, wedding := range weddings {
		daysLeft := notify.DaysUntil(wedding.WeddingDate, now)
		content, ok := notify.DdayMilestone(daysLeft)
		if !ok {
			continue
		}

		for _, userID := range wedding.MemberIDs {
			count, err := s.notifications.CountCreatedToday(ctx, userID, notify.TypeDdayMilestone.String(), "days_left", daysLeft)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if count > 0 {
				continue
			}

			if _, err := s.dispatcher.Create(ctx, notify.CreateInput{
				UserID:  userID,
				Type:    notify.TypeDdayMilestone,
				Content: content,
			}); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}

// RunDailyDigestSweep sends the once-a-day D-day line to digest users.
// Dedup key: type, per user, per day.
func (s *Sweeper) RunDailyDigestSweep(ctx context.Context) error {
	if s.directory == nil {
		return nil
	}

	now := s.now()
	recipients, err := s.directory.DigestRecipients(ctx)
	if err != nil {
		return err
	}

	var errs error
	for _, recipient := range recipients {
		count, err := s.notifications.CountCreatedToday(ctx, recipient.UserID, notify.TypeDdayDaily.String(), "", nil)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if count > 0 {
			continue
		}

		daysLeft := notify.DaysUntil(recipient.WeddingDate, now)
		if _, err := s.dispatcher.Create(ctx, notify.CreateInput{
			UserID:  recipient.UserID,
			Type:    notify.TypeDdayDaily,
			Content: notify.DdayDaily(daysLeft),
		}); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}

// RunBudgetSweep re-evaluates every couple's spend level against the
// static thresholds. This is the coarser counterpart to the realtime
// crossing detector: it fires at most once per category per user per day,
// which also absorbs alerts the realtime path already created today.
func (s *Sweeper) RunBudgetSweep(ctx context.Context) error {
	if s.budget == nil {
		return nil
	}

	budgets, err := s.budget.CoupleBudgets(ctx)
	if err != nil {
		return err
	}

	var errs error
	for _, couple := range budgets {
		level := notify.DetectBudgetLevel(couple.TotalSpent, couple.Budget)
		if level == notify.BudgetCrossingNone {
			continue
		}

		pct := notify.BudgetPercent(couple.TotalSpent, couple.Budget)
		alertType, content := notify.BudgetAlert(pct, couple.Budget, couple.TotalSpent)

		for _, userID := range couple.MemberIDs {
			count, err := s.notifications.CountCreatedToday(ctx, userID, alertType.String(), "", nil)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			if count > 0 {
				continue
			}

			if _, err := s.dispatcher.Create(ctx, notify.CreateInput{
				UserID:  userID,
				Type:    alertType,
				Content: content,
			}); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}

// RunChecklistSweep notifies owners of checklist items that are due today
// or overdue. Dedup key: type + item_id, per user, per day.
func (s *Sweeper) RunChecklistSweep(ctx context.Context) error {
	if s.checklist == nil {
		return nil
	}

	items, err := s.checklist.DueItems(ctx, s.now())
	if err != nil {
		return err
	}

	var errs error
	for _, item := range items {
		itemType, content := notify.ChecklistDue(item.ItemID, item.Title, item.IsOverdue)

		count, err := s.notifications.CountCreatedToday(ctx, item.UserID, itemType.String(), "item_id", item.ItemID)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if count > 0 {
			continue
		}

		if _, err := s.dispatcher.Create(ctx, notify.CreateInput{
			UserID:  item.UserID,
			Type:    itemType,
			Content: content,
		}); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
