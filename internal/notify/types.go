package notify

import (
	"fmt"

	"github.com/wedfulapp/wedful-notify/internal/models"
)

// Type identifies a notification category. The set is closed; every value
// must be wired to a preference flag in preferenceAllows below.
type Type string

const (
	TypeDdayMilestone    Type = "dday_milestone"
	TypeDdayDaily        Type = "dday_daily"
	TypeScheduleReminder Type = "schedule_reminder"
	TypeChecklistDue     Type = "checklist_due"
	TypeChecklistOverdue Type = "checklist_overdue"
	TypeBudgetWarning    Type = "budget_warning"
	TypeBudgetExceeded   Type = "budget_exceeded"
	TypeCoupleActivity   Type = "couple_activity"
	TypeAnnouncement     Type = "announcement"
)

// AllTypes lists every known notification type.
var AllTypes = []Type{
	TypeDdayMilestone,
	TypeDdayDaily,
	TypeScheduleReminder,
	TypeChecklistDue,
	TypeChecklistOverdue,
	TypeBudgetWarning,
	TypeBudgetExceeded,
	TypeCoupleActivity,
	TypeAnnouncement,
}

// Valid reports whether t is one of the closed enum values.
func (t Type) Valid() bool {
	switch t {
	case TypeDdayMilestone, TypeDdayDaily, TypeScheduleReminder,
		TypeChecklistDue, TypeChecklistOverdue,
		TypeBudgetWarning, TypeBudgetExceeded,
		TypeCoupleActivity, TypeAnnouncement:
		return true
	}
	return false
}

func (t Type) String() string { return string(t) }

// preferenceAllows maps a notification type to its owning preference flag.
// The switch is exhaustive over the closed enum so a new type cannot
// silently bypass the preference gate.
func preferenceAllows(pref *models.NotificationPreference, t Type) (bool, error) {
	switch t {
	case TypeDdayMilestone:
		return pref.DdayEnabled, nil
	case TypeDdayDaily:
		return pref.DailyDigestEnabled, nil
	case TypeScheduleReminder:
		return pref.ScheduleEnabled, nil
	case TypeChecklistDue, TypeChecklistOverdue:
		return pref.ChecklistEnabled, nil
	case TypeBudgetWarning, TypeBudgetExceeded:
		return pref.BudgetEnabled, nil
	case TypeCoupleActivity:
		return pref.CoupleActivityEnabled, nil
	case TypeAnnouncement:
		return pref.AnnouncementEnabled, nil
	default:
		return false, fmt.Errorf("notify: unknown notification type %q", t)
	}
}
