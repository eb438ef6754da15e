package notify

import (
	"fmt"
)

// Content is the human-readable rendering of a notification. Builders in
// this file are pure; they never touch storage or transport.
type Content struct {
	Title   string
	Message string
	Data    map[string]any
	Link    string
}

// milestoneDays is the fixed set of D-day milestones that warrant a
// notification. Any other day count stays silent.
var milestoneDays = map[int]string{
	100: "결혼식까지 100일 남았어요! 두 분의 특별한 날을 준비해 보세요 💐",
	30:  "결혼식까지 한 달 남았어요! 준비 상황을 점검해 보세요",
	7:   "결혼식까지 일주일 남았어요! 마지막 준비를 확인하세요",
	1:   "내일이 결혼식이에요! 푹 쉬고 내일을 맞이하세요 💒",
	0:   "오늘은 결혼식 날이에요! 진심으로 축하드립니다 🎉",
}

// IsMilestone reports whether daysLeft is one of the notified milestones.
func IsMilestone(daysLeft int) bool {
	_, ok := milestoneDays[daysLeft]
	return ok
}

// DdayMilestone builds the milestone notification for daysLeft. The second
// return value is false when daysLeft is not a milestone.
func DdayMilestone(daysLeft int) (Content, bool) {
	message, ok := milestoneDays[daysLeft]
	if !ok {
		return Content{}, false
	}

	title := fmt.Sprintf("D-%d", daysLeft)
	if daysLeft == 0 {
		title = "D-Day"
	}

	return Content{
		Title:   title,
		Message: message,
		Data:    map[string]any{"days_left": daysLeft},
		Link:    "/",
	}, true
}

// DdayDaily builds the once-a-day D-day digest line. Unlike milestones it
// fires for any day count.
func DdayDaily(daysLeft int) Content {
	var message string
	switch {
	case daysLeft > 0:
		message = fmt.Sprintf("결혼식까지 %d일 남았어요. 오늘도 화이팅!", daysLeft)
	case daysLeft == 0:
		message = "오늘은 결혼식 날이에요! 축하합니다 🎉"
	default:
		message = fmt.Sprintf("결혼식 후 %d일이 지났어요. 행복한 신혼 보내세요!", -daysLeft)
	}

	return Content{
		Title:   "오늘의 디데이",
		Message: message,
		Data:    map[string]any{"days_left": daysLeft},
		Link:    "/",
	}
}

// BudgetAlert builds the budget threshold notification. Percentages above
// 100 use the exceeded copy, anything else the warning copy; the caller's
// detector decides whether an alert is warranted at all.
func BudgetAlert(percentage float64, totalBudget, totalExpenses int64) (Type, Content) {
	data := map[string]any{
		"percentage":     percentage,
		"total_budget":   totalBudget,
		"total_expenses": totalExpenses,
	}

	if percentage > 100 {
		return TypeBudgetExceeded, Content{
			Title:   "예산 초과 ⚠️",
			Message: fmt.Sprintf("설정한 예산을 초과했어요! 현재 예산의 %.0f%%를 사용했습니다", percentage),
			Data:    data,
			Link:    "/budget",
		}
	}

	return TypeBudgetWarning, Content{
		Title:   "예산 경고",
		Message: fmt.Sprintf("예산의 %.0f%%를 사용했어요. 지출 내역을 확인해 보세요", percentage),
		Data:    data,
		Link:    "/budget",
	}
}

// ActivityType enumerates the domain areas a partner can act on.
type ActivityType string

const (
	ActivityVenue     ActivityType = "venue"
	ActivityExpense   ActivityType = "expense"
	ActivityChecklist ActivityType = "checklist"
	ActivitySchedule  ActivityType = "schedule"
)

// ActivityAction enumerates what the partner did.
type ActivityAction string

const (
	ActionAdd    ActivityAction = "add"
	ActionUpdate ActivityAction = "update"
	ActionDelete ActivityAction = "delete"
)

type activityKey struct {
	activity ActivityType
	action   ActivityAction
}

var activityMessages = map[activityKey]string{
	{ActivityVenue, ActionAdd}:        "%s님이 웨딩홀을 추가했어요",
	{ActivityVenue, ActionUpdate}:     "%s님이 웨딩홀 정보를 수정했어요",
	{ActivityVenue, ActionDelete}:     "%s님이 웨딩홀을 삭제했어요",
	{ActivityExpense, ActionAdd}:      "%s님이 지출 내역을 추가했어요",
	{ActivityExpense, ActionUpdate}:   "%s님이 지출 내역을 수정했어요",
	{ActivityExpense, ActionDelete}:   "%s님이 지출 내역을 삭제했어요",
	{ActivityChecklist, ActionAdd}:    "%s님이 체크리스트 항목을 추가했어요",
	{ActivityChecklist, ActionUpdate}: "%s님이 체크리스트 항목을 수정했어요",
	{ActivityChecklist, ActionDelete}: "%s님이 체크리스트 항목을 삭제했어요",
	{ActivitySchedule, ActionAdd}:     "%s님이 일정을 추가했어요",
	{ActivitySchedule, ActionUpdate}:  "%s님이 일정을 수정했어요",
	{ActivitySchedule, ActionDelete}:  "%s님이 일정을 삭제했어요",
}

var activityLinks = map[ActivityType]string{
	ActivityVenue:     "/venues",
	ActivityExpense:   "/budget",
	ActivityChecklist: "/checklist",
	ActivitySchedule:  "/calendar",
}

// CoupleActivity builds the partner-activity notification. itemName is
// appended to the sentence when present.
func CoupleActivity(activity ActivityType, action ActivityAction, actorName, itemName string) (Content, error) {
	template, ok := activityMessages[activityKey{activity, action}]
	if !ok {
		return Content{}, fmt.Errorf("notify: unknown activity %q/%q", activity, action)
	}

	message := fmt.Sprintf(template, actorName)
	if itemName != "" {
		message = fmt.Sprintf("%s: %s", message, itemName)
	}

	return Content{
		Title:   "커플 활동",
		Message: message,
		Data: map[string]any{
			"activity_type": string(activity),
			"action":        string(action),
			"actor_name":    actorName,
		},
		Link: activityLinks[activity],
	}, nil
}

// ChecklistDue builds the due/overdue notification for a checklist item.
// itemID rides along in the payload and doubles as the same-day dedup key.
func ChecklistDue(itemID, itemTitle string, isOverdue bool) (Type, Content) {
	data := map[string]any{
		"item_id":    itemID,
		"item_title": itemTitle,
	}

	if isOverdue {
		return TypeChecklistOverdue, Content{
			Title:   "체크리스트 기한 초과",
			Message: fmt.Sprintf("'%s' 항목의 마감일이 지났어요! 확인해 주세요", itemTitle),
			Data:    data,
			Link:    "/checklist",
		}
	}

	return TypeChecklistDue, Content{
		Title:   "체크리스트 마감 알림",
		Message: fmt.Sprintf("'%s' 항목의 마감일이 오늘이에요!", itemTitle),
		Data:    data,
		Link:    "/checklist",
	}
}

const announcementLimit = 200

// Announcement passes admin copy through, truncating long content so the
// feed and push payloads stay compact.
func Announcement(title, content string) Content {
	runes := []rune(content)
	if len(runes) > announcementLimit {
		content = string(runes[:announcementLimit]) + "..."
	}

	return Content{
		Title:   title,
		Message: content,
		Data:    map[string]any{},
	}
}
