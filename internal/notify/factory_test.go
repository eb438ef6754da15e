package notify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDdayMilestone(t *testing.T) {
	for _, days := range []int{100, 30, 7, 1} {
		content, ok := DdayMilestone(days)
		require.True(t, ok, days)
		require.Contains(t, content.Title, "D-")
		require.NotEmpty(t, content.Message)
		require.Equal(t, days, content.Data["days_left"])
	}

	content, ok := DdayMilestone(0)
	require.True(t, ok)
	require.Equal(t, "D-Day", content.Title)

	sevenDays, _ := DdayMilestone(7)
	require.Contains(t, sevenDays.Message, "일주일")
}

func TestDdayMilestoneSilentOffMilestone(t *testing.T) {
	for _, days := range []int{99, 50, 31, 29, 8, 6, 2, -1, 365} {
		require.False(t, IsMilestone(days), days)
		_, ok := DdayMilestone(days)
		require.False(t, ok, days)
	}
}

func TestDdayDaily(t *testing.T) {
	before := DdayDaily(45)
	require.Contains(t, before.Message, "45일")

	day := DdayDaily(0)
	require.Contains(t, day.Message, "결혼식 날")

	after := DdayDaily(-3)
	require.Contains(t, after.Message, "3일")
}

func TestBudgetAlert(t *testing.T) {
	typ, content := BudgetAlert(85, 1_000_000, 850_000)
	require.Equal(t, TypeBudgetWarning, typ)
	require.Equal(t, "예산 경고", content.Title)
	require.Contains(t, content.Message, "85%")
	require.Equal(t, "/budget", content.Link)

	typ, content = BudgetAlert(105, 1_000_000, 1_050_000)
	require.Equal(t, TypeBudgetExceeded, typ)
	require.Contains(t, content.Title, "예산 초과")
	require.Contains(t, content.Message, "105%")
	require.EqualValues(t, 1_000_000, content.Data["total_budget"])
	require.EqualValues(t, 1_050_000, content.Data["total_expenses"])
}

func TestCoupleActivity(t *testing.T) {
	content, err := CoupleActivity(ActivityExpense, ActionAdd, "지수", "스튜디오 예약금")
	require.NoError(t, err)
	require.Equal(t, "커플 활동", content.Title)
	require.Equal(t, "지수님이 지출 내역을 추가했어요: 스튜디오 예약금", content.Message)
	require.Equal(t, "/budget", content.Link)
	require.Equal(t, "expense", content.Data["activity_type"])
	require.Equal(t, "add", content.Data["action"])

	content, err = CoupleActivity(ActivityVenue, ActionDelete, "민준", "")
	require.NoError(t, err)
	require.Equal(t, "민준님이 웨딩홀을 삭제했어요", content.Message)
	require.Equal(t, "/venues", content.Link)
}

func TestCoupleActivityCoversEveryPair(t *testing.T) {
	activities := []ActivityType{ActivityVenue, ActivityExpense, ActivityChecklist, ActivitySchedule}
	actions := []ActivityAction{ActionAdd, ActionUpdate, ActionDelete}

	for _, activity := range activities {
		for _, action := range actions {
			content, err := CoupleActivity(activity, action, "테스트", "")
			require.NoError(t, err)
			require.NotEmpty(t, content.Message)
			require.NotEmpty(t, content.Link)
		}
	}

	_, err := CoupleActivity(ActivityType("unknown"), ActionAdd, "테스트", "")
	require.Error(t, err)
}

func TestChecklistDue(t *testing.T) {
	typ, content := ChecklistDue("item-1", "청첩장 발송", false)
	require.Equal(t, TypeChecklistDue, typ)
	require.Contains(t, content.Message, "청첩장 발송")
	require.Contains(t, content.Message, "오늘")
	require.Equal(t, "item-1", content.Data["item_id"])

	typ, content = ChecklistDue("item-2", "드레스 가봉", true)
	require.Equal(t, TypeChecklistOverdue, typ)
	require.Contains(t, content.Message, "지났어요")
}

func TestAnnouncementTruncation(t *testing.T) {
	short := Announcement("공지", "짧은 공지입니다")
	require.Equal(t, "짧은 공지입니다", short.Message)

	long := strings.Repeat("가", 250)
	truncated := Announcement("공지", long)
	require.Equal(t, 203, len([]rune(truncated.Message)))
	require.True(t, strings.HasSuffix(truncated.Message, "..."))
}
