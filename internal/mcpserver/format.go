package mcpserver

import (
	"fmt"
	"strings"

	"github.com/username/jp-holiday-mcp/internal/calendar"
)

// Fixed response texts
const (
	MsgInvalidDate     = "日付の形式が正しくありません。YYYY-MM-DD形式で入力してください。"
	MsgInvalidMonth    = "月は1から12の間で指定してください。"
	MsgDataUnavailable = "休日データの読み込みに失敗しました。"
	MsgNoNextHoliday   = "次の祝日が見つかりませんでした。"
)

func yesNo(b bool) string {
	if b {
		return "はい"
	}
	return "いいえ"
}

// FormatDayInfo renders a day record
func FormatDayInfo(rec *calendar.Record) string {
	var b strings.Builder

	fmt.Fprintf(&b, "日付: %s (%s曜日)\n", orUnknown(rec.Date), orUnknown(rec.DayOfWeek.Name))

	if rec.PublicHoliday.IsHoliday {
		fmt.Fprintf(&b, "祝日: %s\n", rec.PublicHoliday.Name)
	} else {
		b.WriteString("祝日: なし\n")
	}

	fmt.Fprintf(&b, "銀行休業日: %s\n", yesNo(rec.BankHoliday.IsClosed))

	if rec.HasBusinessDayCount() {
		remaining := 0
		if rec.BusinessDayCount.Remaining != nil {
			remaining = *rec.BusinessDayCount.Remaining
		}
		fmt.Fprintf(&b, "当月営業日数 (経過): %d\n", *rec.BusinessDayCount.Elapsed)
		fmt.Fprintf(&b, "当月営業日数 (残り): %d\n", remaining)
	}

	if rec.DayBeforeHoliday.Flag {
		b.WriteString("前日が祝日: はい\n")
	}
	if rec.DayAfterHoliday.Flag {
		b.WriteString("翌日が祝日: はい\n")
	}

	return b.String()
}

// FormatDayNotFound renders a missing date
func FormatDayNotFound(date string) string {
	return fmt.Sprintf("%sの情報が見つかりませんでした。", date)
}

// FormatMonthHolidays renders the holiday list of a month
func FormatMonthHolidays(year, month int, holidays []calendar.HolidayEntry) string {
	if len(holidays) == 0 {
		return fmt.Sprintf("%d年%d月には祝日がありません。", year, month)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d年%d月の祝日:\n\n", year, month)
	for _, h := range holidays {
		fmt.Fprintf(&b, "• %s (%s曜日): %s\n", h.Date, h.DayOfWeek, h.Name)
	}
	return b.String()
}

// FormatNextHoliday renders the next holiday
func FormatNextHoliday(h *calendar.HolidayEntry) string {
	return fmt.Sprintf("次の祝日: %s (%s曜日) - %s", h.Date, h.DayOfWeek, h.Name)
}

// FormatBusinessDays renders a business day summary
func FormatBusinessDays(year, month int, s *calendar.BusinessDaySummary) string {
	return fmt.Sprintf("%d年%d月:\n営業日数: %d日\n総日数: %d日\n休業日数: %d日",
		year, month, s.BusinessDays, s.TotalDays, s.ClosedDays)
}

// FormatMonthNotFound renders a month without data
func FormatMonthNotFound(year, month int) string {
	return fmt.Sprintf("%d年%d月のデータが見つかりませんでした。", year, month)
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
