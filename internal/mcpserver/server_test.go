package mcpserver

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/jp-holiday-mcp/internal/calendar"
	"github.com/username/jp-holiday-mcp/internal/metrics"
	"go.uber.org/zap"
)

const testDataFile = "../calendar/testdata/calendar_holiday.json"

func newTestServer(t *testing.T, dataPath string, opts ...Option) *Server {
	t.Helper()
	store := calendar.NewStore(calendar.Source{Path: dataPath}, zap.NewNop(), nil)
	return New("", "", calendar.NewEngine(store), zap.NewNop(), opts...)
}

func fixedClock(utc string) func() time.Time {
	return func() time.Time {
		t, err := time.Parse(time.RFC3339, utc)
		if err != nil {
			panic(err)
		}
		return t
	}
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func TestServer_DayInfo(t *testing.T) {
	s := newTestServer(t, testDataFile)

	tests := []struct {
		name    string
		date    string
		want    string
		outcome Outcome
	}{
		{
			name: "New Year 1955 without business day counters",
			date: "1955-01-01",
			want: "日付: 1955-01-01 (土曜日)\n" +
				"祝日: 元日\n" +
				"銀行休業日: はい\n",
			outcome: OutcomeOK,
		},
		{
			name: "Coming of Age Day 2025",
			date: "2025-01-13",
			want: "日付: 2025-01-13 (月曜日)\n" +
				"祝日: 成人の日\n" +
				"銀行休業日: はい\n" +
				"当月営業日数 (経過): 5\n" +
				"当月営業日数 (残り): 14\n",
			outcome: OutcomeOK,
		},
		{
			name: "day before a holiday",
			date: "2025-01-12",
			want: "日付: 2025-01-12 (日曜日)\n" +
				"祝日: なし\n" +
				"銀行休業日: はい\n" +
				"当月営業日数 (経過): 5\n" +
				"当月営業日数 (残り): 14\n" +
				"翌日が祝日: はい\n",
			outcome: OutcomeOK,
		},
		{
			name: "ordinary business day",
			date: "2025-01-14",
			want: "日付: 2025-01-14 (火曜日)\n" +
				"祝日: なし\n" +
				"銀行休業日: いいえ\n" +
				"当月営業日数 (経過): 6\n" +
				"当月営業日数 (残り): 13\n" +
				"前日が祝日: はい\n",
			outcome: OutcomeOK,
		},
		{
			name:    "date not in data",
			date:    "2025-04-15",
			want:    "2025-04-15の情報が見つかりませんでした。",
			outcome: OutcomeNotFound,
		},
		{name: "slashes", date: "2025/01/01", want: MsgInvalidDate, outcome: OutcomeInvalidArgument},
		{name: "calendar-invalid day", date: "2025-02-30", want: MsgInvalidDate, outcome: OutcomeInvalidArgument},
		{name: "empty", date: "", want: MsgInvalidDate, outcome: OutcomeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := s.DayInfo(tt.date)
			assert.Equal(t, tt.want, reply.Text)
			assert.Equal(t, tt.outcome, reply.Outcome)
		})
	}
}

func TestServer_MonthHolidays(t *testing.T) {
	s := newTestServer(t, testDataFile)

	reply := s.MonthHolidays(2025, 1)
	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Equal(t, "2025年1月の祝日:\n\n"+
		"• 2025-01-01 (水曜日): 元日\n"+
		"• 2025-01-13 (月曜日): 成人の日\n", reply.Text)

	reply = s.MonthHolidays(2025, 6)
	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Equal(t, "2025年6月には祝日がありません。", reply.Text)

	for _, month := range []int{0, 13} {
		reply = s.MonthHolidays(2025, month)
		assert.Equal(t, OutcomeInvalidArgument, reply.Outcome)
		assert.Equal(t, MsgInvalidMonth, reply.Text)
	}
}

func TestServer_BusinessDays(t *testing.T) {
	s := newTestServer(t, testDataFile)

	reply := s.BusinessDays(2025, 1)
	assert.Equal(t, OutcomeOK, reply.Outcome)
	assert.Equal(t, "2025年1月:\n営業日数: 19日\n総日数: 31日\n休業日数: 12日", reply.Text)

	reply = s.BusinessDays(2025, 4)
	assert.Equal(t, OutcomeNotFound, reply.Outcome)
	assert.Equal(t, "2025年4月のデータが見つかりませんでした。", reply.Text)

	reply = s.BusinessDays(2025, 13)
	assert.Equal(t, OutcomeInvalidArgument, reply.Outcome)
	assert.Equal(t, MsgInvalidMonth, reply.Text)
}

func TestServer_NextHolidayUsesJapanTime(t *testing.T) {
	// 2024-12-31 16:00 UTC is 2025-01-01 01:00 in Japan
	s := newTestServer(t, testDataFile, WithClock(fixedClock("2024-12-31T16:00:00Z")))

	assert.Equal(t, "2025-01-01", s.Today())

	res, err := s.handleNextHoliday(context.Background(), callRequest(ToolNextHoliday, nil))
	require.NoError(t, err)
	assert.Equal(t, "次の祝日: 2025-01-01 (水曜日) - 元日", res.Text)
}

func TestServer_NextHolidayStopsAtFirstDay(t *testing.T) {
	s := newTestServer(t, testDataFile, WithClock(fixedClock("2025-01-12T03:00:00Z")))

	reply := s.NextHoliday(s.Today())
	assert.Equal(t, OutcomeNotFound, reply.Outcome)
	assert.Equal(t, MsgNoNextHoliday, reply.Text)
}

func TestServer_DataUnavailable(t *testing.T) {
	s := newTestServer(t, "testdata/missing.json")

	for _, reply := range []Reply{
		s.DayInfo("2025-01-01"),
		s.MonthHolidays(2025, 1),
		s.NextHoliday("2025-01-01"),
		s.BusinessDays(2025, 1),
	} {
		assert.Equal(t, MsgDataUnavailable, reply.Text)
		assert.Equal(t, OutcomeDataUnavailable, reply.Outcome)
	}

	// Argument checks happen before the data is consulted
	assert.Equal(t, MsgInvalidMonth, s.BusinessDays(2025, 0).Text)
	assert.Equal(t, MsgInvalidDate, s.DayInfo("01/01/2025").Text)
}

func TestServer_ToolHandlers(t *testing.T) {
	m := metrics.NewMetrics()
	s := newTestServer(t, testDataFile, WithMetrics(m))
	ctx := context.Background()

	handler := s.instrument(ToolMonthHolidays, s.handleMonthHolidays)

	// JSON numbers arrive as float64
	res, err := handler(ctx, callRequest(ToolMonthHolidays, map[string]any{"year": float64(2025), "month": float64(2)}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), "• 2025-02-24 (月曜日): 休日")

	res, err = handler(ctx, callRequest(ToolMonthHolidays, map[string]any{"year": float64(2025)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	infoHandler := s.instrument(ToolHolidayInfo, s.handleHolidayInfo)
	res, err = infoHandler(ctx, callRequest(ToolHolidayInfo, map[string]any{"target_date": "2025-13-01"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, MsgInvalidDate, resultText(t, res))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues(ToolMonthHolidays, string(OutcomeOK))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues(ToolMonthHolidays, string(OutcomeInvalidArgument))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues(ToolHolidayInfo, string(OutcomeInvalidArgument))))
}

func TestServer_JSONRPC(t *testing.T) {
	s := newTestServer(t, testDataFile)
	ctx := context.Background()

	send := func(t *testing.T, msg string) map[string]any {
		t.Helper()
		resp := s.MCP().HandleMessage(ctx, json.RawMessage(msg))
		require.NotNil(t, resp)

		raw, err := json.Marshal(resp)
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal(raw, &decoded))
		require.Nil(t, decoded["error"], string(raw))
		return decoded
	}

	send(t, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test-client","version":"1.0.0"}}}`)

	t.Run("tools/list", func(t *testing.T) {
		resp := send(t, `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)

		result := resp["result"].(map[string]any)
		var names []string
		for _, tool := range result["tools"].([]any) {
			names = append(names, tool.(map[string]any)["name"].(string))
		}
		assert.ElementsMatch(t, []string{ToolHolidayInfo, ToolMonthHolidays, ToolNextHoliday, ToolBusinessDays}, names)
	})

	t.Run("tools/call", func(t *testing.T) {
		resp := send(t, `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"get_business_days_count","arguments":{"year":2025,"month":6}}}`)

		result := resp["result"].(map[string]any)
		content := result["content"].([]any)
		require.Len(t, content, 1)
		assert.Equal(t, "2025年6月:\n営業日数: 21日\n総日数: 30日\n休業日数: 9日", content[0].(map[string]any)["text"])
	})
}
