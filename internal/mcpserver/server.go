// Package mcpserver exposes the holiday queries as MCP tools.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/username/jp-holiday-mcp/internal/calendar"
	"github.com/username/jp-holiday-mcp/internal/metrics"
	"github.com/username/jp-holiday-mcp/pkg/dateutil"
	"go.uber.org/zap"
)

// Tool names
const (
	ToolHolidayInfo   = "get_holiday_info"
	ToolMonthHolidays = "get_holidays_in_month"
	ToolNextHoliday   = "get_next_holiday"
	ToolBusinessDays  = "get_business_days_count"
)

const (
	defaultServerName    = "japanese-holiday"
	defaultServerVersion = "1.0.0"
)

// Outcome classifies a tool call for logs and metrics
type Outcome string

const (
	OutcomeOK              Outcome = "ok"
	OutcomeNotFound        Outcome = "not_found"
	OutcomeInvalidArgument Outcome = "invalid_argument"
	OutcomeDataUnavailable Outcome = "data_unavailable"
	OutcomeError           Outcome = "error"
)

// Reply is the text answer of a tool together with its outcome
type Reply struct {
	Text    string
	Outcome Outcome
}

// Server adapts a calendar.Querier to MCP tools
type Server struct {
	querier  calendar.Querier
	logger   *zap.Logger
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
	mcp      *server.MCPServer
}

// Option configures a Server
type Option func(*Server)

// WithMetrics counts tool calls in m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLocation sets the time zone used for "today"
func WithLocation(loc *time.Location) Option {
	return func(s *Server) { s.location = loc }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server and registers the holiday tools
func New(name, version string, querier calendar.Querier, logger *zap.Logger, opts ...Option) *Server {
	if name == "" {
		name = defaultServerName
	}
	if version == "" {
		version = defaultServerVersion
	}

	s := &Server{
		querier:  querier,
		logger:   logger,
		location: dateutil.JST,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.registerTools()

	return s
}

// MCP returns the underlying mcp-go server
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve speaks MCP over the given streams until ctx is done or in is closed
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(zap.NewStdLog(s.logger.Named("stdio")))

	s.logger.Info("MCP server listening on stdio")

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("stdio server failed: %w", err)
	}

	s.logger.Info("MCP server stopped")
	return nil
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool(ToolHolidayInfo,
		mcp.WithDescription("Get holiday information for a specific date."),
		mcp.WithString("target_date",
			mcp.Required(),
			mcp.Description("Date in YYYY-MM-DD format (e.g. 2025-01-01)")),
	), s.instrument(ToolHolidayInfo, s.handleHolidayInfo))

	s.mcp.AddTool(mcp.NewTool(ToolMonthHolidays,
		mcp.WithDescription("Get all holidays in a specific month."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year (e.g. 2025)")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month (1-12)")),
	), s.instrument(ToolMonthHolidays, s.handleMonthHolidays))

	s.mcp.AddTool(mcp.NewTool(ToolNextHoliday,
		mcp.WithDescription("Get the next upcoming holiday from today."),
	), s.instrument(ToolNextHoliday, s.handleNextHoliday))

	s.mcp.AddTool(mcp.NewTool(ToolBusinessDays,
		mcp.WithDescription("Get business days count for a specific month."),
		mcp.WithNumber("year", mcp.Required(), mcp.Description("Year (e.g. 2025)")),
		mcp.WithNumber("month", mcp.Required(), mcp.Description("Month (1-12)")),
	), s.instrument(ToolBusinessDays, s.handleBusinessDays))
}

type replyHandler func(ctx context.Context, req mcp.CallToolRequest) (Reply, error)

// instrument turns a replyHandler into an mcp-go handler with logging and metrics.
// Argument errors become tool errors; replies are always plain text results.
func (s *Server) instrument(tool string, h replyHandler) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		callID := uuid.NewString()
		start := time.Now()

		reply, err := h(ctx, req)
		if err != nil {
			reply = Reply{Text: err.Error(), Outcome: OutcomeInvalidArgument}
		}

		s.metrics.ObserveToolCall(tool, string(reply.Outcome))
		s.logger.Info("Tool call",
			zap.String("call_id", callID),
			zap.String("tool", tool),
			zap.String("outcome", string(reply.Outcome)),
			zap.Duration("took", time.Since(start)))

		if err != nil {
			return mcp.NewToolResultError(reply.Text), nil
		}
		return mcp.NewToolResultText(reply.Text), nil
	}
}

func (s *Server) handleHolidayInfo(_ context.Context, req mcp.CallToolRequest) (Reply, error) {
	date, err := req.RequireString("target_date")
	if err != nil {
		return Reply{}, err
	}
	return s.DayInfo(date), nil
}

func (s *Server) handleMonthHolidays(_ context.Context, req mcp.CallToolRequest) (Reply, error) {
	year, month, err := yearMonthArgs(req)
	if err != nil {
		return Reply{}, err
	}
	return s.MonthHolidays(year, month), nil
}

func (s *Server) handleNextHoliday(_ context.Context, _ mcp.CallToolRequest) (Reply, error) {
	return s.NextHoliday(s.Today()), nil
}

func (s *Server) handleBusinessDays(_ context.Context, req mcp.CallToolRequest) (Reply, error) {
	year, month, err := yearMonthArgs(req)
	if err != nil {
		return Reply{}, err
	}
	return s.BusinessDays(year, month), nil
}

func yearMonthArgs(req mcp.CallToolRequest) (int, int, error) {
	year, err := req.RequireInt("year")
	if err != nil {
		return 0, 0, err
	}
	month, err := req.RequireInt("month")
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}

// Today returns the current date in the server's time zone
func (s *Server) Today() string {
	return dateutil.FormatDate(s.now().In(s.location))
}

// DayInfo answers get_holiday_info
func (s *Server) DayInfo(date string) Reply {
	if !dateutil.IsValidDate(date) {
		return Reply{Text: MsgInvalidDate, Outcome: OutcomeInvalidArgument}
	}

	rec, err := s.querier.GetDay(date)
	if err != nil {
		return s.failure(err, FormatDayNotFound(date))
	}
	return Reply{Text: FormatDayInfo(rec), Outcome: OutcomeOK}
}

// MonthHolidays answers get_holidays_in_month
func (s *Server) MonthHolidays(year, month int) Reply {
	holidays, err := s.querier.ListMonthHolidays(year, month)
	if err != nil {
		return s.failure(err, FormatMonthHolidays(year, month, nil))
	}
	return Reply{Text: FormatMonthHolidays(year, month, holidays), Outcome: OutcomeOK}
}

// NextHoliday answers get_next_holiday for the given YYYY-MM-DD date
func (s *Server) NextHoliday(today string) Reply {
	h, err := s.querier.NextHoliday(today)
	if err != nil {
		return s.failure(err, MsgNoNextHoliday)
	}
	return Reply{Text: FormatNextHoliday(h), Outcome: OutcomeOK}
}

// BusinessDays answers get_business_days_count
func (s *Server) BusinessDays(year, month int) Reply {
	summary, err := s.querier.BusinessDaySummary(year, month)
	if err != nil {
		return s.failure(err, FormatMonthNotFound(year, month))
	}
	return Reply{Text: FormatBusinessDays(year, month, summary), Outcome: OutcomeOK}
}

func (s *Server) failure(err error, notFound string) Reply {
	switch {
	case errors.Is(err, calendar.ErrInvalidRange):
		return Reply{Text: MsgInvalidMonth, Outcome: OutcomeInvalidArgument}
	case errors.Is(err, calendar.ErrDataUnavailable):
		return Reply{Text: MsgDataUnavailable, Outcome: OutcomeDataUnavailable}
	case errors.Is(err, calendar.ErrNotFound):
		return Reply{Text: notFound, Outcome: OutcomeNotFound}
	default:
		s.logger.Error("Unexpected query error", zap.Error(err))
		return Reply{Text: err.Error(), Outcome: OutcomeError}
	}
}
