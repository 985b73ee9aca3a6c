package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/username/jp-holiday-mcp/internal/calendar"
	"github.com/username/jp-holiday-mcp/internal/config"
	"github.com/username/jp-holiday-mcp/internal/daemon"
	"github.com/username/jp-holiday-mcp/internal/mcpserver"
	"github.com/username/jp-holiday-mcp/internal/metrics"
	"github.com/username/jp-holiday-mcp/pkg/dateutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
	out        io.Writer = os.Stdout
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		var exit errSilentExit
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jp-holiday-mcp",
		Short:         "Japanese holiday calendar",
		Long:          "Answer Japanese holiday and business day questions from a precomputed dataset, as an MCP server or from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}

			if cfg.Log.File != "" {
				logger = initFileLogger(cfg.Log.File, cfg.Log.Level)
			} else {
				logger, err = initLogger(cfg.Log.Level)
				if err != nil {
					return err
				}
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	root.AddCommand(serveCmd())
	root.AddCommand(dayCmd())
	root.AddCommand(monthCmd())
	root.AddCommand(nextCmd())
	root.AddCommand(businessDaysCmd())

	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := metrics.NewMetrics()
			src := dataSource()
			store := calendar.NewStore(src, logger, m)
			server := newServer(store, mcpserver.WithMetrics(m))

			logger.Info("Starting holiday MCP server",
				zap.String("name", cfg.Server.Name),
				zap.String("version", cfg.Server.Version),
				zap.String("data", cfg.Data.Path),
				zap.Bool("watch", cfg.Data.Watch))

			d := daemon.NewDaemon(daemon.Options{
				Server:      server,
				Store:       store,
				Source:      src,
				Watch:       cfg.Data.Watch,
				Metrics:     m,
				MetricsAddr: cfg.Metrics.ListenAddr,
			}, logger)

			return d.Start()
		},
	}
}

func dayCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "day YYYY-MM-DD",
		Short:   "Show holiday information for a date",
		Example: "  jp-holiday-mcp day 2025-01-01",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printReply(newQueryServer().DayInfo(args[0]))
		},
	}
}

func monthCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "month YEAR MONTH",
		Short:   "List the holidays of a month",
		Example: "  jp-holiday-mcp month 2025 5",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args)
			if err != nil {
				return err
			}
			return printReply(newQueryServer().MonthHolidays(year, month))
		},
	}
}

func nextCmd() *cobra.Command {
	var from string

	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next holiday",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := newQueryServer()
			if from == "" {
				from = server.Today()
			} else if !dateutil.IsValidDate(from) {
				return printReply(mcpserver.Reply{Text: mcpserver.MsgInvalidDate, Outcome: mcpserver.OutcomeInvalidArgument})
			}
			return printReply(server.NextHoliday(from))
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Reference date (YYYY-MM-DD, default today in the configured time zone)")

	return cmd
}

func businessDaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "business-days YEAR MONTH",
		Short:   "Count business days in a month",
		Example: "  jp-holiday-mcp business-days 2025 1",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, month, err := parseYearMonth(args)
			if err != nil {
				return err
			}
			return printReply(newQueryServer().BusinessDays(year, month))
		},
	}
}

func dataSource() calendar.Source {
	return calendar.Source{
		Path:         cfg.Data.Path,
		FallbackPath: cfg.Data.FallbackPath,
	}
}

func newServer(store *calendar.Store, opts ...mcpserver.Option) *mcpserver.Server {
	opts = append(opts, mcpserver.WithLocation(cfg.Server.Location()))
	return mcpserver.New(cfg.Server.Name, cfg.Server.Version, calendar.NewEngine(store), logger, opts...)
}

func newQueryServer() *mcpserver.Server {
	return newServer(calendar.NewStore(dataSource(), logger, nil))
}

func parseYearMonth(args []string) (int, int, error) {
	year, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid year %q: %w", args[0], err)
	}
	month, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month %q: %w", args[1], err)
	}
	return year, month, nil
}

// printReply writes the reply text and turns failures into a non-zero exit
func printReply(reply mcpserver.Reply) error {
	fmt.Fprintln(out, reply.Text)

	switch reply.Outcome {
	case mcpserver.OutcomeOK:
		return nil
	case mcpserver.OutcomeNotFound:
		// Not an error for the user, but scripts can tell the difference
		return errSilentExit{code: 2}
	default:
		return errSilentExit{code: 1}
	}
}

type errSilentExit struct {
	code int
}

func (e errSilentExit) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func initLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// stdout carries MCP frames and command output
	config.OutputPaths = []string{"stderr"}
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func initFileLogger(logFile string, level string) *zap.Logger {
	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    100,  // MB
		MaxBackups: 3,    // Keep max 3 old log files
		MaxAge:     28,   // days
		Compress:   true, // Compress old logs with gzip
	}

	// Setup encoder
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	// Create core with lumberjack writer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		parseLevel(level),
	)

	return zap.New(core)
}

func parseLevel(level string) zapcore.Level {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}
	return zapLevel
}
