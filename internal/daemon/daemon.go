package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/username/jp-holiday-mcp/internal/calendar"
	"github.com/username/jp-holiday-mcp/internal/mcpserver"
	"github.com/username/jp-holiday-mcp/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Options configures a Daemon
type Options struct {
	Server *mcpserver.Server

	// Store and Source are required when Watch is set
	Store  *calendar.Store
	Source calendar.Source
	Watch  bool

	Metrics     *metrics.Metrics
	MetricsAddr string // empty disables the metrics listener

	In  io.Reader
	Out io.Writer
}

// Daemon runs the MCP server and its side services until stdin closes,
// a signal arrives or Stop is called
type Daemon struct {
	opts   Options
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewDaemon creates a new daemon instance
func NewDaemon(opts Options, logger *zap.Logger) *Daemon {
	ctx, cancel := context.WithCancel(context.Background())

	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &Daemon{
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs the daemon and blocks until it stops
func (d *Daemon) Start() error {
	g, ctx := errgroup.WithContext(d.ctx)

	g.Go(func() error {
		// The client closing stdin ends the session
		defer d.Stop()
		return d.opts.Server.Serve(ctx, d.opts.In, d.opts.Out)
	})

	if d.opts.Watch {
		g.Go(func() error {
			if err := calendar.Watch(ctx, d.opts.Store, d.opts.Source, d.logger); err != nil {
				d.logger.Warn("Data file watcher disabled", zap.Error(err))
			}
			return nil
		})
	}

	if d.opts.MetricsAddr != "" && d.opts.Metrics != nil {
		d.startMetrics(ctx, g)
	}

	g.Go(func() error {
		// Setup signal handling
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigChan)

		select {
		case <-ctx.Done():
		case sig := <-sigChan:
			d.logger.Info("Received signal, shutting down",
				zap.String("signal", sig.String()))
			d.Stop()
		}
		return nil
	})

	err := g.Wait()
	d.logger.Info("Daemon stopped")
	return err
}

func (d *Daemon) startMetrics(ctx context.Context, g *errgroup.Group) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", d.opts.Metrics.Handler())

	srv := &http.Server{
		Addr:              d.opts.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		d.logger.Info("Metrics listening", zap.String("addr", d.opts.MetricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
}

// Stop stops the daemon
func (d *Daemon) Stop() {
	d.cancel()
}
