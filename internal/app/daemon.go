package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/rbright/hark/internal/buffer"
	"github.com/rbright/hark/internal/config"
	"github.com/rbright/hark/internal/indicator"
	"github.com/rbright/hark/internal/ingest"
	"github.com/rbright/hark/internal/ipc"
	"github.com/rbright/hark/internal/matcher"
	"github.com/rbright/hark/internal/observe"
	"github.com/rbright/hark/internal/output"
	"github.com/rbright/hark/internal/phonetic"
	"github.com/rbright/hark/internal/session"
	"github.com/rbright/hark/internal/version"
)

// commandListen runs the daemon until stop or ctx cancellation.
func (r Runner) commandListen(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	metrics, shutdownMetrics, err := setupMetrics(ctx, cfg.Metrics)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = shutdownMetrics(flushCtx)
	}()

	controller, err := buildController(cfg, logger, metrics)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		logger.Error("build listener failed", "error", err.Error())
		return 1
	}

	result, err := serve(ctx, cfg, logger, controller, listener)
	logSessionResult(logger, result)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if result.Err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", result.Err)
		return 1
	}
	fmt.Fprintf(r.Stdout, "stopped after %d fired command(s)\n", result.Fired)
	return 0
}

// buildController assembles the engine, action runner, and indicator from config.
func buildController(cfg config.Config, logger *slog.Logger, metrics *observe.Metrics) (*session.Controller, error) {
	var comparer matcher.Comparer = matcher.Exact
	if cfg.Engine.Match == config.MatchPhonetic {
		comparer = phonetic.New(
			phonetic.WithPhoneticThreshold(cfg.Engine.PhoneticThreshold),
			phonetic.WithFuzzyThreshold(cfg.Engine.FuzzyThreshold),
		)
	}

	engine := matcher.New(matcher.Options{
		Buffer: buffer.Options{
			TTL:       time.Duration(cfg.Buffer.TTLMS) * time.Millisecond,
			MaxTokens: cfg.Buffer.MaxTokens,
		},
		Comparer: comparer,
		Logger:   logger,
		Metrics:  metrics,
	})

	indicatorCtl := indicator.NewHyprNotify(cfg.Indicator, logger)
	actions := output.NewRunner(cfg.Clipboard, indicatorCtl, logger)
	controller := session.NewController(logger, engine, actions, indicatorCtl, session.Options{
		TickInterval: time.Duration(cfg.Engine.TickMS) * time.Millisecond,
		TickOnPush:   cfg.Engine.TickOnPush,
	})

	if _, err := controller.LoadCommands(cfg.Commands); err != nil {
		return nil, err
	}
	return controller, nil
}

// serve runs the listener alongside its IPC, gRPC, and metrics servers. The
// first server failure stops everything.
func serve(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	controller *session.Controller,
	listener net.Listener,
) (session.Result, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	runCtx, stopRun := context.WithCancel(groupCtx)
	defer stopRun()

	var result session.Result
	group.Go(func() error {
		result = controller.Run(runCtx)
		// Listener end takes the servers down with it.
		return errListenerDone
	})

	group.Go(func() error {
		return ipc.Serve(groupCtx, listener, controller)
	})

	if addr := strings.TrimSpace(cfg.GRPC.Listen); addr != "" {
		sink := ingest.SinkFunc(func(ctx context.Context, text string) error {
			if _, err := controller.Say(ctx, text); err != nil {
				if errors.Is(err, session.ErrNotListening) {
					return fmt.Errorf("%w: %v", ingest.ErrRejected, err)
				}
				return err
			}
			return nil
		})
		group.Go(func() error {
			return ingest.Listen(groupCtx, addr, sink, logger)
		})
	}

	if addr := strings.TrimSpace(cfg.Metrics.Listen); addr != "" {
		group.Go(func() error {
			var lc net.ListenConfig
			metricsListener, err := lc.Listen(groupCtx, "tcp", addr)
			if err != nil {
				return fmt.Errorf("listen metrics %q: %w", addr, err)
			}
			logger.Info("metrics listening", "addr", metricsListener.Addr().String())
			return observe.ServeMetrics(groupCtx, metricsListener)
		})
	}

	err := group.Wait()
	if errors.Is(err, errListenerDone) {
		err = nil
	}
	return result, err
}

var errListenerDone = errors.New("listener finished")

// setupMetrics installs the meter provider when a metrics endpoint is
// configured. Without one it returns nil metrics, which record nothing.
func setupMetrics(ctx context.Context, cfg config.MetricsConfig) (*observe.Metrics, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if strings.TrimSpace(cfg.Listen) == "" {
		return nil, noop, nil
	}

	shutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version.Resolved()})
	if err != nil {
		return nil, noop, err
	}
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		_ = shutdown(ctx)
		return nil, noop, fmt.Errorf("create metrics: %w", err)
	}
	return metrics, shutdown, nil
}

func logSessionResult(logger *slog.Logger, result session.Result) {
	if logger == nil {
		return
	}
	fields := []any{
		"state", result.State,
		"reason", result.Reason,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"ticks", result.Ticks,
		"fired", result.Fired,
		"failures", result.Failures,
	}

	if result.Err != nil {
		logger.Error("listener failed", append(fields, "error", result.Err.Error())...)
		return
	}
	logger.Info("listener stopped", fields...)
}
