package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/omeyang/xposix/pkg/config/xconf"
	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/observability/xmetrics"
	"github.com/omeyang/xposix/pkg/posix/xrwlock"
	"github.com/omeyang/xposix/pkg/posix/xtsd"
	"github.com/omeyang/xposix/pkg/rtos/xsched"
)

// environment 全局选项解析出的运行环境，由 Before 构建、After 释放。
type environment struct {
	out    io.Writer
	errOut io.Writer

	settings  xconf.Settings
	heapLimit int64
	logger    xlog.LoggerWithLevel
	observer  xmetrics.Observer

	closers []func() error

	reader *sdkmetric.ManualReader

	watchCancel context.CancelFunc
	watchDone   sync.WaitGroup
}

func (e *environment) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	loader, err := loadSettings(cmd)
	if err != nil {
		return ctx, err
	}
	e.settings = loader.Settings()
	applyFlags(cmd, &e.settings)
	if err := e.settings.Validate(); err != nil {
		return ctx, &usageError{msg: err.Error()}
	}
	heap, err := e.settings.Scheduler.HeapLimit()
	if err != nil {
		return ctx, &usageError{msg: err.Error()}
	}
	e.heapLimit = heap

	if err := e.buildLogger(); err != nil {
		return ctx, err
	}
	e.observer = xmetrics.NoopObserver{}
	if cmd.Bool("metrics") {
		if err := e.buildObserver(); err != nil {
			return ctx, err
		}
	}
	if cmd.Bool("watch") {
		if err := e.startWatch(ctx, loader); err != nil {
			return ctx, err
		}
	}
	return ctx, nil
}

func loadSettings(cmd *cli.Command) (*xconf.Loader, error) {
	if path := cmd.String("config"); path != "" {
		l, err := xconf.Load(path)
		if errors.Is(err, xconf.ErrInvalidSettings) || errors.Is(err, xconf.ErrUnsupportedFormat) {
			return nil, &usageError{msg: err.Error()}
		}
		return l, err
	}
	if cmd.Bool("watch") {
		return nil, newUsageError("--watch requires --config")
	}
	return xconf.LoadBytes(nil, xconf.FormatYAML)
}

// applyFlags 命令行选项覆盖配置文件
func applyFlags(cmd *cli.Command, s *xconf.Settings) {
	if cmd.IsSet("log-level") {
		s.Log.Level = cmd.String("log-level")
	}
	if cmd.IsSet("log-format") {
		s.Log.Format = cmd.String("log-format")
	}
	if cmd.IsSet("log-file") {
		s.Log.File = cmd.String("log-file")
	}
}

func (e *environment) buildLogger() error {
	b := xlog.New().
		SetLevelString(e.settings.Log.Level).
		SetFormat(e.settings.Log.Format).
		SetOutput(e.errOut)
	if e.settings.Log.File != "" {
		b.SetRotation(e.settings.Log.File,
			xlog.RotateMaxSizeMB(e.settings.Log.MaxSizeMB),
			xlog.RotateMaxBackups(e.settings.Log.MaxBackups),
		)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return fmt.Errorf("xposixctl: build logger: %w", err)
	}
	e.logger = logger
	e.closers = append(e.closers, cleanup)
	return nil
}

func (e *environment) buildObserver() error {
	e.reader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(e.reader))
	tp := sdktrace.NewTracerProvider()
	e.closers = append(e.closers,
		func() error { return mp.Shutdown(context.Background()) },
		func() error { return tp.Shutdown(context.Background()) },
	)
	obs, err := xmetrics.NewOTelObserver(
		xmetrics.WithInstrumentationName("xposixctl"),
		xmetrics.WithMeterProvider(mp),
		xmetrics.WithTracerProvider(tp),
	)
	if err != nil {
		return err
	}
	e.observer = obs
	return nil
}

// startWatch 配置文件变更时只应用日志级别，其余参数在下次运行时生效。
func (e *environment) startWatch(ctx context.Context, loader *xconf.Loader) error {
	w, err := loader.Watch(func(s xconf.Settings, err error) {
		if err != nil {
			e.logger.Warn(ctx, "config reload failed", xlog.Err(err))
			return
		}
		level, err := xlog.ParseLevel(s.Log.Level)
		if err != nil {
			return
		}
		e.logger.SetLevel(level)
		e.logger.Info(ctx, "log level reloaded", xlog.Operation("watch"))
	})
	if err != nil {
		return err
	}
	wctx, cancel := context.WithCancel(ctx)
	e.watchCancel = cancel
	e.watchDone.Add(1)
	go func() {
		defer e.watchDone.Done()
		_ = w.Run(wctx) //nolint:errcheck // Run 只在退出时返回 nil
	}()
	return nil
}

func (e *environment) teardown(context.Context, *cli.Command) error {
	if e.watchCancel != nil {
		e.watchCancel()
		e.watchDone.Wait()
	}
	if e.reader != nil {
		if err := e.printMetrics(); err != nil {
			return err
		}
	}
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i]())
	}
	e.closers = nil
	return errors.Join(errs...)
}

func (e *environment) newScheduler() *xsched.Scheduler {
	return xsched.New(
		xsched.WithNumSlots(e.settings.Scheduler.Slots),
		xsched.WithHeapSize(e.heapLimit),
		xsched.WithLogger(e.logger),
	)
}

func (e *environment) registryOptions() []xtsd.Option {
	return []xtsd.Option{
		xtsd.WithKeysSlot(e.settings.Keys.Slot),
		xtsd.WithMaxKeys(e.settings.Keys.Max),
		xtsd.WithMaxDestructorPasses(e.settings.Keys.DestructorPasses),
		xtsd.WithLogger(e.logger),
		xtsd.WithObserver(e.observer),
	}
}

func (e *environment) rwlockOptions() []xrwlock.Option {
	return []xrwlock.Option{
		xrwlock.WithMaxReaders(e.settings.RWLock.MaxReaders),
		xrwlock.WithObserver(e.observer),
	}
}

// printMetrics 输出 xposix.operation.* 指标，按 component.operation 排序。
func (e *environment) printMetrics() error {
	var rm metricdata.ResourceMetrics
	if err := e.reader.Collect(context.Background(), &rm); err != nil {
		return fmt.Errorf("xposixctl: collect metrics: %w", err)
	}

	type row struct {
		count int64
		sum   float64
	}
	rows := map[string]*row{}
	get := func(name string) *row {
		if rows[name] == nil {
			rows[name] = &row{}
		}
		return rows[name]
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					get(seriesName(dp.Attributes)).count += dp.Value
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					get(seriesName(dp.Attributes)).sum += dp.Sum
				}
			}
		}
	}

	names := make([]string, 0, len(rows))
	for name := range rows {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := rows[name]
		fmt.Fprintf(e.out, "metric %-32s count=%d total=%s\n",
			name, r.count, time.Duration(r.sum*float64(time.Second)))
	}
	return nil
}

func seriesName(attrs attribute.Set) string {
	component, _ := attrs.Value("component")
	operation, _ := attrs.Value("operation")
	status, _ := attrs.Value("status")
	return component.AsString() + "." + operation.AsString() + "[" + status.AsString() + "]"
}
