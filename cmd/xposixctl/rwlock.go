package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xposix/pkg/posix/xerrno"
	"github.com/omeyang/xposix/pkg/posix/xrwlock"
	"github.com/omeyang/xposix/pkg/resilience/xretry"
)

func rwlockCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "rwlock",
		Usage: "读者与写者竞争读写锁，校验互斥性",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "readers", Aliases: []string{"r"}, Value: 4, Usage: "读者任务数"},
			&cli.IntFlag{Name: "writers", Aliases: []string{"w"}, Value: 2, Usage: "写者任务数"},
			&cli.DurationFlag{Name: "duration", Aliases: []string{"d"}, Value: 200 * time.Millisecond, Usage: "运行时长"},
			&cli.BoolFlag{Name: "try", Usage: "写者使用 TryWrLock 并在 EBUSY 时退避重试"},
			&cli.UintFlag{Name: "attempts", Value: xretry.DefaultAttempts, Usage: "--try 模式下每次加锁的最大尝试次数"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := rwlockConfig{
				readers:  int(cmd.Int("readers")),
				writers:  int(cmd.Int("writers")),
				duration: cmd.Duration("duration"),
				try:      cmd.Bool("try"),
				attempts: uint(cmd.Uint("attempts")),
			}
			if cfg.readers < 0 || cfg.writers < 0 || cfg.readers+cfg.writers == 0 {
				return newUsageError("need at least one reader or writer")
			}
			if cfg.duration <= 0 {
				return newUsageError("--duration must be positive")
			}
			res, err := env.runRWLock(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintf(env.out, "rwlock: reads=%d writes=%d busy=%d violations=%d\n",
				res.reads, res.writes, res.busy, res.violations)
			if res.violations > 0 {
				fmt.Fprintln(env.out, "rwlock: FAIL")
				return &exitError{code: 1}
			}
			fmt.Fprintln(env.out, "rwlock: OK")
			return nil
		},
	}
}

type rwlockConfig struct {
	readers  int
	writers  int
	duration time.Duration
	try      bool
	attempts uint
}

type rwlockResult struct {
	reads      int64
	writes     int64
	busy       int64
	violations int64
}

// runRWLock 读者与写者循环加锁直到超时，在临界区内检查互斥不变量：
// 写者在场时没有其他写者和读者。
func (e *environment) runRWLock(ctx context.Context, cfg rwlockConfig) (rwlockResult, error) {
	sched := e.newScheduler()
	var lock xrwlock.RWLock
	if err := lock.Init(sched, e.rwlockOptions()...); err != nil {
		return rwlockResult{}, err
	}

	var (
		res                  rwlockResult
		readersIn, writersIn atomic.Int64
		reads, writes, busy  atomic.Int64
		violations           atomic.Int64
	)
	deadline := time.Now().Add(cfg.duration)
	running := func(ctx context.Context) bool {
		return ctx.Err() == nil && time.Now().Before(deadline)
	}

	reader := func(ctx context.Context) error {
		for running(ctx) {
			if err := lock.RdLock(ctx); err != nil {
				if xerrno.IsBusy(err) {
					busy.Add(1)
					continue
				}
				return err
			}
			readersIn.Add(1)
			if writersIn.Load() != 0 {
				violations.Add(1)
			}
			reads.Add(1)
			readersIn.Add(-1)
			if err := lock.Unlock(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	acquire := func(ctx context.Context) error {
		if !cfg.try {
			return lock.WrLock(ctx)
		}
		return xretry.Do(ctx, func(ctx context.Context) error {
			err := lock.TryWrLock(ctx)
			if xerrno.IsBusy(err) {
				busy.Add(1)
			}
			return err
		}, xretry.Attempts(cfg.attempts))
	}

	writer := func(ctx context.Context) error {
		for running(ctx) {
			if err := acquire(ctx); err != nil {
				if xerrno.IsBusy(err) || ctx.Err() != nil {
					continue
				}
				return err
			}
			if writersIn.Add(1) != 1 || readersIn.Load() != 0 {
				violations.Add(1)
			}
			writes.Add(1)
			writersIn.Add(-1)
			if err := lock.Unlock(ctx); err != nil {
				return err
			}
		}
		return nil
	}

	for i := range cfg.readers {
		if _, err := sched.Spawn(ctx, fmt.Sprintf("reader-%d", i), reader); err != nil {
			return res, errors.Join(err, sched.Wait())
		}
	}
	for i := range cfg.writers {
		if _, err := sched.Spawn(ctx, fmt.Sprintf("writer-%d", i), writer); err != nil {
			return res, errors.Join(err, sched.Wait())
		}
	}
	if err := sched.Wait(); err != nil {
		return res, err
	}
	if err := lock.Destroy(); err != nil {
		return res, fmt.Errorf("destroy rwlock: %w", err)
	}

	res = rwlockResult{
		reads:      reads.Load(),
		writes:     writes.Load(),
		busy:       busy.Load(),
		violations: violations.Load(),
	}
	e.logger.Info(ctx, "rwlock scenario finished",
		slog.Int64("reads", res.reads),
		slog.Int64("writes", res.writes),
		slog.Int64("violations", res.violations),
	)
	return res, nil
}
