package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/xposix/pkg/observability/xlog"
	"github.com/omeyang/xposix/pkg/posix/xtsd"
)

func keysCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "keys",
		Usage: "任务绑定线程私有数据后退出，校验析构函数调用次数",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "tasks", Aliases: []string{"n"}, Value: 4, Usage: "任务数"},
			&cli.IntFlag{Name: "keys", Aliases: []string{"k"}, Value: 3, Usage: "每个任务绑定的 key 数"},
			&cli.BoolFlag{Name: "chain", Usage: "析构函数为前一个 key 重新设置值，验证多轮清理"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			tasks, keys := int(cmd.Int("tasks")), int(cmd.Int("keys"))
			if tasks <= 0 || keys <= 0 {
				return newUsageError("--tasks and --keys must be positive")
			}
			res, err := env.runKeys(ctx, tasks, keys, cmd.Bool("chain"))
			if err != nil {
				return err
			}
			fmt.Fprintf(env.out, "keys: tasks=%d keys=%d destructors=%d expected=%d\n",
				tasks, keys, res.destructed, res.expected)
			if res.destructed != res.expected || res.mismatches > 0 {
				fmt.Fprintf(env.out, "keys: FAIL mismatches=%d\n", res.mismatches)
				return &exitError{code: 1}
			}
			fmt.Fprintln(env.out, "keys: OK")
			return nil
		},
	}
}

type keysResult struct {
	destructed int64
	expected   int64
	mismatches int64
}

const chainedValue = "chained"

// runKeys 每个任务为所有 key 绑定 (task, key) 专属的值，读回校验后退出，
// 由退出钩子触发析构。chain 模式下第 i 个 key 析构原始值时会为第 i-1 个 key
// 重新设置值，该值在下一轮被析构。
func (e *environment) runKeys(ctx context.Context, tasks, keys int, chain bool) (keysResult, error) {
	sched := e.newScheduler()
	reg, err := xtsd.New(sched, e.registryOptions()...)
	if err != nil {
		return keysResult{}, err
	}
	reg.Attach()

	var destructed, mismatches atomic.Int64
	ids := make([]xtsd.Key, keys)
	for i := range ids {
		ids[i], err = reg.CreateKey(func(ctx context.Context, v any) {
			destructed.Add(1)
			if !chain || i == 0 || v == chainedValue {
				return
			}
			if err := reg.SetSpecific(ctx, ids[i-1], chainedValue); err != nil {
				mismatches.Add(1)
			}
		})
		if err != nil {
			return keysResult{}, fmt.Errorf("create key %d: %w", i, err)
		}
	}
	defer func() {
		for _, k := range ids {
			_ = reg.DeleteKey(k) //nolint:errcheck // 场景结束
		}
	}()

	for i := range tasks {
		_, err := sched.Spawn(ctx, fmt.Sprintf("worker-%d", i), func(ctx context.Context) error {
			for j, k := range ids {
				want := fmt.Sprintf("t%d/k%d", i, j)
				if err := reg.SetSpecific(ctx, k, want); err != nil {
					return err
				}
				if got := reg.GetSpecific(ctx, k); got != want {
					mismatches.Add(1)
					e.logger.Warn(ctx, "value mismatch", slog.Any("got", got), slog.String("want", want))
				}
			}
			return nil
		})
		if err != nil {
			return keysResult{}, errors.Join(err, sched.Wait())
		}
	}
	if err := sched.Wait(); err != nil {
		return keysResult{}, err
	}

	expected := int64(tasks * keys)
	if chain {
		// 前 keys-1 个 key 各自额外析构一次链式设置的值
		expected += int64(tasks * (keys - 1))
	}
	e.logger.Info(ctx, "keys scenario finished",
		xlog.Count(int(destructed.Load())),
		slog.Int64("heap_peak", sched.Heap().Peak()),
	)
	return keysResult{
		destructed: destructed.Load(),
		expected:   expected,
		mismatches: mismatches.Load(),
	}, nil
}
