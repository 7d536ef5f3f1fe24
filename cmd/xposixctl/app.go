package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
)

// exitError 命令已完成输出，只需设置非零退出码。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newUsageError(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

// createApp 创建 CLI 应用，所有输出写入 out/errOut。
func createApp(out, errOut io.Writer) *cli.Command {
	env := &environment{out: out, errOut: errOut}
	return &cli.Command{
		Name:      "xposixctl",
		Usage:     "xposix 线程私有数据与读写锁场景工具",
		Version:   versionString(),
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{Name: "log-level", Usage: "日志级别 debug/info/warn/error"},
			&cli.StringFlag{Name: "log-format", Usage: "日志格式 text/json"},
			&cli.StringFlag{Name: "log-file", Usage: "日志文件，按大小轮转"},
			&cli.BoolFlag{Name: "watch", Usage: "监视配置文件并动态调整日志级别"},
			&cli.BoolFlag{Name: "metrics", Usage: "结束时输出操作计数与耗时"},
		},
		Before: env.setup,
		After:  env.teardown,
		Commands: []*cli.Command{
			keysCommand(env),
			rwlockCommand(env),
			versionCommand(),
		},
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			// 退出码统一由 run 处理，这里只负责 ExitCoder 的消息输出
			var ec cli.ExitCoder
			if errors.As(err, &ec) {
				fmt.Fprintln(errOut, err)
			}
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "显示版本信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := fmt.Fprintln(cmd.Root().Writer, "xposixctl", versionString())
			return err
		},
	}
}

// run 执行 CLI 并映射退出码。
func run(args []string, out, errOut io.Writer) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := setupSignalHandler(cancel)
	defer stop()

	return exitCode(createApp(out, errOut).Run(ctx, args), errOut)
}

func exitCode(err error, errOut io.Writer) int {
	if err == nil {
		return 0
	}
	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(errOut, "参数错误: %v\n", usageErr)
		return 2
	}
	if isCLIUsageError(err) {
		fmt.Fprintf(errOut, "参数错误: %v\n", err)
		return 2
	}
	fmt.Fprintf(errOut, "错误: %v\n", err)
	return 1
}

// isCLIUsageError 识别 urfave/cli 的参数解析错误。
func isCLIUsageError(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{
		"flag provided but not defined",
		"invalid value",
		"flag needs an argument",
		"Required flag",
		"No help topic",
	} {
		if strings.Contains(msg, prefix) {
			return true
		}
	}
	return false
}

// setupSignalHandler 第一次信号取消运行中的场景，第二次强制退出（130 = 128 + SIGINT）。
func setupSignalHandler(cancel context.CancelFunc) (stop func()) {
	sigCh := make(chan os.Signal, 2)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-done:
			return
		}
		select {
		case <-sigCh:
			os.Exit(130)
		case <-done:
		}
	}()
	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}
