// xposixctl 运行 xposix 线程私有数据与读写锁的场景，用于验证配置与观察行为。
//
// 用法:
//
//	xposixctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件（.yaml/.yml/.json）
//	    --log-level   日志级别，覆盖配置文件
//	    --log-format  日志格式 text/json，覆盖配置文件
//	    --log-file    日志文件（按大小轮转），覆盖配置文件
//	    --watch       监视配置文件，运行期间动态调整日志级别
//	    --metrics     结束时输出各操作的计数与耗时
//
// 命令:
//
//	keys      N 个任务各自绑定 K 个 key 后退出，校验析构函数调用次数
//	rwlock    R 个读者与 W 个写者在指定时长内竞争读写锁，校验互斥性
//	version   显示版本信息
//
// 退出码:
//
//	0: 场景通过
//	1: 场景失败或运行错误
//	2: 参数错误
//
// 示例:
//
//	xposixctl keys --tasks 8 --keys 4
//	xposixctl -c xposix.yaml --metrics rwlock --readers 6 --writers 2 --duration 1s
//	xposixctl rwlock --try --attempts 50
package main

import (
	"fmt"
	"os"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

func versionString() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime)
}
