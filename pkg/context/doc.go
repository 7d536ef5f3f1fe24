// Package context 提供上下文相关的子包。
//
// 子包列表：
//   - xctx: 任务身份随 context 传递，并为日志提供 task_id/task_name 属性
//
// 设计原则：
//   - 所有上下文信息通过 context.Context 传递，不使用 goroutine 本地存储
package context
