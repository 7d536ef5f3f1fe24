// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，自动注入任务身份，支持文件轮转
//   - xmetrics: 统一观测接口，基于 OpenTelemetry 记录 span 与操作指标
//
// 设计原则：
//   - 所有日志方法以 context.Context 为第一个参数
//   - 组件默认使用空实现，不引入观测开销
package observability
