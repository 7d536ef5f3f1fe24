// Package xmetrics 提供统一的观测接口，基于 OpenTelemetry 同时记录 trace 与 metrics。
//
// 组件（xtsd、xrwlock）只依赖 [Observer] 接口，默认使用 [NoopObserver]，
// 不引入任何开销；注入 [NewOTelObserver] 后每次观测产生：
//
//   - 一个 span（名称为 operation，属性 component/operation 以及自定义属性）
//   - 计数器 xposix.operation.total（属性 component/operation/status）
//   - 直方图 xposix.operation.duration（秒）
//
// 使用方式：
//
//	ctx, span := xmetrics.Start(ctx, observer, xmetrics.SpanOptions{
//	    Component: "xrwlock",
//	    Operation: "wrlock",
//	})
//	err := doWork(ctx)
//	span.End(xmetrics.Result{Err: err})
package xmetrics
