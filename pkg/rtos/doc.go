// Package rtos 提供宿主调度器模型。
//
// 子包列表：
//   - xsched: 任务、存储槽、全局临界区、堆配额与任务退出钩子
//   - xmutex: 带持有者身份的普通/递归互斥量
package rtos
