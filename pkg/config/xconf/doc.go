// Package xconf 加载 xposix 的运行参数，基于 koanf 实现。
//
// 支持 YAML（.yaml/.yml）与 JSON（.json）文件，或显式指定格式的字节数据。
// 配置反序列化到 [Settings]，未出现的字段保留 [Defaults] 中的默认值：
//
//	scheduler:
//	  slots: 5          # 每个任务的存储槽数量
//	  heap_bytes: 0     # 堆配额，0 表示不限制
//	keys:
//	  slot: 1           # 绑定链所在存储槽
//	  max: 0            # 存活 key 上限，0 表示不限制
//	  destructor_passes: 4
//	rwlock:
//	  max_readers: 0    # 0 表示使用默认上限
//	log:
//	  level: info
//	  format: text
//	  file: ""          # 非空时写入文件并按大小轮转
//
// # 并发安全
//
// [Loader] 的所有方法并发安全。Reload 串行执行，解析和校验都成功后才替换当前配置，
// 失败时保留旧配置。
//
// # 热重载
//
// [Loader.Watch] 使用 fsnotify 监视配置文件所在目录（编辑器常以 rename 方式保存），
// 在防抖窗口内的多次变更只触发一次重载。
package xconf
