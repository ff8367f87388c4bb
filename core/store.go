package core

import "context"

// Store 是 KV 存储的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 领域层不依赖任何具体后端，内存与 Redis 可互换
//
// 使用场景：
//   - 热度聚合结果的请求间缓存（可选，TTL 即新鲜度上界）
//   - 交互日志的底层存储（经 KeyValueStore 扩展）
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key；不存在返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value；ttl 单位秒，省略表示不过期
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// ZMember 是有序集合中的一个成员及其分数。
type ZMember struct {
	Member string
	Score  float64
}

// KeyValueStore 是 Store 的扩展接口：有序集合与哈希表。
// 交互日志把时间戳作为分数存进有序集合，时间窗口查询即分数区间查询。
type KeyValueStore interface {
	Store

	// ZAdd 写入有序集合成员；成员已存在时原地更新分数
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRangeByScore 按分数区间升序返回成员（含分数）
	ZRangeByScore(ctx context.Context, key string, min, max float64) ([]ZMember, error)

	// ZRevRange 按分数降序返回 [start, stop] 排名区间的成员
	ZRevRange(ctx context.Context, key string, start, stop int64) ([]ZMember, error)

	// HSet 写入 Hash 字段
	HSet(ctx context.Context, key, field string, value []byte) error

	// HGet 读取 Hash 字段；不存在返回 ErrStoreNotFound
	HGet(ctx context.Context, key, field string) ([]byte, error)

	// HGetAll 读取整个 Hash
	HGetAll(ctx context.Context, key string) (map[string][]byte, error)
}

// ErrStoreNotFound 表示 key 不存在。
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")
