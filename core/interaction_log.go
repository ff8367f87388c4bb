package core

import "context"

// WindowCount 是时间窗口内单个物品的聚合计数。
type WindowCount struct {
	ItemID   string
	Weighted float64 // Σ weight(type)，按调用方给定的权重表
	Raw      int     // 原始交互条数，用于确定性的并列裁决
}

// InteractionLog 是交互日志的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（store）实现
//   - 同一 (user, item, type) 至多一条记录，重复 Append 原地更新
//   - 读路径对核心只读；写入只经过 Append，且先过边界校验
//
// 实现：
//   - store.KVInteractionLog（基于 core.KeyValueStore，内存/Redis 皆可）
type InteractionLog interface {
	// Name 返回后端名称（用于日志/监控）
	Name() string

	// Append 写入一条交互；(user, item, type) 已存在时更新时间戳与评分
	Append(ctx context.Context, in Interaction) error

	// Recent 返回用户最近的交互，按时间倒序，最多 limit 条
	Recent(ctx context.Context, userID string, limit int) ([]Interaction, error)

	// UserInteractions 返回用户的全部交互
	UserInteractions(ctx context.Context, userID string) ([]Interaction, error)

	// ItemUsers 返回与物品发生过交互的用户 ID 列表
	ItemUsers(ctx context.Context, itemID string) ([]string, error)

	// Window 按权重表聚合窗口内每个物品的交互
	Window(ctx context.Context, window TimeWindow, weights WeightTable) ([]WindowCount, error)

	// All 返回全部交互（离线训练用）
	All(ctx context.Context) ([]Interaction, error)
}
