package recall

import (
	"context"

	"github.com/rushteam/mealrec/core"
)

// Source 表示一个可复用的召回策略（协同/内容/热度）。
// Recall 是每个策略必须实现的唯一方法；"没有结果"返回空列表，
// 不是错误（冷启动即空结果，由上层切换到其他策略）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// SimilarityCapable 是可选能力接口：按给定方法检索相似物品。
// 调用方通过类型断言探测能力，而不是调用后捕获"不支持"错误。
type SimilarityCapable interface {
	// SimilarMethods 返回支持的相似度方法（embedding / attributes / co_occurrence）
	SimilarMethods() []string

	// Similar 返回与 itemID 相似的物品，结果不包含 itemID 本身
	Similar(ctx context.Context, itemID, method string, limit int) ([]*core.Item, error)
}

// TrendingCapable 是可选能力接口：时间窗口内的热门物品。
type TrendingCapable interface {
	Trending(ctx context.Context, window core.TimeWindow, filters *core.Filters, limit int) ([]*core.Item, error)
}

// 相似度方法名
const (
	MethodEmbedding    = "embedding"
	MethodAttributes   = "attributes"
	MethodCoOccurrence = "co_occurrence"
)
