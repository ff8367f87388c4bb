package core

import "context"

// EmbeddingProvider 把文本映射为固定维度向量（text → vector[D]）。
// 模型本身是外部协作方，这里只约定契约；D 在一次部署内恒定。
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// EmbeddingNeighbor 是一次向量近邻检索的单条结果。
type EmbeddingNeighbor struct {
	ItemID string
	Score  float64 // 余弦相似度，[0,1] 区间（负相似度被截断为 0）
}

// EmbeddingStore 是物品向量的存储与检索接口。
//
// 约束：
//   - Put 必须是原子 upsert：并发读永远不会看到写了一半的向量
//   - Get 未命中返回 NOT_FOUND，由调用方决定是否 generate-and-persist
//   - Nearest 结果按相似度降序、同分按物品 ID 升序（确定性）
type EmbeddingStore interface {
	Get(ctx context.Context, itemID string) ([]float64, error)
	Put(ctx context.Context, itemID string, vector []float64) error

	// Nearest 返回与查询向量最相近的 k 个物品，剔除 exclude 中的 ID
	// 与相似度低于 minScore 的结果。
	Nearest(ctx context.Context, vector []float64, k int, exclude []string, minScore float64) ([]EmbeddingNeighbor, error)

	// MissingFrom 返回 ids 中尚无向量的物品（后台补全任务用）。
	MissingFrom(ctx context.Context, ids []string) ([]string, error)
}

// ErrEmbeddingNotFound 表示物品尚无向量。
var ErrEmbeddingNotFound = NewDomainError(ModuleVector, ErrorCodeNotFound, "embedding: vector not found")
