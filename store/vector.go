package store

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/rushteam/mealrec/core"
)

// MemoryEmbeddingStore 是内存实现的向量存储，平替向量数据库，
// 用于测试/开发/小规模目录。
//
// 特点：
//   - Put 在锁内整体替换向量切片（写入前拷贝），读方永远不会
//     观察到写了一半的向量
//   - 维度以第一次写入为准，后续写入维度不一致直接报错
//   - Nearest 为暴力余弦检索，结果确定有序
type MemoryEmbeddingStore struct {
	mu        sync.RWMutex
	vectors   map[string][]float64
	dimension int
}

func NewMemoryEmbeddingStore() *MemoryEmbeddingStore {
	return &MemoryEmbeddingStore{vectors: make(map[string][]float64)}
}

func (m *MemoryEmbeddingStore) Get(ctx context.Context, itemID string) ([]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	vec, ok := m.vectors[itemID]
	if !ok {
		return nil, core.ErrEmbeddingNotFound
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out, nil
}

func (m *MemoryEmbeddingStore) Put(ctx context.Context, itemID string, vector []float64) error {
	if len(vector) == 0 {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			"embedding: empty vector")
	}
	// 拷贝发生在锁外，锁内只做一次指针替换
	own := make([]float64, len(vector))
	copy(own, vector)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.dimension == 0 {
		m.dimension = len(vector)
	} else if len(vector) != m.dimension {
		return core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("embedding: dimension %d != %d", len(vector), m.dimension))
	}
	m.vectors[itemID] = own
	return nil
}

func (m *MemoryEmbeddingStore) Nearest(ctx context.Context, vector []float64, k int, exclude []string, minScore float64) ([]core.EmbeddingNeighbor, error) {
	if len(vector) == 0 || k <= 0 {
		return nil, nil
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, id := range exclude {
		excluded[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dimension != 0 && len(vector) != m.dimension {
		return nil, core.NewDomainError(core.ModuleVector, core.ErrorCodeInvalidInput,
			fmt.Sprintf("embedding: query dimension %d != %d", len(vector), m.dimension))
	}

	results := make([]core.EmbeddingNeighbor, 0, len(m.vectors))
	for itemID, vec := range m.vectors {
		if _, skip := excluded[itemID]; skip {
			continue
		}
		score := CosineSimilarity(vector, vec)
		if score < minScore {
			continue
		}
		results = append(results, core.EmbeddingNeighbor{ItemID: itemID, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ItemID < results[j].ItemID
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (m *MemoryEmbeddingStore) MissingFrom(ctx context.Context, ids []string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var missing []string
	for _, id := range ids {
		if _, ok := m.vectors[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

var _ core.EmbeddingStore = (*MemoryEmbeddingStore)(nil)

// CosineSimilarity 计算两个向量的余弦相似度，负相似度截断为 0，
// 保证对外分数落在 [0,1]。
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	return sim
}
