package recall

import (
	"context"
	"sort"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pkg/dsl"
	"github.com/rushteam/mealrec/pkg/utils"
)

// ContentSimilarityRanker 是内容相似召回源：向量近邻 + 属性重合。
//
// 向量路径：
//   - 物品向量缺失时 generate-and-persist（EmbeddingProvider 生成，
//     EmbeddingStore 原子 upsert），再查余弦近邻
//   - 低于 MinSimilarity（默认 0.6）的结果剔除
//
// 属性路径：
//   - 得分 = 共同属性数 / |attributes(seed)|
//   - 要求共同属性 >= MinCommonAttributes（默认 2）且得分 > 0.2
type ContentSimilarityRanker struct {
	Provider core.EmbeddingProvider
	Store    core.EmbeddingStore
	Catalog  core.ItemCatalog

	// MinSimilarity 向量相似度下限；默认 0.6
	MinSimilarity float64

	// MinCommonAttributes 属性重合的最少共同属性数；默认 2
	MinCommonAttributes int
}

func (r *ContentSimilarityRanker) Name() string { return "recall.content" }

func (r *ContentSimilarityRanker) minSimilarity() float64 {
	if r.MinSimilarity > 0 {
		return r.MinSimilarity
	}
	return 0.6
}

func (r *ContentSimilarityRanker) minCommonAttrs() int {
	if r.MinCommonAttributes > 0 {
		return r.MinCommonAttributes
	}
	return 2
}

// embeddingFor 取物品向量，缺失时从目录文本生成并持久化。
func (r *ContentSimilarityRanker) embeddingFor(ctx context.Context, itemID string) ([]float64, error) {
	vec, err := r.Store.Get(ctx, itemID)
	if err == nil {
		return vec, nil
	}
	if !core.IsNotFound(err) {
		return nil, err
	}
	info, err := r.Catalog.Resolve(ctx, itemID)
	if err != nil {
		return nil, err
	}
	vec, err = r.Provider.Embed(ctx, info.EmbeddingText())
	if err != nil {
		return nil, err
	}
	if err := r.Store.Put(ctx, itemID, vec); err != nil {
		return nil, err
	}
	return vec, nil
}

// SimilarByEmbedding 返回与 itemID 向量最相近的物品。
// itemID 本身始终被排除；exclude 额外剔除给定 ID（如用户已交互物品）。
func (r *ContentSimilarityRanker) SimilarByEmbedding(ctx context.Context, itemID string, limit int, exclude []string) ([]*core.Item, error) {
	if itemID == "" || limit <= 0 {
		return nil, nil
	}
	vec, err := r.embeddingFor(ctx, itemID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil // 目录里没有的物品：无结果，不是错误
		}
		return nil, err
	}

	excludeAll := append([]string{itemID}, exclude...)
	neighbors, err := r.Store.Nearest(ctx, vec, limit, excludeAll, r.minSimilarity())
	if err != nil {
		return nil, err
	}
	return r.toItems(ctx, neighbors, "content"), nil
}

// SimilarByAttributes 按属性重合度检索相似物品。
// 排序：得分降序 → 共同属性数降序 → 物品 ID 升序。
func (r *ContentSimilarityRanker) SimilarByAttributes(ctx context.Context, itemID string, limit int) ([]*core.Item, error) {
	if itemID == "" || limit <= 0 {
		return nil, nil
	}
	seed, err := r.Catalog.Resolve(ctx, itemID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if len(seed.Attributes) == 0 {
		return nil, nil
	}
	seedAttrs := make(map[string]struct{}, len(seed.Attributes))
	for _, a := range seed.Attributes {
		seedAttrs[a] = struct{}{}
	}

	candidates, err := r.Catalog.List(ctx, seed.ContentType)
	if err != nil {
		return nil, err
	}

	type attrMatch struct {
		info   *core.ItemInfo
		shared int
		score  float64
	}
	matches := make([]attrMatch, 0)
	for _, cand := range candidates {
		if cand.ID == itemID {
			continue
		}
		shared := 0
		for _, a := range cand.Attributes {
			if _, ok := seedAttrs[a]; ok {
				shared++
			}
		}
		score := float64(shared) / float64(len(seed.Attributes))
		if shared < r.minCommonAttrs() || score <= 0.2 {
			continue
		}
		matches = append(matches, attrMatch{info: cand, shared: shared, score: score})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		if matches[i].shared != matches[j].shared {
			return matches[i].shared > matches[j].shared
		}
		return matches[i].info.ID < matches[j].info.ID
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]*core.Item, 0, len(matches))
	for _, m := range matches {
		it := core.NewItem(m.info.ID)
		it.ContentType = m.info.ContentType
		it.Title = m.info.Title
		it.Score = core.ClampScore(m.score)
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: "content", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// SearchByText 语义检索：embed 查询文本后走同一套近邻搜索，
// 过滤条件在排序截断前作为硬性 AND 谓词生效，绝不做软加权。
func (r *ContentSimilarityRanker) SearchByText(ctx context.Context, query string, limit int, filters *core.Filters) ([]*core.Item, error) {
	if query == "" || limit <= 0 {
		return nil, nil
	}
	vec, err := r.Provider.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	// 过滤会吃掉一部分近邻，先取 2x 再过滤
	neighbors, err := r.Store.Nearest(ctx, vec, limit*2, nil, r.minSimilarity())
	if err != nil {
		return nil, err
	}

	pred, err := dsl.NewPredicate(filters)
	if err != nil {
		return nil, err
	}
	kept := make([]core.EmbeddingNeighbor, 0, len(neighbors))
	for _, n := range neighbors {
		if !filters.IsZero() {
			info, err := r.Catalog.Resolve(ctx, n.ItemID)
			if err != nil {
				continue
			}
			ok, err := pred.Match(info)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		kept = append(kept, n)
		if len(kept) == limit {
			break
		}
	}
	return r.toItems(ctx, kept, "content"), nil
}

// Recall 实现 Source 接口：以 rctx.SeedItemID 为种子的向量相似召回。
// 种子为空时返回空（由上层决定种子，如用户最近一次非 ignore 交互）。
func (r *ContentSimilarityRanker) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.SeedItemID == "" {
		return nil, nil
	}
	return r.SimilarByEmbedding(ctx, rctx.SeedItemID, rctx.Limit, nil)
}

// SimilarMethods 实现 SimilarityCapable 接口。
func (r *ContentSimilarityRanker) SimilarMethods() []string {
	return []string{MethodEmbedding, MethodAttributes}
}

// Similar 实现 SimilarityCapable 接口。
func (r *ContentSimilarityRanker) Similar(ctx context.Context, itemID, method string, limit int) ([]*core.Item, error) {
	switch method {
	case MethodAttributes:
		return r.SimilarByAttributes(ctx, itemID, limit)
	case MethodEmbedding:
		return r.SimilarByEmbedding(ctx, itemID, limit, nil)
	}
	return nil, nil
}

func (r *ContentSimilarityRanker) toItems(ctx context.Context, neighbors []core.EmbeddingNeighbor, strategy string) []*core.Item {
	out := make([]*core.Item, 0, len(neighbors))
	for _, n := range neighbors {
		it := core.NewItem(n.ItemID)
		it.Score = core.ClampScore(n.Score)
		if r.Catalog != nil {
			if info, err := r.Catalog.Resolve(ctx, n.ItemID); err == nil {
				it.Title = info.Title
				it.ContentType = info.ContentType
			}
		}
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: strategy, Source: "recall"})
		out = append(out, it)
	}
	return out
}

var (
	_ Source            = (*ContentSimilarityRanker)(nil)
	_ SimilarityCapable = (*ContentSimilarityRanker)(nil)
)
