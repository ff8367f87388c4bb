package recall

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pkg/dsl"
	"github.com/rushteam/mealrec/pkg/utils"
)

// PopularityAggregator 是热度召回源：时间窗口内按行为权重计数。
//
// 评分规则：
//   - 物品原始分 = 窗口内 Σ weight(type)，权重表见 core.PopularityWeights
//   - 最终分 = 原始分 / 结果集中的最大原始分（空输入 ⇒ 空输出）
//   - 并列裁决：原始条数降序，再物品 ID 升序（确定性）
//
// 非个性化，天然适合做其余策略的冷启动兜底。
type PopularityAggregator struct {
	Log     core.InteractionLog
	Catalog core.ItemCatalog

	// Weights 行为权重表；为空时取 core.PopularityWeights
	Weights core.WeightTable

	// DefaultWindow 作为 Source 参与融合时使用的窗口；默认 week
	DefaultWindow core.TimeWindow

	// Cache 可选的请求间缓存；CacheTTL 秒数即新鲜度上界
	Cache    core.Store
	CacheTTL int
}

func (r *PopularityAggregator) Name() string { return "recall.popularity" }

func (r *PopularityAggregator) weights() core.WeightTable {
	if r.Weights != nil {
		return r.Weights
	}
	return core.PopularityWeights()
}

// Recall 实现 Source 接口：默认窗口下的热门物品。
func (r *PopularityAggregator) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	window := r.DefaultWindow
	if window == "" {
		window = core.WindowWeek
	}
	limit := 0
	var filters *core.Filters
	if rctx != nil {
		limit = rctx.Limit
		filters = rctx.Filters
	}
	return r.Aggregate(ctx, window, filters, limit)
}

// Trending 实现 TrendingCapable 接口。
func (r *PopularityAggregator) Trending(ctx context.Context, window core.TimeWindow, filters *core.Filters, limit int) ([]*core.Item, error) {
	return r.Aggregate(ctx, window, filters, limit)
}

type cachedCandidate struct {
	ID          string  `json:"id"`
	ContentType string  `json:"content_type,omitempty"`
	Title       string  `json:"title,omitempty"`
	Score       float64 `json:"score"`
}

// Aggregate 聚合窗口内的热门物品；limit <= 0 表示不截断。
func (r *PopularityAggregator) Aggregate(ctx context.Context, window core.TimeWindow, filters *core.Filters, limit int) ([]*core.Item, error) {
	if _, err := window.Duration(); err != nil {
		return nil, err
	}

	cacheKey := r.cacheKey(window, filters)
	if cached, ok := r.fromCache(ctx, cacheKey); ok {
		return truncate(cached, limit), nil
	}

	counts, err := r.Log.Window(ctx, window, r.weights())
	if err != nil {
		return nil, err
	}
	if len(counts) == 0 {
		return nil, nil
	}

	pred, err := dsl.NewPredicate(filters)
	if err != nil {
		return nil, err
	}

	type scored struct {
		count core.WindowCount
		info  *core.ItemInfo
	}
	kept := make([]scored, 0, len(counts))
	for _, c := range counts {
		info := r.resolve(ctx, c.ItemID)
		if !filters.IsZero() {
			// 硬性 AND：目录缺失的物品无法证明通过约束，剔除
			if info == nil {
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
		kept = append(kept, scored{count: c, info: info})
	}
	if len(kept) == 0 {
		return nil, nil
	}

	var maxRaw float64
	for _, s := range kept {
		if s.count.Weighted > maxRaw {
			maxRaw = s.count.Weighted
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i].count, kept[j].count
		if a.Weighted != b.Weighted {
			return a.Weighted > b.Weighted
		}
		if a.Raw != b.Raw {
			return a.Raw > b.Raw
		}
		return a.ItemID < b.ItemID
	})

	out := make([]*core.Item, 0, len(kept))
	for _, s := range kept {
		it := core.NewItem(s.count.ItemID)
		if maxRaw > 0 {
			it.Score = core.ClampScore(s.count.Weighted / maxRaw)
		}
		if s.info != nil {
			it.Title = s.info.Title
			it.ContentType = s.info.ContentType
		}
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, it)
	}

	r.toCache(ctx, cacheKey, out)
	return truncate(out, limit), nil
}

func (r *PopularityAggregator) resolve(ctx context.Context, itemID string) *core.ItemInfo {
	if r.Catalog == nil {
		return nil
	}
	info, err := r.Catalog.Resolve(ctx, itemID)
	if err != nil {
		return nil
	}
	return info
}

func (r *PopularityAggregator) cacheKey(window core.TimeWindow, filters *core.Filters) string {
	key := "pop:" + string(window)
	if !filters.IsZero() {
		if data, err := json.Marshal(filters); err == nil {
			key += ":" + string(data)
		}
	}
	return key
}

func (r *PopularityAggregator) fromCache(ctx context.Context, key string) ([]*core.Item, bool) {
	if r.Cache == nil {
		return nil, false
	}
	data, err := r.Cache.Get(ctx, key)
	if err != nil {
		return nil, false
	}
	var cached []cachedCandidate
	if json.Unmarshal(data, &cached) != nil {
		return nil, false
	}
	out := make([]*core.Item, 0, len(cached))
	for _, c := range cached {
		it := core.NewItem(c.ID)
		it.ContentType = c.ContentType
		it.Title = c.Title
		it.Score = c.Score
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: "popularity", Source: "recall"})
		out = append(out, it)
	}
	return out, true
}

func (r *PopularityAggregator) toCache(ctx context.Context, key string, items []*core.Item) {
	if r.Cache == nil {
		return
	}
	cached := make([]cachedCandidate, 0, len(items))
	for _, it := range items {
		cached = append(cached, cachedCandidate{
			ID:          it.ID,
			ContentType: it.ContentType,
			Title:       it.Title,
			Score:       it.Score,
		})
	}
	data, err := json.Marshal(cached)
	if err != nil {
		return
	}
	ttl := r.CacheTTL
	if ttl <= 0 {
		ttl = 60
	}
	// 缓存写失败只影响下一次命中率，不影响本次结果
	_ = r.Cache.Set(ctx, key, data, ttl)
}

func truncate(items []*core.Item, limit int) []*core.Item {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

var (
	_ Source          = (*PopularityAggregator)(nil)
	_ TrendingCapable = (*PopularityAggregator)(nil)
)
