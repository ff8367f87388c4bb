package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/mealrec/als"
	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pkg/utils"
	"github.com/rushteam/mealrec/recall"
)

// 融合权重。热度只托底或加成，永远不会把一个物品顶到榜首。
const (
	WeightCollaborative = 1.0
	WeightContent       = 0.8
	WeightPopularity    = 0.5
	PopularityBoost     = 0.2
)

// Blender 是混合融合器：并发跑三路策略，再按固定权重合并。
//
// 合并规则：
//   - 协同与内容按 max-merge：同一物品取 max(score × weight)
//   - 热度对新物品按 ×0.5 兜底插入；对已有物品只按其贡献分加成
//     score += pop × 0.5 × 0.2，合并后截断到 [0,1]
//   - 任一策略失败只损失该路候选，绝不放大为整次请求失败
//   - 合并在所有策略结束后按固定顺序进行，结果与完成顺序无关
type Blender struct {
	Affinity   *recall.UserAffinityModel
	Content    *recall.ContentSimilarityRanker
	Popularity *recall.PopularityAggregator
	Publisher  *als.Publisher
	Log        core.InteractionLog
	Logger     zerolog.Logger

	// StrategyTimeout 单路策略的超时；默认 2s
	StrategyTimeout time.Duration
}

func (b *Blender) popularityWindow() core.TimeWindow {
	if b.Popularity.DefaultWindow != "" {
		return b.Popularity.DefaultWindow
	}
	return core.WindowWeek
}

func (b *Blender) timeout() time.Duration {
	if b.StrategyTimeout > 0 {
		return b.StrategyTimeout
	}
	return 2 * time.Second
}

// Blend 执行三路融合。每路先按 2x limit 超量召回，合并排序后截断。
func (b *Blender) Blend(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	fetch := rctx.Limit * 2

	var collaborative, content, popularity []*core.Item
	g, gctx := errgroup.WithContext(ctx)

	g.Go(b.guarded(gctx, "collaborative", func(ctx context.Context) error {
		items, err := b.collaborative(ctx, rctx, fetch)
		collaborative = items
		return err
	}))
	g.Go(b.guarded(gctx, "content", func(ctx context.Context) error {
		items, err := b.contentCandidates(ctx, rctx, fetch)
		content = items
		return err
	}))
	g.Go(b.guarded(gctx, "popularity", func(ctx context.Context) error {
		items, err := b.Popularity.Aggregate(ctx, b.popularityWindow(), rctx.Filters, fetch)
		popularity = items
		return err
	}))

	// guarded 从不返回错误，Wait 只用于汇合
	_ = g.Wait()

	merged := make(map[string]*core.Item)
	maxMerge(merged, collaborative, WeightCollaborative)
	maxMerge(merged, content, WeightContent)

	for _, it := range popularity {
		if existing, ok := merged[it.ID]; ok {
			existing.Score = core.ClampScore(existing.Score + it.Score*WeightPopularity*PopularityBoost)
			continue
		}
		boosted := *it
		boosted.Score = core.ClampScore(it.Score * WeightPopularity)
		merged[it.ID] = &boosted
	}

	out := make([]*core.Item, 0, len(merged))
	for _, it := range merged {
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > rctx.Limit {
		out = out[:rctx.Limit]
	}
	return out, nil
}

// guarded 包装一路策略：带超时执行，失败记日志并以零候选参与合并。
func (b *Blender) guarded(ctx context.Context, strategy string, run func(context.Context) error) func() error {
	return func() error {
		sctx, cancel := context.WithTimeout(ctx, b.timeout())
		defer cancel()

		if err := run(sctx); err != nil {
			b.Logger.Warn().
				Str("strategy", strategy).
				Err(err).
				Msg("engine: strategy failed, blending without it")
		}
		return nil
	}
}

// collaborative 邻居协同候选；无邻居时回退到矩阵分解快照。
func (b *Blender) collaborative(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	if rctx.UserID == "" {
		return nil, nil
	}
	neighbors, err := b.Affinity.FindSimilarUsers(ctx, rctx.UserID, 0, 0)
	if err != nil {
		return nil, err
	}
	if len(neighbors) > 0 {
		return b.Affinity.RecommendFromNeighbors(ctx, neighbors, rctx.UserID, limit)
	}
	return b.factorized(ctx, rctx.UserID, limit)
}

// factorized 从当前矩阵分解快照给用户出候选；0..5 预测分压到 [0,1]。
func (b *Blender) factorized(ctx context.Context, userID string, limit int) ([]*core.Item, error) {
	if b.Publisher == nil {
		return nil, nil
	}
	model := b.Publisher.Current()
	if model == nil {
		return nil, nil
	}

	exclude, err := b.interactedSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	scored, err := model.TopKForUser(userID, limit, exclude)
	if err != nil {
		if core.IsUnknownEntity(err) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ItemID)
		it.Score = core.ClampScore(s.Score / 5.0)
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: "collaborative", Source: "als"})
		out = append(out, it)
	}
	return out, nil
}

// contentCandidates 内容相似候选。种子优先取显式 SeedItemID，
// 否则取用户最近一次非 ignore 交互；两者皆无则此路为空。
// 排除集覆盖用户全部已交互物品，不依赖后置过滤链兜底。
func (b *Blender) contentCandidates(ctx context.Context, rctx *core.RecommendContext, limit int) ([]*core.Item, error) {
	seed := rctx.SeedItemID
	var exclude []string
	if rctx.UserID != "" {
		interactions, err := b.Log.UserInteractions(ctx, rctx.UserID)
		if err != nil {
			return nil, err
		}
		for _, in := range interactions {
			exclude = append(exclude, in.ItemID)
		}
		if seed == "" {
			recent, err := b.Log.Recent(ctx, rctx.UserID, 20)
			if err != nil {
				return nil, err
			}
			for _, in := range recent {
				if in.Type != core.InteractionIgnore {
					seed = in.ItemID
					break
				}
			}
		}
	}
	if seed == "" {
		return nil, nil
	}
	return b.Content.SimilarByEmbedding(ctx, seed, limit, exclude)
}

func (b *Blender) interactedSet(ctx context.Context, userID string) (map[string]struct{}, error) {
	interactions, err := b.Log.UserInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		seen[in.ItemID] = struct{}{}
	}
	return seen, nil
}

// maxMerge 把 items 按 weight 折算后并入 merged，同一物品取较高分。
func maxMerge(merged map[string]*core.Item, items []*core.Item, weight float64) {
	for _, it := range items {
		score := core.ClampScore(it.Score * weight)
		if existing, ok := merged[it.ID]; ok {
			if score > existing.Score {
				existing.Score = score
				existing.Labels = it.Labels
			}
			continue
		}
		weighted := *it
		weighted.Score = score
		merged[it.ID] = &weighted
	}
}
