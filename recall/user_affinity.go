package recall

import (
	"context"
	"sort"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pkg/utils"
)

// UserAffinityModel 是基于用户的邻居协同过滤召回源（User-CF）。
//
// 算法流程：
//  1. P(user) = 用户有正向交互的物品集合（like/save/cook 或评分 >= 3）
//  2. 经物品倒排找候选邻居，要求 |P(user) ∩ P(candidate)| >= MinCommonItems
//  3. 邻居分 = 共同物品上候选用户正向交互的行为权重之和
//  4. 聚合邻居持有、目标用户没有的物品，得分 / ScaleFactor 截断到 [0,1]
//
// 冷启动（无历史或无邻居）返回空列表，由上层切换到其他策略。
type UserAffinityModel struct {
	Log core.InteractionLog

	// Weights 行为权重表；为空时取 core.AffinityWeights（view = 0.3 变体）
	Weights core.WeightTable

	// MinCommonItems 判定邻居所需的最少共同正向物品数；默认 2
	MinCommonItems int

	// MaxNeighbors 参与聚合的最多邻居数；默认 10
	MaxNeighbors int

	// ScaleFactor 邻居聚合分的固定归一化除数；默认 10
	ScaleFactor float64
}

// NeighborUser 是一个候选邻居及其相似度信息。
type NeighborUser struct {
	UserID      string
	Score       float64
	CommonItems int
}

func (r *UserAffinityModel) Name() string { return "recall.affinity" }

func (r *UserAffinityModel) weights() core.WeightTable {
	if r.Weights != nil {
		return r.Weights
	}
	return core.AffinityWeights()
}

func (r *UserAffinityModel) minCommon() int {
	if r.MinCommonItems > 0 {
		return r.MinCommonItems
	}
	return 2
}

func (r *UserAffinityModel) maxNeighbors() int {
	if r.MaxNeighbors > 0 {
		return r.MaxNeighbors
	}
	return 10
}

func (r *UserAffinityModel) scale() float64 {
	if r.ScaleFactor > 0 {
		return r.ScaleFactor
	}
	return 10
}

// positiveItems 返回用户的正向物品集合：物品 -> 最强正向交互的行为权重。
func (r *UserAffinityModel) positiveItems(ctx context.Context, userID string) (map[string]float64, error) {
	interactions, err := r.Log.UserInteractions(ctx, userID)
	if err != nil {
		return nil, err
	}
	weights := r.weights()
	positives := make(map[string]float64)
	for _, in := range interactions {
		if !in.IsPositive() {
			continue
		}
		w := weights.Weight(in)
		if w > positives[in.ItemID] {
			positives[in.ItemID] = w
		}
	}
	return positives, nil
}

// FindSimilarUsers 寻找与目标用户有共同正向物品的邻居。
// 排序：邻居分降序 → 共同物品数降序 → 用户 ID 升序。
func (r *UserAffinityModel) FindSimilarUsers(ctx context.Context, userID string, minCommonItems, limit int) ([]NeighborUser, error) {
	if userID == "" {
		return nil, nil
	}
	if minCommonItems <= 0 {
		minCommonItems = r.minCommon()
	}

	targetPositives, err := r.positiveItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(targetPositives) == 0 {
		return nil, nil // 冷启动
	}

	// 物品倒排圈定候选，避免全量用户扫描
	candidates := make(map[string]struct{})
	for itemID := range targetPositives {
		users, err := r.Log.ItemUsers(ctx, itemID)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if u != userID {
				candidates[u] = struct{}{}
			}
		}
	}

	neighbors := make([]NeighborUser, 0, len(candidates))
	for candidate := range candidates {
		candPositives, err := r.positiveItems(ctx, candidate)
		if err != nil {
			return nil, err
		}
		var score float64
		var common int
		for itemID, w := range candPositives {
			if _, ok := targetPositives[itemID]; ok {
				common++
				score += w
			}
		}
		if common < minCommonItems {
			continue
		}
		neighbors = append(neighbors, NeighborUser{UserID: candidate, Score: score, CommonItems: common})
	}

	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].Score != neighbors[j].Score {
			return neighbors[i].Score > neighbors[j].Score
		}
		if neighbors[i].CommonItems != neighbors[j].CommonItems {
			return neighbors[i].CommonItems > neighbors[j].CommonItems
		}
		return neighbors[i].UserID < neighbors[j].UserID
	})
	if limit > 0 && len(neighbors) > limit {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}

// RecommendFromNeighbors 聚合邻居持有、目标用户没有的物品。
// 得分 = Σ weight(type) / ScaleFactor，截断到 [0,1]。
func (r *UserAffinityModel) RecommendFromNeighbors(ctx context.Context, neighbors []NeighborUser, userID string, limit int) ([]*core.Item, error) {
	if len(neighbors) == 0 {
		return nil, nil
	}

	seen := make(map[string]struct{})
	if userID != "" {
		own, err := r.Log.UserInteractions(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, in := range own {
			seen[in.ItemID] = struct{}{}
		}
	}

	weights := r.weights()
	scores := make(map[string]float64)
	for _, n := range neighbors {
		interactions, err := r.Log.UserInteractions(ctx, n.UserID)
		if err != nil {
			return nil, err
		}
		for _, in := range interactions {
			if in.Type == core.InteractionIgnore {
				continue
			}
			if _, ok := seen[in.ItemID]; ok {
				continue
			}
			scores[in.ItemID] += weights.Weight(in)
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	type scoredItem struct {
		itemID string
		score  float64
	}
	ranked := make([]scoredItem, 0, len(scores))
	for itemID, s := range scores {
		ranked = append(ranked, scoredItem{itemID: itemID, score: s})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].itemID < ranked[j].itemID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, s := range ranked {
		it := core.NewItem(s.itemID)
		it.Score = core.ClampScore(s.score / r.scale())
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: "collaborative", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

// Recall 实现 Source 接口：找邻居再聚合，冷启动返回空。
func (r *UserAffinityModel) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	neighbors, err := r.FindSimilarUsers(ctx, rctx.UserID, r.minCommon(), r.maxNeighbors())
	if err != nil {
		return nil, err
	}
	return r.RecommendFromNeighbors(ctx, neighbors, rctx.UserID, rctx.Limit)
}

// SimilarMethods 实现 SimilarityCapable 接口。
func (r *UserAffinityModel) SimilarMethods() []string {
	return []string{MethodCoOccurrence}
}

// Similar 按共现频次检索相似物品："被同一批用户交互过的物品相互相似"。
// 共现数 = 同时交互过两个物品的用户数；得分按最大共现数归一化。
func (r *UserAffinityModel) Similar(ctx context.Context, itemID, method string, limit int) ([]*core.Item, error) {
	if method != MethodCoOccurrence || itemID == "" {
		return nil, nil
	}
	users, err := r.Log.ItemUsers(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, nil
	}

	coCount := make(map[string]int)
	for _, u := range users {
		interactions, err := r.Log.UserInteractions(ctx, u)
		if err != nil {
			return nil, err
		}
		distinct := make(map[string]struct{})
		for _, in := range interactions {
			if in.ItemID == itemID || in.Type == core.InteractionIgnore {
				continue
			}
			distinct[in.ItemID] = struct{}{}
		}
		for other := range distinct {
			coCount[other]++
		}
	}
	if len(coCount) == 0 {
		return nil, nil
	}

	type coItem struct {
		itemID string
		count  int
	}
	ranked := make([]coItem, 0, len(coCount))
	maxCount := 0
	for id, c := range coCount {
		ranked = append(ranked, coItem{itemID: id, count: c})
		if c > maxCount {
			maxCount = c
		}
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].itemID < ranked[j].itemID
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]*core.Item, 0, len(ranked))
	for _, c := range ranked {
		it := core.NewItem(c.itemID)
		it.Score = core.ClampScore(float64(c.count) / float64(maxCount))
		it.PutLabel(core.LabelSourceStrategy, utils.Label{Value: "co_occurrence", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}

var (
	_ Source            = (*UserAffinityModel)(nil)
	_ SimilarityCapable = (*UserAffinityModel)(nil)
)
