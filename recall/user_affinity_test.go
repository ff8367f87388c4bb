package recall

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/store"
)

func newAffinityFixture(events []core.Interaction) *UserAffinityModel {
	log := store.NewKVInteractionLog(store.NewMemoryStore())
	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i, in := range events {
		if in.Timestamp.IsZero() {
			in.Timestamp = base.Add(time.Duration(i) * time.Minute)
		}
		if err := log.Append(context.Background(), in); err != nil {
			panic(err)
		}
	}
	return &UserAffinityModel{Log: log}
}

func TestUserAffinityModel_FindAndRecommend(t *testing.T) {
	// u1 与 u2 在 i1、i2 上有共同正向交互；u2 还 like 了 i3
	model := newAffinityFixture([]core.Interaction{
		{UserID: "u1", ItemID: "i1", Type: core.InteractionLike},
		{UserID: "u1", ItemID: "i2", Type: core.InteractionSave},
		{UserID: "u2", ItemID: "i1", Type: core.InteractionLike},
		{UserID: "u2", ItemID: "i2", Type: core.InteractionCook},
		{UserID: "u2", ItemID: "i3", Type: core.InteractionLike},
	})
	ctx := context.Background()

	neighbors, err := model.FindSimilarUsers(ctx, "u1", 1, 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers 失败: %v", err)
	}
	if len(neighbors) != 1 {
		t.Fatalf("期望 1 个邻居，实际 %d 个", len(neighbors))
	}
	if neighbors[0].UserID != "u2" || neighbors[0].CommonItems != 2 {
		t.Errorf("期望邻居 u2 共同物品 2，实际 %+v", neighbors[0])
	}
	// like 0.6 + cook 1.0
	if !almostEqual(neighbors[0].Score, 1.6) {
		t.Errorf("邻居分期望 1.6，实际 %v", neighbors[0].Score)
	}

	items, err := model.RecommendFromNeighbors(ctx, neighbors, "u1", 10)
	if err != nil {
		t.Fatalf("RecommendFromNeighbors 失败: %v", err)
	}
	if len(items) != 1 || items[0].ID != "i3" {
		t.Fatalf("期望只推 i3（u1 已有 i1/i2），实际 %v", ids(items))
	}
	// 0.6 / 10
	if !almostEqual(items[0].Score, 0.06) {
		t.Errorf("得分期望 0.06，实际 %v", items[0].Score)
	}
	if items[0].SourceStrategy() != "collaborative" {
		t.Errorf("source_strategy 期望 collaborative，实际 %q", items[0].SourceStrategy())
	}
}

func TestUserAffinityModel_MinCommonItems(t *testing.T) {
	// u3 只与 u1 共享 1 个正向物品，min_common_items=2 时不算邻居
	model := newAffinityFixture([]core.Interaction{
		{UserID: "u1", ItemID: "i1", Type: core.InteractionLike},
		{UserID: "u1", ItemID: "i2", Type: core.InteractionLike},
		{UserID: "u3", ItemID: "i1", Type: core.InteractionCook},
	})

	neighbors, err := model.FindSimilarUsers(context.Background(), "u1", 2, 10)
	if err != nil {
		t.Fatalf("FindSimilarUsers 失败: %v", err)
	}
	if len(neighbors) != 0 {
		t.Errorf("共同物品不足时不应算邻居，实际 %+v", neighbors)
	}
}

func TestUserAffinityModel_PositiveDefinition(t *testing.T) {
	// view 与低评分不算正向；评分 >= 3 算
	model := newAffinityFixture([]core.Interaction{
		{UserID: "u1", ItemID: "i1", Type: core.InteractionView},
		{UserID: "u1", ItemID: "i2", Type: core.InteractionRating, Rating: 2},
		{UserID: "u1", ItemID: "i3", Type: core.InteractionRating, Rating: 3},
		{UserID: "u2", ItemID: "i1", Type: core.InteractionLike},
		{UserID: "u2", ItemID: "i2", Type: core.InteractionLike},
		{UserID: "u2", ItemID: "i3", Type: core.InteractionLike},
	})

	positives, err := model.positiveItems(context.Background(), "u1")
	if err != nil {
		t.Fatalf("positiveItems 失败: %v", err)
	}
	if len(positives) != 1 {
		t.Fatalf("期望 1 个正向物品，实际 %v", positives)
	}
	if _, ok := positives["i3"]; !ok {
		t.Errorf("评分 3 应算正向，实际 %v", positives)
	}
}

func TestUserAffinityModel_ColdStart(t *testing.T) {
	model := newAffinityFixture([]core.Interaction{
		{UserID: "u2", ItemID: "i1", Type: core.InteractionLike},
	})
	ctx := context.Background()

	items, err := model.Recall(ctx, &core.RecommendContext{UserID: "newcomer", Limit: 10})
	if err != nil {
		t.Fatalf("冷启动不应报错: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("无历史用户期望空结果，实际 %v", ids(items))
	}
}

func TestUserAffinityModel_IgnoreNotRecommended(t *testing.T) {
	model := newAffinityFixture([]core.Interaction{
		{UserID: "u1", ItemID: "i1", Type: core.InteractionLike},
		{UserID: "u1", ItemID: "i2", Type: core.InteractionLike},
		{UserID: "u2", ItemID: "i1", Type: core.InteractionLike},
		{UserID: "u2", ItemID: "i2", Type: core.InteractionLike},
		{UserID: "u2", ItemID: "i9", Type: core.InteractionIgnore},
	})
	ctx := context.Background()

	items, err := model.Recall(ctx, &core.RecommendContext{UserID: "u1", Limit: 10})
	if err != nil {
		t.Fatalf("Recall 失败: %v", err)
	}
	for _, it := range items {
		if it.ID == "i9" {
			t.Error("邻居 ignore 的物品不应被聚合")
		}
	}
}

func TestUserAffinityModel_CoOccurrenceSimilar(t *testing.T) {
	// i1 与 i2 被 u1/u2 共同交互（共现 2）；i3 只被 u1 交互（共现 1）
	model := newAffinityFixture([]core.Interaction{
		{UserID: "u1", ItemID: "i1", Type: core.InteractionView},
		{UserID: "u1", ItemID: "i2", Type: core.InteractionLike},
		{UserID: "u1", ItemID: "i3", Type: core.InteractionView},
		{UserID: "u2", ItemID: "i1", Type: core.InteractionSave},
		{UserID: "u2", ItemID: "i2", Type: core.InteractionView},
	})
	ctx := context.Background()

	items, err := model.Similar(ctx, "i1", MethodCoOccurrence, 10)
	if err != nil {
		t.Fatalf("Similar 失败: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("期望 2 个相似物品，实际 %v", ids(items))
	}
	if items[0].ID != "i2" || items[0].Score != 1 {
		t.Errorf("首位期望 i2 得分 1（共现最大），实际 %s %v", items[0].ID, items[0].Score)
	}
	if items[1].ID != "i3" || !almostEqual(items[1].Score, 0.5) {
		t.Errorf("第二期望 i3 得分 0.5，实际 %s %v", items[1].ID, items[1].Score)
	}
	for _, it := range items {
		if it.ID == "i1" {
			t.Error("相似结果不应包含物品本身")
		}
	}
}

func almostEqual(got, want float64) bool {
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}
