package filter

import (
	"context"
	"testing"
	"time"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/store"
)

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, core.NewItem(id))
	}
	return out
}

func TestInteractedFilter(t *testing.T) {
	ctx := context.Background()
	log := store.NewKVInteractionLog(store.NewMemoryStore())
	ts := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for _, id := range []string{"i1", "i2"} {
		if err := log.Append(ctx, core.Interaction{
			UserID: "u1", ItemID: id, Type: core.InteractionLike, Timestamp: ts,
		}); err != nil {
			t.Fatalf("Append 失败: %v", err)
		}
	}

	node := &FilterNode{Filters: []Filter{&InteractedFilter{Log: log}}}
	rctx := &core.RecommendContext{UserID: "u1", Limit: 10}

	out, err := node.Process(ctx, rctx, items("i1", "i2", "i3"))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(out) != 1 || out[0].ID != "i3" {
		t.Errorf("已交互物品应被剔除，期望 [i3]，实际 %d 个", len(out))
	}

	// 匿名请求不过滤
	anon, err := node.Process(ctx, &core.RecommendContext{Limit: 10}, items("i1", "i2"))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(anon) != 2 {
		t.Errorf("匿名请求不应过滤，实际 %d 个", len(anon))
	}
}

func TestContentTypeFilter(t *testing.T) {
	ctx := context.Background()
	catalog := store.NewMemoryCatalog(
		&core.ItemInfo{ID: "r1", ContentType: "recipe"},
		&core.ItemInfo{ID: "a1", ContentType: "article"},
	)
	node := &FilterNode{Filters: []Filter{&ContentTypeFilter{Catalog: catalog}}}

	out, err := node.Process(ctx,
		&core.RecommendContext{ContentType: "recipe", Limit: 10},
		items("r1", "a1"))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(out) != 1 || out[0].ID != "r1" {
		t.Errorf("期望只剩 r1，实际 %d 个", len(out))
	}

	// 不限类型时全部保留
	all, err := node.Process(ctx, &core.RecommendContext{Limit: 10}, items("r1", "a1"))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("不限类型不应过滤，实际 %d 个", len(all))
	}
}

func TestAttributeFilter(t *testing.T) {
	ctx := context.Background()
	catalog := store.NewMemoryCatalog(
		&core.ItemInfo{ID: "quick", Cuisine: "thai", TimeMinutes: 20},
		&core.ItemInfo{ID: "slow", Cuisine: "thai", TimeMinutes: 90},
		&core.ItemInfo{ID: "mystery", Cuisine: "thai"}, // 时长未知
	)
	node := &FilterNode{Filters: []Filter{&AttributeFilter{Catalog: catalog}}}
	rctx := &core.RecommendContext{
		Limit:   10,
		Filters: &core.Filters{MaxTimeMinutes: 30},
	}

	out, err := node.Process(ctx, rctx, items("quick", "slow", "mystery", "ghost"))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	// 时长未知与目录缺失都无法证明满足硬性约束
	if len(out) != 1 || out[0].ID != "quick" {
		t.Errorf("期望只剩 quick，实际 %d 个", len(out))
	}
}
