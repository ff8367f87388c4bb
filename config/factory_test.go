package config

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/store"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	return []float64{1, 0}, nil
}

func TestBuildEngine_MemoryBackend(t *testing.T) {
	catalog := store.NewMemoryCatalog(
		&core.ItemInfo{ID: "i1", Title: "Pad Thai", Cuisine: "thai"},
		&core.ItemInfo{ID: "i2", Title: "Green Curry", Cuisine: "thai"},
	)
	e, err := BuildEngine(Default(), stubEmbedder{}, catalog, zerolog.Nop())
	if err != nil {
		t.Fatalf("BuildEngine 失败: %v", err)
	}

	ctx := context.Background()
	if err := e.RecordInteraction(ctx, core.Interaction{
		UserID: "u1", ItemID: "i1", Type: core.InteractionCook,
	}); err != nil {
		t.Fatalf("RecordInteraction 失败: %v", err)
	}

	items, err := e.GetRecommendations(ctx, &core.RecommendContext{UserID: "u2", Limit: 5})
	if err != nil {
		t.Fatalf("GetRecommendations 失败: %v", err)
	}
	if len(items) == 0 {
		t.Fatal("装配后的引擎应能产出热度候选")
	}

	// 已交互过滤生效：u1 不应再看到 i1
	own, err := e.GetRecommendations(ctx, &core.RecommendContext{UserID: "u1", Limit: 5})
	if err != nil {
		t.Fatalf("GetRecommendations 失败: %v", err)
	}
	for _, it := range own {
		if it.ID == "i1" {
			t.Error("已交互物品应被后处理链剔除")
		}
	}
}

// 补齐任务写入的向量库必须就是引擎内容路读取的那一份。
func TestBuildScheduler_BackfillSharesEngineStore(t *testing.T) {
	catalog := store.NewMemoryCatalog(
		&core.ItemInfo{ID: "i1", Title: "Pad Thai", Cuisine: "thai"},
	)
	cfg := Default()
	cfg.Scheduler.BackfillInterval = Duration(10 * time.Millisecond)
	cfg.Scheduler.RetrainInterval = Duration(time.Hour)

	e, err := BuildEngine(cfg, stubEmbedder{}, catalog, zerolog.Nop())
	if err != nil {
		t.Fatalf("BuildEngine 失败: %v", err)
	}
	s := BuildScheduler(cfg, e, zerolog.Nop())

	ctx := context.Background()
	s.Start(ctx)
	defer s.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for {
		missing, err := e.Content.Store.MissingFrom(ctx, []string{"i1"})
		if err != nil {
			t.Fatalf("MissingFrom 失败: %v", err)
		}
		if len(missing) == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("补齐任务超时未写入引擎的向量库")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBuildEngine_InvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.ALS.Rank = -5
	if _, err := BuildEngine(cfg, stubEmbedder{}, store.NewMemoryCatalog(), zerolog.Nop()); err == nil {
		t.Error("非法配置应报错")
	}
}
