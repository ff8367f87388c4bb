package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/store"
)

func TestScheduler_RunAndStatus(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	var runs atomic.Int32
	s.Register(Task{
		Name:     "tick",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return nil
		},
	})

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("任务未按周期运行")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	status := s.Status("tick")
	if status == nil {
		t.Fatal("任务状态应可查询")
	}
	if status.Runs < 2 {
		t.Errorf("期望至少运行 2 次，实际 %d 次", status.Runs)
	}
	if status.Running {
		t.Error("Stop 后任务不应标记为运行中")
	}
	if status.LastStarted.IsZero() {
		t.Error("应记录最近一次启动时间")
	}

	if s.Status("no-such-task") != nil {
		t.Error("未注册任务应返回 nil")
	}
}

func TestScheduler_RecordsError(t *testing.T) {
	s := NewScheduler(zerolog.Nop())
	var runs atomic.Int32
	s.Register(Task{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return errors.New("boom")
		},
	})

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for runs.Load() < 1 {
		if time.Now().After(deadline) {
			t.Fatal("任务未运行")
		}
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	status := s.Status("flaky")
	if status.LastError != "boom" {
		t.Errorf("应记录最近错误，实际 %q", status.LastError)
	}
}

func TestBackfillTask_EmbedsMissingVectors(t *testing.T) {
	ctx := context.Background()
	catalog := store.NewMemoryCatalog(
		&core.ItemInfo{ID: "i1", Title: "Pad Thai"},
		&core.ItemInfo{ID: "i2", Title: "Green Curry"},
	)
	vectors := store.NewMemoryEmbeddingStore()
	if err := vectors.Put(ctx, "i1", []float64{1, 0}); err != nil {
		t.Fatalf("Put 失败: %v", err)
	}

	task := BackfillTask(catalog, vectors, &fixedEmbedder{vec: []float64{0, 1}}, time.Hour)
	if err := task.Run(ctx); err != nil {
		t.Fatalf("补齐任务失败: %v", err)
	}

	if _, err := vectors.Get(ctx, "i2"); err != nil {
		t.Errorf("缺失向量应被补齐: %v", err)
	}
	missing, _ := vectors.MissingFrom(ctx, []string{"i1", "i2"})
	if len(missing) != 0 {
		t.Errorf("不应再有缺失向量，实际 %v", missing)
	}
}
