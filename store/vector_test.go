package store

import (
	"context"
	"testing"

	"github.com/rushteam/mealrec/core"
)

func TestMemoryEmbeddingStore_PutDimension(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEmbeddingStore()

	if err := s.Put(ctx, "i1", []float64{1, 0, 0}); err != nil {
		t.Fatalf("Put 失败: %v", err)
	}
	if err := s.Put(ctx, "i2", []float64{1, 0}); !core.IsInvalidInput(err) {
		t.Errorf("维度不一致期望 INVALID_INPUT，实际 %v", err)
	}
	if err := s.Put(ctx, "i3", nil); !core.IsInvalidInput(err) {
		t.Errorf("空向量期望 INVALID_INPUT，实际 %v", err)
	}
}

func TestMemoryEmbeddingStore_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEmbeddingStore()

	if err := s.Put(ctx, "i1", []float64{1, 0, 0}); err != nil {
		t.Fatalf("Put 失败: %v", err)
	}
	vec, err := s.Get(ctx, "i1")
	if err != nil {
		t.Fatalf("Get 失败: %v", err)
	}
	vec[0] = 99

	again, _ := s.Get(ctx, "i1")
	if again[0] != 1 {
		t.Errorf("修改返回值不应污染存储，实际 %v", again)
	}

	if _, err := s.Get(ctx, "missing"); !core.IsNotFound(err) {
		t.Errorf("缺失向量期望 NOT_FOUND，实际 %v", err)
	}
}

func TestMemoryEmbeddingStore_Nearest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEmbeddingStore()

	vectors := map[string][]float64{
		"i1": {1, 0, 0},
		"i2": {0.9, 0.1, 0}, // 与 i1 最相近
		"i3": {0, 1, 0},
		"i4": {-1, 0, 0}, // 负余弦截断为 0
	}
	for id, v := range vectors {
		if err := s.Put(ctx, id, v); err != nil {
			t.Fatalf("Put %s 失败: %v", id, err)
		}
	}

	neighbors, err := s.Nearest(ctx, []float64{1, 0, 0}, 10, []string{"i1"}, 0.6)
	if err != nil {
		t.Fatalf("Nearest 失败: %v", err)
	}
	if len(neighbors) != 1 {
		t.Fatalf("阈值 0.6 下期望 1 个近邻，实际 %d 个: %+v", len(neighbors), neighbors)
	}
	if neighbors[0].ItemID != "i2" {
		t.Errorf("期望 i2，实际 %s", neighbors[0].ItemID)
	}
	if neighbors[0].Score <= 0.6 || neighbors[0].Score > 1 {
		t.Errorf("得分应落在 (0.6, 1]，实际 %v", neighbors[0].Score)
	}
}

func TestMemoryEmbeddingStore_NearestDeterministicTies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEmbeddingStore()

	// 三个同向向量同分，应按 ID 升序
	for _, id := range []string{"c", "a", "b"} {
		if err := s.Put(ctx, id, []float64{2, 0}); err != nil {
			t.Fatalf("Put 失败: %v", err)
		}
	}
	for i := 0; i < 5; i++ {
		neighbors, err := s.Nearest(ctx, []float64{1, 0}, 3, nil, 0)
		if err != nil {
			t.Fatalf("Nearest 失败: %v", err)
		}
		want := []string{"a", "b", "c"}
		for j := range want {
			if neighbors[j].ItemID != want[j] {
				t.Fatalf("第 %d 次：位置 %d 期望 %s，实际 %s", i, j, want[j], neighbors[j].ItemID)
			}
		}
	}
}

func TestMemoryEmbeddingStore_MissingFrom(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryEmbeddingStore()

	if err := s.Put(ctx, "i1", []float64{1}); err != nil {
		t.Fatalf("Put 失败: %v", err)
	}
	missing, err := s.MissingFrom(ctx, []string{"i1", "i2", "i3"})
	if err != nil {
		t.Fatalf("MissingFrom 失败: %v", err)
	}
	if len(missing) != 2 || missing[0] != "i2" || missing[1] != "i3" {
		t.Errorf("期望 [i2 i3]，实际 %v", missing)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"同向", []float64{1, 0}, []float64{2, 0}, 1},
		{"正交", []float64{1, 0}, []float64{0, 1}, 0},
		{"反向截断", []float64{1, 0}, []float64{-1, 0}, 0},
		{"零向量", []float64{0, 0}, []float64{1, 0}, 0},
		{"维度不一致", []float64{1}, []float64{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CosineSimilarity(tt.a, tt.b); !almost(got, tt.want) {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}
