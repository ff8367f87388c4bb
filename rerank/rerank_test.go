package rerank

import (
	"context"
	"testing"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/store"
)

func scored(pairs ...any) []*core.Item {
	out := make([]*core.Item, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		it := core.NewItem(pairs[i].(string))
		it.Score = pairs[i+1].(float64)
		out = append(out, it)
	}
	return out
}

func TestScoreSortNode(t *testing.T) {
	node := &ScoreSortNode{}
	out, err := node.Process(context.Background(), nil,
		scored("b", 0.5, "c", 0.9, "a", 0.5))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	want := []string{"c", "a", "b"} // 同分 a/b 按 ID 升序
	for i := range want {
		if out[i].ID != want[i] {
			t.Errorf("位置 %d 期望 %s，实际 %s", i, want[i], out[i].ID)
		}
	}
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name string
		n    int
		in   int
		want int
	}{
		{"正常截断", 2, 5, 2},
		{"不足不截断", 10, 3, 3},
		{"N 为 0 不截断", 0, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := make([]*core.Item, tt.in)
			for i := range in {
				in[i] = core.NewItem(string(rune('a' + i)))
			}
			node := &TopNNode{N: tt.n}
			out, err := node.Process(context.Background(), nil, in)
			if err != nil {
				t.Fatalf("Process 失败: %v", err)
			}
			if len(out) != tt.want {
				t.Errorf("期望 %d 个，实际 %d 个", tt.want, len(out))
			}
		})
	}
}

func TestCuisineDiversity(t *testing.T) {
	catalog := store.NewMemoryCatalog(
		&core.ItemInfo{ID: "t1", Cuisine: "thai"},
		&core.ItemInfo{ID: "t2", Cuisine: "thai"},
		&core.ItemInfo{ID: "t3", Cuisine: "thai"},
		&core.ItemInfo{ID: "m1", Cuisine: "mexican"},
	)
	node := &CuisineDiversity{Catalog: catalog, MaxPerCuisine: 2}

	out, err := node.Process(context.Background(), nil,
		scored("t1", 0.9, "t2", 0.8, "t3", 0.7, "m1", 0.6, "unknown", 0.5))
	if err != nil {
		t.Fatalf("Process 失败: %v", err)
	}
	want := []string{"t1", "t2", "m1", "unknown"} // t3 超出 thai 配额
	if len(out) != len(want) {
		t.Fatalf("期望 %v，实际 %d 个", want, len(out))
	}
	for i := range want {
		if out[i].ID != want[i] {
			t.Errorf("位置 %d 期望 %s，实际 %s", i, want[i], out[i].ID)
		}
	}
}
