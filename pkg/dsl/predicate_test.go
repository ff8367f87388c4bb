package dsl

import (
	"testing"

	"github.com/rushteam/mealrec/core"
)

func item(cuisine string, tags []string, timeMinutes, calories int) *core.ItemInfo {
	return &core.ItemInfo{
		ID:          "i1",
		Cuisine:     cuisine,
		DietaryTags: tags,
		TimeMinutes: timeMinutes,
		Calories:    calories,
	}
}

func TestPredicate_Match(t *testing.T) {
	tests := []struct {
		name    string
		filters *core.Filters
		info    *core.ItemInfo
		want    bool
	}{
		{"空过滤恒真", nil, item("thai", nil, 30, 500), true},
		{"菜系命中", &core.Filters{Cuisine: "thai"}, item("thai", nil, 0, 0), true},
		{"菜系不命中", &core.Filters{Cuisine: "thai"}, item("italian", nil, 0, 0), false},
		{"饮食标签命中", &core.Filters{DietaryRestriction: "vegan"}, item("", []string{"vegan", "gluten_free"}, 0, 0), true},
		{"饮食标签缺失", &core.Filters{DietaryRestriction: "vegan"}, item("", []string{"keto"}, 0, 0), false},
		{"时长达标", &core.Filters{MaxTimeMinutes: 30}, item("", nil, 25, 0), true},
		{"时长超限", &core.Filters{MaxTimeMinutes: 30}, item("", nil, 45, 0), false},
		{"时长未知视为不满足", &core.Filters{MaxTimeMinutes: 30}, item("", nil, 0, 0), false},
		{"热量在区间内", &core.Filters{CalorieRange: &core.CalorieRange{Min: 200, Max: 600}}, item("", nil, 0, 400), true},
		{"热量低于下限", &core.Filters{CalorieRange: &core.CalorieRange{Min: 200, Max: 600}}, item("", nil, 0, 100), false},
		{"热量未知视为不满足", &core.Filters{CalorieRange: &core.CalorieRange{Min: 200, Max: 600}}, item("", nil, 0, 0), false},
		{
			"多条件硬性 AND",
			&core.Filters{Cuisine: "thai", MaxTimeMinutes: 30},
			item("thai", nil, 45, 0),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := NewPredicate(tt.filters)
			if err != nil {
				t.Fatalf("NewPredicate 失败: %v", err)
			}
			got, err := pred.Match(tt.info)
			if err != nil {
				t.Fatalf("Match 失败: %v", err)
			}
			if got != tt.want {
				t.Errorf("期望 %v，实际 %v", tt.want, got)
			}
		})
	}
}

func TestPredicate_NilItem(t *testing.T) {
	pred, err := NewPredicate(&core.Filters{Cuisine: "thai"})
	if err != nil {
		t.Fatalf("NewPredicate 失败: %v", err)
	}
	got, err := pred.Match(nil)
	if err != nil {
		t.Fatalf("Match 失败: %v", err)
	}
	if got {
		t.Error("无法取属性的物品不应通过硬性约束")
	}
}
