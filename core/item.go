package core

import "github.com/rushteam/mealrec/pkg/utils"

// LabelSourceStrategy 是候选来源策略的标准 Label key。
const LabelSourceStrategy = "source_strategy"

// Item 是推荐链路中的统一候选结构：请求内瞬时存在，从不落库。
// Score 对外始终归一化到 [0,1]；Labels 记录来源策略与解释信息。
type Item struct {
	ID          string
	ContentType string
	Title       string
	Score       float64
	Meta        map[string]any
	Labels      map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Score:  0,
		Meta:   make(map[string]any),
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SourceStrategy 返回候选的来源策略（collaborative / content / popularity / co_occurrence）。
func (it *Item) SourceStrategy() string {
	if it.Labels == nil {
		return ""
	}
	return it.Labels[LabelSourceStrategy].Value
}

// ClampScore 把任意原生分数截断到对外契约要求的 [0,1] 区间。
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
