package rerank

import (
	"context"
	"sort"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pipeline"
)

// ScoreSortNode 按得分降序排序，同分按物品 ID 升序。
// 同一份输入在任何进程/任何时刻都产出同一顺序。
type ScoreSortNode struct{}

func (n *ScoreSortNode) Name() string {
	return "rerank.score_sort"
}

func (n *ScoreSortNode) Kind() pipeline.Kind {
	return pipeline.KindRank
}

func (n *ScoreSortNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

var _ pipeline.Node = (*ScoreSortNode)(nil)
