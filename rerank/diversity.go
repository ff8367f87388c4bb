package rerank

import (
	"context"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pipeline"
)

// CuisineDiversity 是多样性 ReRank 节点：限制单一菜系在结果中的数量，
// 避免热门菜系刷屏。保留顺序不变，超出配额的物品剔除。
type CuisineDiversity struct {
	Catalog core.ItemCatalog

	// MaxPerCuisine 每个菜系最多保留的物品数；默认 3
	MaxPerCuisine int
}

func (n *CuisineDiversity) Name() string {
	return "rerank.cuisine_diversity"
}

func (n *CuisineDiversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *CuisineDiversity) Process(
	ctx context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || n.Catalog == nil {
		return items, nil
	}
	maxPer := n.MaxPerCuisine
	if maxPer <= 0 {
		maxPer = 3
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		cuisine := ""
		if info, err := n.Catalog.Resolve(ctx, it.ID); err == nil {
			cuisine = info.Cuisine
		}
		// 菜系未知的物品不占配额
		if cuisine == "" {
			out = append(out, it)
			continue
		}
		if counts[cuisine] >= maxPer {
			continue
		}
		counts[cuisine]++
		out = append(out, it)
	}
	return out, nil
}

var _ pipeline.Node = (*CuisineDiversity)(nil)
