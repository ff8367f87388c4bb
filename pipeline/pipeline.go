package pipeline

import (
	"context"

	"github.com/rushteam/mealrec/core"
)

// Pipeline 把单个策略的推荐逻辑拆成可组合的 Node 链。
// 混合融合（多策略并发 + 加权合并）在 engine 包，不走 Pipeline。
type Pipeline struct {
	Nodes []Node
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, err
		}
		cur = next
	}
	return cur, nil
}
