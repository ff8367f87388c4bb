package filter

import (
	"context"

	"github.com/rushteam/mealrec/core"
)

// InteractedFilter 过滤掉用户已经交互过的物品，避免重复推荐。
// 同一次请求内只读一次交互日志，结果缓存在请求上下文的 Params 里。
type InteractedFilter struct {
	Log core.InteractionLog
}

const interactedCacheKey = "_interacted_items"

func (f *InteractedFilter) Name() string {
	return "filter.interacted"
}

func (f *InteractedFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.UserID == "" || f.Log == nil {
		return false, nil
	}

	seen, err := f.interacted(ctx, rctx)
	if err != nil {
		return false, err
	}
	_, ok := seen[item.ID]
	return ok, nil
}

func (f *InteractedFilter) interacted(ctx context.Context, rctx *core.RecommendContext) (map[string]struct{}, error) {
	if rctx.Params != nil {
		if cached, ok := rctx.Params[interactedCacheKey].(map[string]struct{}); ok {
			return cached, nil
		}
	}

	interactions, err := f.Log.UserInteractions(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(interactions))
	for _, in := range interactions {
		seen[in.ItemID] = struct{}{}
	}

	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[interactedCacheKey] = seen
	return seen, nil
}

var _ Filter = (*InteractedFilter)(nil)
