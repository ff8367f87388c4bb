package filter

import (
	"context"
	"sync"

	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pkg/dsl"
)

// AttributeFilter 按请求的属性约束（菜系/饮食限制/时长/热量）过滤候选。
// 约束是硬性 AND 谓词：目录里查不到的候选无法证明满足约束，一并剔除。
type AttributeFilter struct {
	Catalog core.ItemCatalog

	mu    sync.Mutex
	pred  *dsl.Predicate
	built *core.Filters
}

func (f *AttributeFilter) Name() string {
	return "filter.attribute"
}

func (f *AttributeFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.Filters.IsZero() {
		return false, nil
	}
	if f.Catalog == nil {
		return true, nil
	}

	pred, err := f.predicate(rctx.Filters)
	if err != nil {
		return false, err
	}

	info, err := f.Catalog.Resolve(ctx, item.ID)
	if err != nil {
		if core.IsNotFound(err) {
			return true, nil
		}
		return false, err
	}
	ok, err := pred.Match(info)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (f *AttributeFilter) predicate(filters *core.Filters) (*dsl.Predicate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pred != nil && f.built == filters {
		return f.pred, nil
	}
	pred, err := dsl.NewPredicate(filters)
	if err != nil {
		return nil, err
	}
	f.pred = pred
	f.built = filters
	return pred, nil
}

var _ Filter = (*AttributeFilter)(nil)
