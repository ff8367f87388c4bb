package filter

import (
	"context"

	"github.com/rushteam/mealrec/core"
)

// ContentTypeFilter 按请求的内容类型（recipe / article / video）过滤候选。
// 候选未携带类型时经目录补齐；目录也查不到的候选保留，由后续节点裁决。
type ContentTypeFilter struct {
	Catalog core.ItemCatalog
}

func (f *ContentTypeFilter) Name() string {
	return "filter.content_type"
}

func (f *ContentTypeFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.ContentType == "" {
		return false, nil
	}

	contentType := item.ContentType
	if contentType == "" && f.Catalog != nil {
		if info, err := f.Catalog.Resolve(ctx, item.ID); err == nil {
			contentType = info.ContentType
			item.ContentType = info.ContentType
			item.Title = info.Title
		}
	}
	if contentType == "" {
		return false, nil
	}
	return contentType != rctx.ContentType, nil
}

var _ Filter = (*ContentTypeFilter)(nil)
