package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/mealrec/als"
	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/pipeline"
	"github.com/rushteam/mealrec/recall"
)

// Engine 是推荐系统的统一门面，聚合全部策略并对外提供操作入口。
//
// 错误边界：只有契约违反（非法参数）和基础设施故障才会从这里
// 返回错误；策略层面的"没有结果"一律以空列表表达。
type Engine struct {
	Affinity   *recall.UserAffinityModel
	Content    *recall.ContentSimilarityRanker
	Popularity *recall.PopularityAggregator
	Publisher  *als.Publisher
	Log        core.InteractionLog
	Logger     zerolog.Logger

	// Blender 混合融合器；为空时首次使用按引擎字段构造
	Blender *Blender

	// Post 各模式共用的后处理链（过滤/排序/截断）；可为空
	Post *pipeline.Pipeline
}

func (e *Engine) blender() *Blender {
	if e.Blender == nil {
		e.Blender = &Blender{
			Affinity:   e.Affinity,
			Content:    e.Content,
			Popularity: e.Popularity,
			Publisher:  e.Publisher,
			Log:        e.Log,
			Logger:     e.Logger,
		}
	}
	return e.Blender
}

// GetRecommendations 按请求模式产出推荐列表。
// hybrid 走三路融合；单策略模式只跑对应一路，其语义与融合内
// 该路完全一致（同一份代码路径）。
func (e *Engine) GetRecommendations(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if err := rctx.Validate(); err != nil {
		return nil, err
	}

	var (
		items []*core.Item
		err   error
	)
	b := e.blender()
	switch rctx.Mode {
	case core.ModeHybrid:
		items, err = b.Blend(ctx, rctx)
	case core.ModeCollaborative:
		items, err = b.collaborative(ctx, rctx, rctx.Limit)
	case core.ModeContent:
		items, err = b.contentCandidates(ctx, rctx, rctx.Limit)
	case core.ModePopularity:
		items, err = e.Popularity.Aggregate(ctx, b.popularityWindow(), rctx.Filters, rctx.Limit)
	}
	if err != nil {
		return nil, err
	}

	if e.Post != nil {
		items, err = e.Post.Run(ctx, rctx, items)
		if err != nil {
			return nil, err
		}
	}
	if len(items) > rctx.Limit {
		items = items[:rctx.Limit]
	}
	return items, nil
}

// GetSimilar 按指定方法检索相似物品，结果绝不包含 itemID 本身。
// 能力经类型断言探测：不支持该方法的策略不会被调用。
func (e *Engine) GetSimilar(ctx context.Context, itemID, method string, limit int) ([]*core.Item, error) {
	if itemID == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "item id is empty")
	}
	if limit <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("limit %d must be positive", limit))
	}

	for _, source := range e.similaritySources() {
		for _, m := range source.SimilarMethods() {
			if m == method {
				return source.Similar(ctx, itemID, method, limit)
			}
		}
	}
	return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
		fmt.Sprintf("similarity method %q not in {%s}", method, strings.Join(e.SimilarMethods(), ", ")))
}

// SimilarMethods 返回当前装配下可用的相似度方法。
func (e *Engine) SimilarMethods() []string {
	var out []string
	for _, source := range e.similaritySources() {
		out = append(out, source.SimilarMethods()...)
	}
	return out
}

func (e *Engine) similaritySources() []recall.SimilarityCapable {
	var out []recall.SimilarityCapable
	if e.Content != nil {
		out = append(out, e.Content)
	}
	if e.Affinity != nil {
		out = append(out, e.Affinity)
	}
	return out
}

// GetTrending 返回时间窗口内的热门物品。
func (e *Engine) GetTrending(ctx context.Context, window core.TimeWindow, filters *core.Filters, limit int) ([]*core.Item, error) {
	if limit <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("limit %d must be positive", limit))
	}
	var trending recall.TrendingCapable = e.Popularity
	return trending.Trending(ctx, window, filters, limit)
}

// SearchByText 语义检索：按查询文本匹配物品，过滤约束硬性生效。
func (e *Engine) SearchByText(ctx context.Context, query string, limit int, filters *core.Filters) ([]*core.Item, error) {
	if query == "" {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "query is empty")
	}
	if limit <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("limit %d must be positive", limit))
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	return e.Content.SearchByText(ctx, query, limit, filters)
}

// RecordInteraction 记录一条交互。非法输入先报错，不发生任何写入。
func (e *Engine) RecordInteraction(ctx context.Context, in core.Interaction) error {
	if in.UserID == "" || in.ItemID == "" {
		return core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			"interaction: user id and item id are required")
	}
	if err := core.ValidateInteraction(in.Type, in.Rating); err != nil {
		return err
	}
	return e.Log.Append(ctx, in)
}

// TrainModel 启动一次后台矩阵分解训练并返回任务句柄。
func (e *Engine) TrainModel(ctx context.Context, modelName string) (*als.TrainingJob, error) {
	if e.Publisher == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported,
			"matrix factorization is not configured")
	}
	if modelName == "" {
		modelName = "default"
	}
	return e.Publisher.TrainAsync(ctx, modelName), nil
}

// TrainingStatus 查询训练任务状态；任务不存在返回 NOT_FOUND。
func (e *Engine) TrainingStatus(jobID string) (*als.TrainingJob, error) {
	if e.Publisher == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotSupported,
			"matrix factorization is not configured")
	}
	job := e.Publisher.Job(jobID)
	if job == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound,
			fmt.Sprintf("training job %q not found", jobID))
	}
	return job, nil
}
