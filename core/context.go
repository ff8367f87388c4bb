package core

import "fmt"

// Mode 是推荐请求的策略模式。
type Mode string

const (
	ModeHybrid        Mode = "hybrid"        // 三路融合（默认）
	ModeCollaborative Mode = "collaborative" // 仅邻居协同过滤
	ModeContent       Mode = "content"       // 仅内容相似
	ModePopularity    Mode = "popularity"    // 仅热度
)

// RecommendContext 承载一次推荐请求的全部输入，贯穿各策略透传。
// 请求之间无共享可变状态，可被任意数量的并发调用方安全使用。
type RecommendContext struct {
	UserID      string // 可为空：匿名请求退化为热度
	SeedItemID  string // 显式给定的相似检索种子；为空时取用户最近非 ignore 交互
	ContentType string // 可为空：不限类型
	Limit       int
	Mode        Mode
	Filters     *Filters

	// Params 请求级扩展参数（调试开关、实验桶等）
	Params map[string]any
}

// Validate 在服务入口做一次同步契约检查；只有契约违反才在
// 服务路径上报错，"没有结果"永远以空列表表达。
func (rctx *RecommendContext) Validate() error {
	if rctx == nil {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "recommend context is nil")
	}
	if rctx.Limit <= 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("limit %d must be positive", rctx.Limit))
	}
	switch rctx.Mode {
	case ModeHybrid, ModeCollaborative, ModeContent, ModePopularity:
	case "":
		rctx.Mode = ModeHybrid
	default:
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("mode %q not in {hybrid, collaborative, content, popularity}", rctx.Mode))
	}
	return rctx.Filters.Validate()
}
