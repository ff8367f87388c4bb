package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/mealrec/core"
)

// filterExpr 是属性过滤的固定 CEL 表达式。
//
// 设计要点：
//   - 表达式是常量，进程内只编译一次；过滤值与物品属性都作为
//     求值输入传入，外部输入绝不拼接进表达式文本
//   - 过滤是硬性 AND：属性未知（取 0）的物品不通过时间/热量约束
//   - 约束未设置（空串/0）时对应子句恒真
const filterExpr = `
(f.cuisine == "" || item.cuisine == f.cuisine) &&
(f.dietary == "" || f.dietary in item.dietary_tags) &&
(f.max_time == 0 || (item.time_minutes > 0 && item.time_minutes <= f.max_time)) &&
(f.cal_min == 0 || item.calories >= f.cal_min) &&
(f.cal_max == 0 || (item.calories > 0 && item.calories <= f.cal_max))
`

var (
	filterPrg     cel.Program
	filterPrgErr  error
	filterPrgOnce sync.Once
)

func compileFilterProgram() (cel.Program, error) {
	filterPrgOnce.Do(func() {
		env, err := cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("f", cel.DynType),
		)
		if err != nil {
			filterPrgErr = err
			return
		}
		ast, issues := env.Compile(filterExpr)
		if issues != nil && issues.Err() != nil {
			filterPrgErr = fmt.Errorf("compile error: %v", issues.Err())
			return
		}
		filterPrg, filterPrgErr = env.Program(ast)
	})
	return filterPrg, filterPrgErr
}

// Predicate 是封闭过滤配置编译出的硬性谓词。
type Predicate struct {
	prg   cel.Program
	input map[string]any // 过滤值侧的求值输入，构造时定型
}

// NewPredicate 从封闭的 Filters 构建谓词。
// f 为空过滤时返回的谓词恒真。
func NewPredicate(f *core.Filters) (*Predicate, error) {
	if f.IsZero() {
		return &Predicate{}, nil
	}
	prg, err := compileFilterProgram()
	if err != nil {
		return nil, err
	}
	var calMin, calMax int64
	if f.CalorieRange != nil {
		calMin = int64(f.CalorieRange.Min)
		calMax = int64(f.CalorieRange.Max)
	}
	return &Predicate{
		prg: prg,
		input: map[string]any{
			"cuisine":  f.Cuisine,
			"dietary":  f.DietaryRestriction,
			"max_time": int64(f.MaxTimeMinutes),
			"cal_min":  calMin,
			"cal_max":  calMax,
		},
	}, nil
}

// Match 判断物品是否通过全部过滤约束。
func (p *Predicate) Match(info *core.ItemInfo) (bool, error) {
	if p.prg == nil { // 空过滤
		return true, nil
	}
	if info == nil {
		return false, nil
	}
	tags := info.DietaryTags
	if tags == nil {
		tags = []string{}
	}
	out, _, err := p.prg.Eval(map[string]any{
		"f": p.input,
		"item": map[string]any{
			"cuisine":      info.Cuisine,
			"dietary_tags": tags,
			"time_minutes": int64(info.TimeMinutes),
			"calories":     int64(info.Calories),
		},
	})
	if err != nil {
		return false, fmt.Errorf("eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("predicate must return boolean, got %T", out.Value())
	}
	return result, nil
}
