package core

import "fmt"

// CalorieRange 是热量过滤的闭区间；Max 为 0 表示不设上限。
type CalorieRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Filters 是贯穿各层的封闭过滤配置。
//
// 设计要点：
//   - 字段封闭、强类型，在边界校验一次后各层直接透传
//   - 过滤永远是硬性 AND 谓词，从不作为软加权
//   - 谓词求值见 pkg/dsl：编译一次的 CEL 程序，过滤值作为
//     求值输入传入，绝不拼接进表达式文本
type Filters struct {
	Cuisine            string        `yaml:"cuisine"`
	DietaryRestriction string        `yaml:"dietary_restriction"`
	MaxTimeMinutes     int           `yaml:"max_time_minutes"`
	CalorieRange       *CalorieRange `yaml:"calorie_range"`
}

// IsZero 判断是否为空过滤（不剔除任何物品）。
func (f *Filters) IsZero() bool {
	if f == nil {
		return true
	}
	return f.Cuisine == "" && f.DietaryRestriction == "" &&
		f.MaxTimeMinutes == 0 && f.CalorieRange == nil
}

// Validate 在边界校验一次；通过后各层不再重复检查。
func (f *Filters) Validate() error {
	if f == nil {
		return nil
	}
	if f.MaxTimeMinutes < 0 {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("filters: max_time_minutes %d is negative", f.MaxTimeMinutes))
	}
	if cr := f.CalorieRange; cr != nil {
		if cr.Min < 0 {
			return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
				fmt.Sprintf("filters: calorie min %d is negative", cr.Min))
		}
		if cr.Max != 0 && cr.Max < cr.Min {
			return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
				fmt.Sprintf("filters: calorie range [%d,%d] inverted", cr.Min, cr.Max))
		}
	}
	return nil
}
