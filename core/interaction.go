package core

import (
	"fmt"
	"time"
)

// InteractionType 是用户-物品交互事件的类型。
type InteractionType string

const (
	InteractionView   InteractionType = "view"
	InteractionLike   InteractionType = "like"
	InteractionSave   InteractionType = "save"
	InteractionCook   InteractionType = "cook"
	InteractionRating InteractionType = "rating"
	InteractionIgnore InteractionType = "ignore"
)

// ValidateInteraction 在写入边界校验交互类型与评分范围。
// 非法输入返回 INVALID_INPUT，任何写操作都不会发生。
func ValidateInteraction(typ InteractionType, rating float64) error {
	switch typ {
	case InteractionView, InteractionLike, InteractionSave,
		InteractionCook, InteractionRating, InteractionIgnore:
	default:
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("interaction: unknown type %q", typ))
	}
	if typ == InteractionRating && (rating < 0 || rating > 5) {
		return NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
			fmt.Sprintf("interaction: rating %.2f out of range [0,5]", rating))
	}
	return nil
}

// Interaction 是一条带时间戳的用户-物品事件。
// 同一 (user, item, type) 至多保留一条记录，重复写入原地更新时间戳/评分。
type Interaction struct {
	UserID    string
	ItemID    string
	Type      InteractionType
	Rating    float64 // 仅 Type == rating 时有意义，取值 0..5
	Timestamp time.Time
}

// WeightTable 把交互类型映射为行为权重；rating 类型的权重为 rating/5，
// 不走此表。不同组件使用不同的 view 权重（热度 0.2 / 协同 0.3）。
type WeightTable map[InteractionType]float64

// Weight 返回一条交互的行为权重。
func (w WeightTable) Weight(in Interaction) float64 {
	if in.Type == InteractionRating {
		return in.Rating / 5.0
	}
	return w[in.Type]
}

// PopularityWeights 返回热度统计的默认权重表。
func PopularityWeights() WeightTable {
	return WeightTable{
		InteractionCook: 1.0,
		InteractionSave: 0.8,
		InteractionLike: 0.6,
		InteractionView: 0.2,
	}
}

// AffinityWeights 返回邻居协同过滤的默认权重表（view 取 0.3 变体）。
func AffinityWeights() WeightTable {
	return WeightTable{
		InteractionCook: 1.0,
		InteractionSave: 0.8,
		InteractionLike: 0.6,
		InteractionView: 0.3,
	}
}

// IsPositive 判断交互是否为"正向"：like/save/cook，或评分 >= 3。
// 邻居协同过滤用它圈定 P(user)。
func (in Interaction) IsPositive() bool {
	switch in.Type {
	case InteractionLike, InteractionSave, InteractionCook:
		return true
	case InteractionRating:
		return in.Rating >= 3
	}
	return false
}

// IsTrainingPositive 判断交互是否为矩阵分解的训练正样本：
// like/save/cook，或评分 >= 4。
func (in Interaction) IsTrainingPositive() bool {
	switch in.Type {
	case InteractionLike, InteractionSave, InteractionCook:
		return true
	case InteractionRating:
		return in.Rating >= 4
	}
	return false
}

// TrainingValue 返回交互在评分矩阵中的观测值。
// 显式评分直接使用；隐式正反馈按强度映射到同一 0..5 量表。
func (in Interaction) TrainingValue() float64 {
	switch in.Type {
	case InteractionRating:
		return in.Rating
	case InteractionCook:
		return 5
	case InteractionSave:
		return 4
	case InteractionLike:
		return 3
	}
	return 0
}

// TimeWindow 是热度统计的时间窗口。
type TimeWindow string

const (
	WindowDay   TimeWindow = "day"
	WindowWeek  TimeWindow = "week"
	WindowMonth TimeWindow = "month"
)

// Duration 返回窗口对应的时间跨度；month 取 30 天。
func (w TimeWindow) Duration() (time.Duration, error) {
	switch w {
	case WindowDay:
		return 24 * time.Hour, nil
	case WindowWeek:
		return 7 * 24 * time.Hour, nil
	case WindowMonth:
		return 30 * 24 * time.Hour, nil
	}
	return 0, NewDomainError(ModuleEngine, ErrorCodeInvalidInput,
		fmt.Sprintf("time window %q not in {day, week, month}", w))
}
