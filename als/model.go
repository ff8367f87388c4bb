package als

import (
	"fmt"
	"sort"
	"time"

	"github.com/rushteam/mealrec/core"
)

// LatentFactorModel 是一次训练产出的不可变快照。
// 发布后任何字段都不允许修改；新训练产生新快照整体替换（见 Publisher）。
type LatentFactorModel struct {
	Name      string
	CreatedAt time.Time

	// Rank 隐因子维数，Lambda 正则系数，GlobalMean 观测值均值
	Rank       int
	Lambda     float64
	GlobalMean float64

	// Users / Items 按索引序排列；UserIndex / ItemIndex 反查
	Users []string
	Items []string

	UserIndex map[string]int
	ItemIndex map[string]int

	// UserFactors[u] 与 ItemFactors[i] 均为 Rank 维向量
	UserFactors [][]float64
	ItemFactors [][]float64
}

// Predict 预测用户对物品的评分（0..5 量表的内积）。
// 用户或物品不在训练集时返回 UNKNOWN_ENTITY，调用方回退到其他策略。
func (m *LatentFactorModel) Predict(userID, itemID string) (float64, error) {
	ui, ok := m.UserIndex[userID]
	if !ok {
		return 0, core.NewDomainError(core.ModuleALS, core.ErrorCodeUnknownEntity,
			fmt.Sprintf("als: user %q not in model %s", userID, m.Name))
	}
	ii, ok := m.ItemIndex[itemID]
	if !ok {
		return 0, core.NewDomainError(core.ModuleALS, core.ErrorCodeUnknownEntity,
			fmt.Sprintf("als: item %q not in model %s", itemID, m.Name))
	}
	return dot(m.UserFactors[ui], m.ItemFactors[ii]), nil
}

// ScoredItem 是模型打分后的一个物品。
type ScoredItem struct {
	ItemID string
	Score  float64
}

// TopKForUser 返回用户预测分最高的 k 个物品，exclude 中的物品剔除。
// 排序：预测分降序 → 物品 ID 升序。用户不在训练集返回 UNKNOWN_ENTITY。
func (m *LatentFactorModel) TopKForUser(userID string, k int, exclude map[string]struct{}) ([]ScoredItem, error) {
	ui, ok := m.UserIndex[userID]
	if !ok {
		return nil, core.NewDomainError(core.ModuleALS, core.ErrorCodeUnknownEntity,
			fmt.Sprintf("als: user %q not in model %s", userID, m.Name))
	}

	uv := m.UserFactors[ui]
	scored := make([]ScoredItem, 0, len(m.Items))
	for ii, itemID := range m.Items {
		if _, skip := exclude[itemID]; skip {
			continue
		}
		scored = append(scored, ScoredItem{ItemID: itemID, Score: dot(uv, m.ItemFactors[ii])})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ItemID < scored[j].ItemID
	})
	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
