package als

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/mealrec/core"
)

// MinTrainingPositives 是启动训练所需的最少正样本数。
const MinTrainingPositives = 10

// Trainer 用交替最小二乘（ALS）分解用户-物品评分矩阵。
//
// 训练样本：正向交互（like/save/cook 或评分 >= 4）映射到 0..5 量表，
// 同一 (user, item) 取观测值最大的一条。每轮迭代固定一侧因子，
// 对另一侧逐行解岭回归，再交换方向。
type Trainer struct {
	Log    core.InteractionLog
	Logger zerolog.Logger

	// Rank 隐因子维数；默认 50
	Rank int

	// Lambda 正则系数；默认 0.1
	Lambda float64

	// Iterations 迭代轮数；默认 20
	Iterations int

	// Seed 因子初始化的随机种子；0 时按当前时间取种
	Seed int64
}

func (t *Trainer) rank() int {
	if t.Rank > 0 {
		return t.Rank
	}
	return 50
}

func (t *Trainer) lambda() float64 {
	if t.Lambda > 0 {
		return t.Lambda
	}
	return 0.1
}

func (t *Trainer) iterations() int {
	if t.Iterations > 0 {
		return t.Iterations
	}
	return 20
}

type observation struct {
	user  int
	item  int
	value float64
}

// Train 从交互日志构建评分矩阵并训练一个新快照。
// 正样本不足 MinTrainingPositives 时返回 INSUFFICIENT_DATA，不产出模型。
func (t *Trainer) Train(ctx context.Context, name string) (*LatentFactorModel, error) {
	interactions, err := t.Log.All(ctx)
	if err != nil {
		return nil, err
	}

	// 同一 (user, item) 取观测值最大的一条
	type cell struct{ user, item string }
	values := make(map[cell]float64)
	for _, in := range interactions {
		if !in.IsTrainingPositive() {
			continue
		}
		c := cell{user: in.UserID, item: in.ItemID}
		if v := in.TrainingValue(); v > values[c] {
			values[c] = v
		}
	}
	if len(values) < MinTrainingPositives {
		return nil, core.NewDomainError(core.ModuleALS, core.ErrorCodeInsufficientData,
			fmt.Sprintf("als: %d positive observations, need %d", len(values), MinTrainingPositives))
	}

	userSet := make(map[string]struct{})
	itemSet := make(map[string]struct{})
	for c := range values {
		userSet[c.user] = struct{}{}
		itemSet[c.item] = struct{}{}
	}
	users := sortedKeys(userSet)
	items := sortedKeys(itemSet)
	userIndex := indexOf(users)
	itemIndex := indexOf(items)

	obs := make([]observation, 0, len(values))
	var sum float64
	for c, v := range values {
		obs = append(obs, observation{user: userIndex[c.user], item: itemIndex[c.item], value: v})
		sum += v
	}
	sort.Slice(obs, func(i, j int) bool {
		if obs[i].user != obs[j].user {
			return obs[i].user < obs[j].user
		}
		return obs[i].item < obs[j].item
	})
	globalMean := sum / float64(len(obs))

	rank := t.rank()
	lambda := t.lambda()
	seed := t.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	userFactors := randomFactors(rng, len(users), rank)
	itemFactors := randomFactors(rng, len(items), rank)

	byUser := groupBy(obs, func(o observation) int { return o.user }, len(users))
	byItem := groupBy(obs, func(o observation) int { return o.item }, len(items))

	t.Logger.Info().
		Str("model", name).
		Int("users", len(users)).
		Int("items", len(items)).
		Int("observations", len(obs)).
		Int("rank", rank).
		Float64("lambda", lambda).
		Msg("als: training started")

	for iter := 1; iter <= t.iterations(); iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		solveSide(byUser, userFactors, itemFactors, lambda, rank,
			func(o observation) int { return o.item })
		solveSide(byItem, itemFactors, userFactors, lambda, rank,
			func(o observation) int { return o.user })

		rmse := rootMeanSquaredError(obs, userFactors, itemFactors)
		t.Logger.Info().
			Str("model", name).
			Int("iteration", iter).
			Float64("rmse", rmse).
			Msg("als: iteration finished")
	}

	return &LatentFactorModel{
		Name:        name,
		CreatedAt:   time.Now(),
		Rank:        rank,
		Lambda:      lambda,
		GlobalMean:  globalMean,
		Users:       users,
		Items:       items,
		UserIndex:   userIndex,
		ItemIndex:   itemIndex,
		UserFactors: userFactors,
		ItemFactors: itemFactors,
	}, nil
}

// solveSide 固定 fixed 一侧，对 target 一侧逐行解岭回归
// (FᵗF + λI)x = Fᵗr，F 是该行观测到的 fixed 因子子矩阵。
func solveSide(rows [][]observation, target, fixed [][]float64, lambda float64, rank int, other func(observation) int) {
	a := make([][]float64, rank)
	for i := range a {
		a[i] = make([]float64, rank)
	}
	b := make([]float64, rank)

	for row, rowObs := range rows {
		if len(rowObs) == 0 {
			continue
		}
		for i := 0; i < rank; i++ {
			for j := 0; j < rank; j++ {
				a[i][j] = 0
			}
			a[i][i] = lambda
			b[i] = 0
		}
		for _, o := range rowObs {
			f := fixed[other(o)]
			for i := 0; i < rank; i++ {
				for j := 0; j < rank; j++ {
					a[i][j] += f[i] * f[j]
				}
				b[i] += f[i] * o.value
			}
		}
		solveLinear(a, b, target[row])
	}
}

// solveLinear 解 Ax = b，高斯消元 + 部分选主元，结果写入 x。
// A 和 b 会被原地修改。
func solveLinear(a [][]float64, b []float64, x []float64) {
	n := len(b)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		// λ > 0 时矩阵正定，主元非零
		if a[col][col] == 0 {
			continue
		}
		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			if factor == 0 {
				continue
			}
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}
	for row := n - 1; row >= 0; row-- {
		s := b[row]
		for k := row + 1; k < n; k++ {
			s -= a[row][k] * x[k]
		}
		if a[row][row] != 0 {
			x[row] = s / a[row][row]
		} else {
			x[row] = 0
		}
	}
}

func rootMeanSquaredError(obs []observation, userFactors, itemFactors [][]float64) float64 {
	var sq float64
	for _, o := range obs {
		diff := dot(userFactors[o.user], itemFactors[o.item]) - o.value
		sq += diff * diff
	}
	return math.Sqrt(sq / float64(len(obs)))
}

func randomFactors(rng *rand.Rand, rows, rank int) [][]float64 {
	out := make([][]float64, rows)
	for i := range out {
		v := make([]float64, rank)
		for j := range v {
			v[j] = rng.NormFloat64() * 0.1
		}
		out[i] = v
	}
	return out
}

func groupBy(obs []observation, key func(observation) int, n int) [][]observation {
	out := make([][]observation, n)
	for _, o := range obs {
		k := key(o)
		out[k] = append(out[k], o)
	}
	return out
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(keys []string) map[string]int {
	out := make(map[string]int, len(keys))
	for i, k := range keys {
		out[k] = i
	}
	return out
}
