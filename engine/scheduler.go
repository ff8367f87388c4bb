package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/mealrec/core"
)

// Task 是一个周期性后台任务。
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// TaskStatus 是任务的运行时状态快照。
type TaskStatus struct {
	Name        string
	Running     bool
	Runs        int
	LastStarted time.Time
	LastError   string

	// AvgDuration 最近至多 10 次运行的平均耗时
	AvgDuration time.Duration
}

type taskState struct {
	task      Task
	running   bool
	runs      int
	started   time.Time
	lastErr   string
	durations []time.Duration // 最近至多 10 次
}

// Scheduler 驱动周期性后台任务（模型重训、向量补齐等）。
// Stop 或上下文取消后不再发起新运行；进行中的运行收到取消信号。
type Scheduler struct {
	Logger zerolog.Logger

	mu     sync.Mutex
	states map[string]*taskState
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(logger zerolog.Logger) *Scheduler {
	return &Scheduler{
		Logger: logger,
		states: make(map[string]*taskState),
	}
}

// Register 注册一个任务；须在 Start 前完成。
func (s *Scheduler) Register(task Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[task.Name] = &taskState{task: task}
}

// Start 启动所有已注册任务的定时循环。
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	for _, st := range s.states {
		s.wg.Add(1)
		go s.loop(ctx, st.task)
	}
	s.mu.Unlock()
}

// Stop 停止调度并等待进行中的运行结束。
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

// Status 返回任务状态；不存在返回 nil。
func (s *Scheduler) Status(name string) *TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[name]
	if !ok {
		return nil
	}
	status := &TaskStatus{
		Name:        name,
		Running:     st.running,
		Runs:        st.runs,
		LastStarted: st.started,
		LastError:   st.lastErr,
	}
	if len(st.durations) > 0 {
		var sum time.Duration
		for _, d := range st.durations {
			sum += d
		}
		status.AvgDuration = sum / time.Duration(len(st.durations))
	}
	return status
}

func (s *Scheduler) loop(ctx context.Context, task Task) {
	defer s.wg.Done()

	ticker := time.NewTicker(task.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, task)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, task Task) {
	s.mu.Lock()
	st := s.states[task.Name]
	if st.running { // 上一轮还没结束，跳过本轮
		s.mu.Unlock()
		return
	}
	st.running = true
	st.started = time.Now()
	s.mu.Unlock()

	err := task.Run(ctx)
	elapsed := time.Since(st.started)

	s.mu.Lock()
	st.running = false
	st.runs++
	st.lastErr = ""
	if err != nil {
		st.lastErr = err.Error()
	}
	st.durations = append(st.durations, elapsed)
	if len(st.durations) > 10 {
		st.durations = st.durations[len(st.durations)-10:]
	}
	s.mu.Unlock()

	if err != nil {
		s.Logger.Warn().Str("task", task.Name).Dur("elapsed", elapsed).Err(err).Msg("engine: task failed")
		return
	}
	s.Logger.Info().Str("task", task.Name).Dur("elapsed", elapsed).Msg("engine: task finished")
}

// RetrainTask 周期性重训矩阵分解模型。
// 训练数据不足算正常情况，不计为任务失败。
func RetrainTask(e *Engine, modelName string, interval time.Duration) Task {
	return Task{
		Name:     "als_retrain",
		Interval: interval,
		Run: func(ctx context.Context) error {
			err := e.Publisher.Train(ctx, modelName)
			if core.IsInsufficientData(err) {
				return nil
			}
			return err
		},
	}
}

// BackfillTask 周期性为目录中缺向量的物品生成并持久化向量。
func BackfillTask(catalog core.ItemCatalog, store core.EmbeddingStore, provider core.EmbeddingProvider, interval time.Duration) Task {
	return Task{
		Name:     "embedding_backfill",
		Interval: interval,
		Run: func(ctx context.Context) error {
			infos, err := catalog.List(ctx, "")
			if err != nil {
				return err
			}
			ids := make([]string, 0, len(infos))
			byID := make(map[string]*core.ItemInfo, len(infos))
			for _, info := range infos {
				ids = append(ids, info.ID)
				byID[info.ID] = info
			}
			missing, err := store.MissingFrom(ctx, ids)
			if err != nil {
				return err
			}
			for _, id := range missing {
				if err := ctx.Err(); err != nil {
					return err
				}
				vec, err := provider.Embed(ctx, byID[id].EmbeddingText())
				if err != nil {
					return err
				}
				if err := store.Put(ctx, id, vec); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
