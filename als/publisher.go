package als

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// 训练任务状态
const (
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// TrainingJob 是一次异步训练的句柄。
type TrainingJob struct {
	ID         string
	ModelName  string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Publisher 持有当前生效的模型快照并驱动异步训练。
//
// 快照语义：
//   - Current 读到的永远是一个完整的、训练成功的模型，或 nil
//   - 训练成功时整体替换快照；失败（含数据不足）时旧快照原样保留
//   - 替换用 atomic.Pointer 完成，读方无锁
type Publisher struct {
	Trainer *Trainer
	Logger  zerolog.Logger

	current atomic.Pointer[LatentFactorModel]

	mu   sync.Mutex
	jobs map[string]*TrainingJob
}

func NewPublisher(trainer *Trainer, logger zerolog.Logger) *Publisher {
	return &Publisher{
		Trainer: trainer,
		Logger:  logger,
		jobs:    make(map[string]*TrainingJob),
	}
}

// Current 返回当前生效的模型快照；尚未训练成功过时为 nil。
func (p *Publisher) Current() *LatentFactorModel {
	return p.current.Load()
}

// Job 按 ID 查询训练任务；不存在返回 nil。
func (p *Publisher) Job(jobID string) *TrainingJob {
	p.mu.Lock()
	defer p.mu.Unlock()

	job, ok := p.jobs[jobID]
	if !ok {
		return nil
	}
	copied := *job
	return &copied
}

// TrainAsync 启动一次后台训练并立即返回任务句柄。
// 同一 Publisher 上并发训练按完成顺序发布，后发布者生效。
// 训练脱离调用方上下文执行：发起请求结束或取消不影响训练。
func (p *Publisher) TrainAsync(ctx context.Context, modelName string) *TrainingJob {
	job := &TrainingJob{
		ID:        uuid.NewString(),
		ModelName: modelName,
		Status:    JobStatusRunning,
		StartedAt: time.Now(),
	}
	p.mu.Lock()
	p.jobs[job.ID] = job
	p.mu.Unlock()

	bgctx := context.WithoutCancel(ctx)
	go func() {
		err := p.Train(bgctx, modelName)

		p.mu.Lock()
		defer p.mu.Unlock()
		job.FinishedAt = time.Now()
		if err != nil {
			job.Status = JobStatusFailed
			job.Error = err.Error()
			return
		}
		job.Status = JobStatusSucceeded
	}()
	return job
}

// Train 同步训练一次。成功时发布新快照；失败时返回错误且旧快照保留。
func (p *Publisher) Train(ctx context.Context, modelName string) error {
	model, err := p.Trainer.Train(ctx, modelName)
	if err != nil {
		p.Logger.Warn().
			Str("model", modelName).
			Err(err).
			Msg("als: training failed, keeping previous snapshot")
		return err
	}
	p.current.Store(model)
	p.Logger.Info().
		Str("model", modelName).
		Int("users", len(model.Users)).
		Int("items", len(model.Items)).
		Msg("als: snapshot published")
	return nil
}
