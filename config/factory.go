package config

import (
	"github.com/rs/zerolog"

	"github.com/rushteam/mealrec/als"
	"github.com/rushteam/mealrec/core"
	"github.com/rushteam/mealrec/engine"
	"github.com/rushteam/mealrec/filter"
	"github.com/rushteam/mealrec/pipeline"
	"github.com/rushteam/mealrec/recall"
	"github.com/rushteam/mealrec/rerank"
	"github.com/rushteam/mealrec/store"
)

// BuildEngine 按配置装配一个完整的推荐引擎。
// redis.addr 非空时交互日志与热度缓存走 Redis，否则用内存存储；
// 向量生成器与物品目录是外部协作方，由调用方注入。
func BuildEngine(cfg *Config, provider core.EmbeddingProvider, catalog core.ItemCatalog, logger zerolog.Logger) (*engine.Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var kv core.KeyValueStore
	if cfg.Redis.Addr != "" {
		rs, err := store.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		kv = rs
	} else {
		kv = store.NewMemoryStore()
	}
	log := store.NewKVInteractionLog(kv)
	vectors := store.NewMemoryEmbeddingStore()

	affinity := &recall.UserAffinityModel{
		Log:            log,
		MinCommonItems: cfg.Affinity.MinCommonItems,
		MaxNeighbors:   cfg.Affinity.MaxNeighbors,
	}
	content := &recall.ContentSimilarityRanker{
		Provider:            provider,
		Store:               vectors,
		Catalog:             catalog,
		MinSimilarity:       cfg.Content.MinSimilarity,
		MinCommonAttributes: cfg.Content.MinCommonAttributes,
	}
	popularity := &recall.PopularityAggregator{
		Log:           log,
		Catalog:       catalog,
		DefaultWindow: core.TimeWindow(cfg.Popularity.DefaultWindow),
		Cache:         kv,
		CacheTTL:      cfg.Popularity.CacheTTL,
	}

	trainer := &als.Trainer{
		Log:        log,
		Logger:     logger,
		Rank:       cfg.ALS.Rank,
		Lambda:     cfg.ALS.Lambda,
		Iterations: cfg.ALS.Iterations,
	}

	post := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&filter.FilterNode{Filters: []filter.Filter{
				&filter.InteractedFilter{Log: log},
				&filter.ContentTypeFilter{Catalog: catalog},
				&filter.AttributeFilter{Catalog: catalog},
			}},
			&rerank.ScoreSortNode{},
		},
	}

	e := &engine.Engine{
		Affinity:   affinity,
		Content:    content,
		Popularity: popularity,
		Publisher:  als.NewPublisher(trainer, logger),
		Log:        log,
		Logger:     logger,
		Post:       post,
	}
	e.Blender = &engine.Blender{
		Affinity:        affinity,
		Content:         content,
		Popularity:      popularity,
		Publisher:       e.Publisher,
		Log:             log,
		Logger:          logger,
		StrategyTimeout: cfg.Blend.StrategyTimeout.Std(),
	}
	return e, nil
}

// BuildScheduler 按配置装配后台任务调度器（模型重训 + 向量补齐）。
// 补齐任务直接复用引擎内容路持有的目录、向量库与向量生成器，
// 保证后台写入的就是在线检索读到的那一份。
func BuildScheduler(cfg *Config, e *engine.Engine, logger zerolog.Logger) *engine.Scheduler {
	s := engine.NewScheduler(logger)
	s.Register(engine.RetrainTask(e, cfg.ALS.ModelName, cfg.Scheduler.RetrainInterval.Std()))
	s.Register(engine.BackfillTask(e.Content.Catalog, e.Content.Store, e.Content.Provider, cfg.Scheduler.BackfillInterval.Std()))
	return s
}
