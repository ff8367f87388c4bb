package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration 是支持 "500ms" / "6h" 字面量的时长字段。
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config 是引擎装配的配置结构（YAML）。
type Config struct {
	// Blend 融合权重与单路策略超时
	Blend BlendConfig `yaml:"blend"`

	// ALS 矩阵分解超参数
	ALS ALSConfig `yaml:"als"`

	// Popularity 热度统计配置
	Popularity PopularityConfig `yaml:"popularity"`

	// Affinity 邻居协同过滤配置
	Affinity AffinityConfig `yaml:"affinity"`

	// Content 内容相似配置
	Content ContentConfig `yaml:"content"`

	// Redis 为空时使用内存存储
	Redis RedisConfig `yaml:"redis"`

	// Scheduler 后台任务周期
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type BlendConfig struct {
	StrategyTimeout Duration `yaml:"strategy_timeout"`
}

type ALSConfig struct {
	Rank       int     `yaml:"rank"`
	Lambda     float64 `yaml:"lambda"`
	Iterations int     `yaml:"iterations"`
	ModelName  string  `yaml:"model_name"`
}

type PopularityConfig struct {
	DefaultWindow string `yaml:"default_window"`
	CacheTTL      int    `yaml:"cache_ttl"`
}

type AffinityConfig struct {
	MinCommonItems int `yaml:"min_common_items"`
	MaxNeighbors   int `yaml:"max_neighbors"`
}

type ContentConfig struct {
	MinSimilarity       float64 `yaml:"min_similarity"`
	MinCommonAttributes int     `yaml:"min_common_attributes"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SchedulerConfig struct {
	RetrainInterval  Duration `yaml:"retrain_interval"`
	BackfillInterval Duration `yaml:"backfill_interval"`
}

// Default 返回带默认值的配置。
func Default() *Config {
	return &Config{
		Blend: BlendConfig{StrategyTimeout: Duration(2 * time.Second)},
		ALS: ALSConfig{
			Rank:       50,
			Lambda:     0.1,
			Iterations: 20,
			ModelName:  "default",
		},
		Popularity: PopularityConfig{DefaultWindow: "week", CacheTTL: 60},
		Affinity:   AffinityConfig{MinCommonItems: 2, MaxNeighbors: 10},
		Content:    ContentConfig{MinSimilarity: 0.6, MinCommonAttributes: 2},
		Scheduler: SchedulerConfig{
			RetrainInterval:  Duration(6 * time.Hour),
			BackfillInterval: Duration(time.Hour),
		},
	}
}

// Load 从 YAML 文件加载配置，未设置的字段落回默认值。
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 检查配置的取值范围。
func (c *Config) Validate() error {
	if c.ALS.Rank <= 0 {
		return fmt.Errorf("als.rank %d must be positive", c.ALS.Rank)
	}
	if c.ALS.Lambda <= 0 {
		return fmt.Errorf("als.lambda %f must be positive", c.ALS.Lambda)
	}
	if c.ALS.Iterations <= 0 {
		return fmt.Errorf("als.iterations %d must be positive", c.ALS.Iterations)
	}
	switch c.Popularity.DefaultWindow {
	case "day", "week", "month":
	default:
		return fmt.Errorf("popularity.default_window %q not in {day, week, month}", c.Popularity.DefaultWindow)
	}
	if c.Content.MinSimilarity < 0 || c.Content.MinSimilarity > 1 {
		return fmt.Errorf("content.min_similarity %f out of range [0,1]", c.Content.MinSimilarity)
	}
	if c.Affinity.MinCommonItems <= 0 {
		return fmt.Errorf("affinity.min_common_items %d must be positive", c.Affinity.MinCommonItems)
	}
	return nil
}
