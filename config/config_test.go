package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("默认配置应合法: %v", err)
	}
	if cfg.ALS.Rank != 50 || cfg.ALS.Lambda != 0.1 || cfg.ALS.Iterations != 20 {
		t.Errorf("ALS 默认超参数不对: %+v", cfg.ALS)
	}
	if cfg.Popularity.DefaultWindow != "week" {
		t.Errorf("默认窗口期望 week，实际 %q", cfg.Popularity.DefaultWindow)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mealrec.yaml")
	content := []byte(`
blend:
  strategy_timeout: 500ms
als:
  rank: 16
  iterations: 5
redis:
  addr: "127.0.0.1:6379"
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("写配置文件失败: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if cfg.Blend.StrategyTimeout.Std() != 500*time.Millisecond {
		t.Errorf("strategy_timeout 期望 500ms，实际 %v", cfg.Blend.StrategyTimeout)
	}
	if cfg.ALS.Rank != 16 || cfg.ALS.Iterations != 5 {
		t.Errorf("ALS 覆盖失败: %+v", cfg.ALS)
	}
	// 未设置的字段落回默认值
	if cfg.ALS.Lambda != 0.1 {
		t.Errorf("lambda 应保持默认 0.1，实际 %v", cfg.ALS.Lambda)
	}
	if cfg.Redis.Addr != "127.0.0.1:6379" {
		t.Errorf("redis.addr 期望 127.0.0.1:6379，实际 %q", cfg.Redis.Addr)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"负 rank", "als:\n  rank: -1\n"},
		{"未知窗口", "popularity:\n  default_window: year\n"},
		{"相似度越界", "content:\n  min_similarity: 1.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("写配置文件失败: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Error("非法配置应报错")
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/no/such/file.yaml"); err == nil {
		t.Error("文件缺失应报错")
	}
}
