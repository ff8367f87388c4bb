// Package mealrec 是一个菜谱推荐引擎（Meal Recommender）。
//
// 设计要点：
//   - 策略即 Source: 协同过滤 / 内容相似 / 热度统计都是 recall.Source，
//     可单独使用，也可经 engine 做三路加权融合
//   - 故障隔离: 单路策略失败只损失该路候选，不放大为请求失败
//   - 确定性: 同一份数据在任何进程产出同一排序（同分按物品 ID 裁决）
//   - Labels-first: source_strategy 标签全链路透传，支持 explain / 观测
package mealrec

import "github.com/rushteam/mealrec/pipeline"

// 轻量 facade：便于用户直接 import "mealrec" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
