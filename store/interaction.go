package store

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rushteam/mealrec/core"
)

// KVInteractionLog 是基于 core.KeyValueStore 的交互日志实现，
// 内存后端用于测试/原型，Redis 后端用于生产，行为一致。
//
// 存储布局（prefix 默认 "inter"）：
//   - hash  {prefix}:rec           field "user|item|type" → 交互记录 JSON
//   - zset  {prefix}:time          member 同上，score 为时间戳（秒）
//   - zset  {prefix}:user:{user}   member "item|type"，score 为时间戳
//   - zset  {prefix}:item:{item}   member 用户 ID，score 为时间戳
//
// ZAdd 对已有成员原地更新分数，天然满足"同一 (user, item, type)
// 至多一条记录，重复写入更新时间戳/评分"的约束。
// ID 中不允许出现 '|'（member 编码的分隔符）。
type KVInteractionLog struct {
	KV     core.KeyValueStore
	Prefix string

	// Now 可注入时钟，窗口查询用；默认 time.Now
	Now func() time.Time
}

func NewKVInteractionLog(kv core.KeyValueStore) *KVInteractionLog {
	return &KVInteractionLog{KV: kv, Prefix: "inter", Now: time.Now}
}

type interactionRecord struct {
	UserID    string  `json:"user_id"`
	ItemID    string  `json:"item_id"`
	Type      string  `json:"type"`
	Rating    float64 `json:"rating,omitempty"`
	Timestamp int64   `json:"ts"` // unix 秒
}

func (l *KVInteractionLog) Name() string {
	return "kv_interaction_log(" + l.KV.Name() + ")"
}

func (l *KVInteractionLog) prefix() string {
	if l.Prefix == "" {
		return "inter"
	}
	return l.Prefix
}

func (l *KVInteractionLog) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *KVInteractionLog) recKey() string          { return l.prefix() + ":rec" }
func (l *KVInteractionLog) timeKey() string         { return l.prefix() + ":time" }
func (l *KVInteractionLog) userKey(u string) string { return l.prefix() + ":user:" + u }
func (l *KVInteractionLog) itemKey(i string) string { return l.prefix() + ":item:" + i }

func recField(userID, itemID string, typ core.InteractionType) string {
	return userID + "|" + itemID + "|" + string(typ)
}

func (l *KVInteractionLog) Append(ctx context.Context, in core.Interaction) error {
	if err := core.ValidateInteraction(in.Type, in.Rating); err != nil {
		return err
	}
	ts := in.Timestamp
	if ts.IsZero() {
		ts = l.now()
	}
	rec := interactionRecord{
		UserID:    in.UserID,
		ItemID:    in.ItemID,
		Type:      string(in.Type),
		Rating:    in.Rating,
		Timestamp: ts.Unix(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	field := recField(in.UserID, in.ItemID, in.Type)
	score := float64(rec.Timestamp)

	if err := l.KV.HSet(ctx, l.recKey(), field, data); err != nil {
		return err
	}
	if err := l.KV.ZAdd(ctx, l.timeKey(), score, field); err != nil {
		return err
	}
	if err := l.KV.ZAdd(ctx, l.userKey(in.UserID), score, in.ItemID+"|"+string(in.Type)); err != nil {
		return err
	}
	return l.KV.ZAdd(ctx, l.itemKey(in.ItemID), score, in.UserID)
}

func (l *KVInteractionLog) getRecord(ctx context.Context, field string) (core.Interaction, bool) {
	data, err := l.KV.HGet(ctx, l.recKey(), field)
	if err != nil {
		return core.Interaction{}, false
	}
	return decodeRecord(data)
}

func decodeRecord(data []byte) (core.Interaction, bool) {
	var rec interactionRecord
	if json.Unmarshal(data, &rec) != nil {
		return core.Interaction{}, false
	}
	return core.Interaction{
		UserID:    rec.UserID,
		ItemID:    rec.ItemID,
		Type:      core.InteractionType(rec.Type),
		Rating:    rec.Rating,
		Timestamp: time.Unix(rec.Timestamp, 0).UTC(),
	}, true
}

func (l *KVInteractionLog) Recent(ctx context.Context, userID string, limit int) ([]core.Interaction, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	members, err := l.KV.ZRevRange(ctx, l.userKey(userID), 0, stop)
	if err != nil {
		return nil, err
	}
	out := make([]core.Interaction, 0, len(members))
	for _, zm := range members {
		itemID, typ, ok := strings.Cut(zm.Member, "|")
		if !ok {
			continue
		}
		if in, ok := l.getRecord(ctx, recField(userID, itemID, core.InteractionType(typ))); ok {
			out = append(out, in)
		}
	}
	return out, nil
}

func (l *KVInteractionLog) UserInteractions(ctx context.Context, userID string) ([]core.Interaction, error) {
	return l.Recent(ctx, userID, 0)
}

func (l *KVInteractionLog) ItemUsers(ctx context.Context, itemID string) ([]string, error) {
	members, err := l.KV.ZRevRange(ctx, l.itemKey(itemID), 0, -1)
	if err != nil {
		return nil, err
	}
	users := make([]string, 0, len(members))
	for _, zm := range members {
		users = append(users, zm.Member)
	}
	sort.Strings(users)
	return users, nil
}

func (l *KVInteractionLog) Window(ctx context.Context, window core.TimeWindow, weights core.WeightTable) ([]core.WindowCount, error) {
	d, err := window.Duration()
	if err != nil {
		return nil, err
	}
	cutoff := float64(l.now().Add(-d).Unix())
	members, err := l.KV.ZRangeByScore(ctx, l.timeKey(), cutoff, math.MaxFloat64)
	if err != nil {
		return nil, err
	}

	weighted := make(map[string]float64)
	raw := make(map[string]int)
	for _, zm := range members {
		in, ok := l.getRecord(ctx, zm.Member)
		if !ok {
			continue
		}
		weighted[in.ItemID] += weights.Weight(in)
		raw[in.ItemID]++
	}

	out := make([]core.WindowCount, 0, len(weighted))
	for itemID, w := range weighted {
		out = append(out, core.WindowCount{ItemID: itemID, Weighted: w, Raw: raw[itemID]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func (l *KVInteractionLog) All(ctx context.Context) ([]core.Interaction, error) {
	fields, err := l.KV.HGetAll(ctx, l.recKey())
	if err != nil {
		return nil, err
	}
	out := make([]core.Interaction, 0, len(fields))
	for _, data := range fields {
		if in, ok := decodeRecord(data); ok {
			out = append(out, in)
		}
	}
	// HGetAll 无序，离线训练要求确定性输入
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.Before(out[j].Timestamp)
		}
		if out[i].UserID != out[j].UserID {
			return out[i].UserID < out[j].UserID
		}
		if out[i].ItemID != out[j].ItemID {
			return out[i].ItemID < out[j].ItemID
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

var _ core.InteractionLog = (*KVInteractionLog)(nil)
