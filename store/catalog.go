package store

import (
	"context"
	"sort"
	"sync"

	"github.com/rushteam/mealrec/core"
)

// MemoryCatalog 是内存实现的物品目录，用于测试/开发。
// 生产部署通常由菜谱主库或 Feature Store（见 feast 包）提供目录。
type MemoryCatalog struct {
	mu    sync.RWMutex
	items map[string]*core.ItemInfo
}

func NewMemoryCatalog(items ...*core.ItemInfo) *MemoryCatalog {
	c := &MemoryCatalog{items: make(map[string]*core.ItemInfo, len(items))}
	for _, it := range items {
		c.items[it.ID] = it
	}
	return c
}

func (c *MemoryCatalog) Put(info *core.ItemInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[info.ID] = info
}

func (c *MemoryCatalog) Resolve(ctx context.Context, itemID string) (*core.ItemInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	info, ok := c.items[itemID]
	if !ok {
		return nil, core.ErrItemNotFound
	}
	return info, nil
}

func (c *MemoryCatalog) List(ctx context.Context, contentType string) ([]*core.ItemInfo, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*core.ItemInfo, 0, len(c.items))
	for _, info := range c.items {
		if contentType != "" && info.ContentType != contentType {
			continue
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ core.ItemCatalog = (*MemoryCatalog)(nil)
