package core

import "context"

// ItemInfo 是目录里一条物品（菜谱/餐食）的元信息。
// Attributes 是食材/标签等离散属性，属性重合度相似度依赖它。
type ItemInfo struct {
	ID          string
	ContentType string
	Title       string
	Description string
	Cuisine     string
	DietaryTags []string
	Attributes  []string
	TimeMinutes int
	Calories    int
}

// EmbeddingText 拼出用于生成向量的文本表示。
func (it *ItemInfo) EmbeddingText() string {
	text := it.Title
	if it.Description != "" {
		text += ". " + it.Description
	}
	for _, a := range it.Attributes {
		text += ", " + a
	}
	return text
}

// ItemCatalog 是物品目录的领域接口（外部协作方）。
type ItemCatalog interface {
	// Resolve 解析单个物品；不存在返回 NOT_FOUND
	Resolve(ctx context.Context, itemID string) (*ItemInfo, error)

	// List 返回目录内全部物品，contentType 为空表示不限类型；
	// 结果按物品 ID 升序（确定性）
	List(ctx context.Context, contentType string) ([]*ItemInfo, error)
}

// ErrItemNotFound 表示物品不在目录中。
var ErrItemNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "catalog: item not found")
