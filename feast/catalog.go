package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	feasttypes "github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/mealrec/core"
)

// 目录在 Feature Store 中的特征名。
const (
	FeatureTitle       = "title"
	FeatureDescription = "description"
	FeatureContentType = "content_type"
	FeatureCuisine     = "cuisine"
	FeatureDietaryTags = "dietary_tags"
	FeatureAttributes  = "attributes"
	FeatureTimeMinutes = "time_minutes"
	FeatureCalories    = "calories"
)

// IDLister 枚举目录内的物品 ID。
// Feast 在线存储按实体键取数，不提供全量枚举，
// ID 全集由调用方维护（主库同步任务或静态清单）。
type IDLister interface {
	ListIDs(ctx context.Context, contentType string) ([]string, error)
}

// StaticIDs 是固定清单的 IDLister。
type StaticIDs []string

func (s StaticIDs) ListIDs(ctx context.Context, contentType string) ([]string, error) {
	return s, nil
}

// Catalog 是基于 Feast Feature Store 的物品目录实现。
// 物品属性作为在线特征存放，按 item_id 实体键取数。
type Catalog struct {
	client *feastsdk.GrpcClient

	// Project Feast 项目名
	Project string

	// FeatureView 物品属性所在的特征视图，如 "recipe_features"
	FeatureView string

	// Lister 提供物品 ID 全集
	Lister IDLister

	// Timeout 单次取数超时；默认 5s
	Timeout time.Duration
}

// NewCatalog 连接 Feast Feature Server 并构建目录。
func NewCatalog(host string, port int, project, featureView string, lister IDLister) (*Catalog, error) {
	if port == 0 {
		port = 6565
	}
	client, err := feastsdk.NewGrpcClient(host, port)
	if err != nil {
		return nil, fmt.Errorf("feast: connect %s:%d: %w", host, port, err)
	}
	return &Catalog{
		client:      client,
		Project:     project,
		FeatureView: featureView,
		Lister:      lister,
	}, nil
}

func (c *Catalog) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 5 * time.Second
}

func (c *Catalog) featureRefs() []string {
	names := []string{
		FeatureTitle, FeatureDescription, FeatureContentType, FeatureCuisine,
		FeatureDietaryTags, FeatureAttributes, FeatureTimeMinutes, FeatureCalories,
	}
	refs := make([]string, len(names))
	for i, n := range names {
		refs[i] = c.FeatureView + ":" + n
	}
	return refs
}

// Resolve 实现 core.ItemCatalog 接口。
func (c *Catalog) Resolve(ctx context.Context, itemID string) (*core.ItemInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	resp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: c.featureRefs(),
		Entities: []feastsdk.Row{{"item_id": feastsdk.StrVal(itemID)}},
		Project:  c.Project,
	})
	if err != nil {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable,
			fmt.Sprintf("feast: get online features: %v", err))
	}
	rows := resp.Rows()
	if len(rows) == 0 {
		return nil, core.ErrItemNotFound
	}

	info := &core.ItemInfo{ID: itemID}
	row := rows[0]
	info.Title = c.stringFeature(row, FeatureTitle)
	info.Description = c.stringFeature(row, FeatureDescription)
	info.ContentType = c.stringFeature(row, FeatureContentType)
	info.Cuisine = c.stringFeature(row, FeatureCuisine)
	info.DietaryTags = c.stringListFeature(row, FeatureDietaryTags)
	info.Attributes = c.stringListFeature(row, FeatureAttributes)
	info.TimeMinutes = int(c.intFeature(row, FeatureTimeMinutes))
	info.Calories = int(c.intFeature(row, FeatureCalories))

	// 在线存储对未知实体返回空行
	if info.Title == "" && info.ContentType == "" && len(info.Attributes) == 0 {
		return nil, core.ErrItemNotFound
	}
	return info, nil
}

// List 实现 core.ItemCatalog 接口：由 Lister 枚举 ID 后逐个取数。
func (c *Catalog) List(ctx context.Context, contentType string) ([]*core.ItemInfo, error) {
	if c.Lister == nil {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotSupported,
			"feast: catalog has no id lister")
	}
	ids, err := c.Lister.ListIDs(ctx, contentType)
	if err != nil {
		return nil, err
	}

	out := make([]*core.ItemInfo, 0, len(ids))
	for _, id := range ids {
		info, err := c.Resolve(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		if contentType != "" && info.ContentType != contentType {
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// Close 释放客户端连接。
func (c *Catalog) Close() error {
	c.client = nil
	return nil
}

func (c *Catalog) feature(row feastsdk.Row, name string) *feasttypes.Value {
	return row[c.FeatureView+":"+name]
}

func (c *Catalog) stringFeature(row feastsdk.Row, name string) string {
	if v := c.feature(row, name); v != nil {
		return v.GetStringVal()
	}
	return ""
}

func (c *Catalog) intFeature(row feastsdk.Row, name string) int64 {
	if v := c.feature(row, name); v != nil {
		return v.GetInt64Val()
	}
	return 0
}

func (c *Catalog) stringListFeature(row feastsdk.Row, name string) []string {
	v := c.feature(row, name)
	if v == nil {
		return nil
	}
	list := v.GetStringListVal()
	if list == nil {
		return nil
	}
	return list.GetVal()
}

var _ core.ItemCatalog = (*Catalog)(nil)
