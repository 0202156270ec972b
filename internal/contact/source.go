package contact

import (
	"context"
	"time"

	"geocontacts/internal/geo"
)

// Source：联系人与签到的只读数据源
// 约束：所有方法无副作用、幂等，且在返回前完整读取所有分页。
type Source interface {
	// FetchAllContacts 返回全部联系人，按姓名排序
	FetchAllContacts(ctx context.Context) ([]Contact, error)
	// FetchContactsNearHome 返回常住地距 point 小于 radiusMeters 的联系人，无顺序保证
	FetchContactsNearHome(ctx context.Context, point geo.Point, radiusMeters float64) ([]Contact, error)
	// FetchRecentLocations 返回距 point 小于 radiusMeters 且 InsertTime 严格晚于 since 的签到
	FetchRecentLocations(ctx context.Context, point geo.Point, radiusMeters float64, since time.Time) ([]LocationUpdate, error)
	// GetContact 按身份查询单个联系人，不存在时返回 *NotFoundError
	GetContact(ctx context.Context, userPrincipalName string) (Contact, error)
}

// Sink：写入路径，供签到接收端与导入工具使用
type Sink interface {
	SaveContact(ctx context.Context, c Contact) error
	InsertLocation(ctx context.Context, u LocationUpdate) error
}

// Store 同时具备读写能力
type Store interface {
	Source
	Sink
}
