// 包 directory：联系人目录的读取核心，组合数据源、结果缓存与连通性闸门，提供全集、单人与附近查询
package directory

import (
	"context"
	"slices"

	"golang.org/x/sync/singleflight"

	"geocontacts/internal/cache"
	"geocontacts/internal/connectivity"
	"geocontacts/internal/contact"
	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
)

const (
	// DefaultRadiusMeters：附近查询的半径
	DefaultRadiusMeters = 50000
	// DefaultRecentDays：签到有效窗口（天）
	DefaultRecentDays = 7
)

// Options：Service 的可调参数，零值取默认
type Options struct {
	RadiusMeters float64
	RecentDays   int
	ImageBaseURL string
	Clock        Clock
}

// Service：目录读取入口
type Service struct {
	src    contact.Source
	cache  *cache.ResultCache
	gate   *connectivity.Gate
	norm   Normalizer
	clock  Clock
	radius float64
	days   int
	sf     singleflight.Group
}

func New(src contact.Source, rc *cache.ResultCache, gate *connectivity.Gate, opts Options) *Service {
	if opts.RadiusMeters <= 0 {
		opts.RadiusMeters = DefaultRadiusMeters
	}
	if opts.RecentDays <= 0 {
		opts.RecentDays = DefaultRecentDays
	}
	if opts.Clock == nil {
		opts.Clock = RealClock{}
	}
	if gate == nil {
		gate = connectivity.NewGate(nil)
	}
	return &Service{
		src:    src,
		cache:  rc,
		gate:   gate,
		norm:   Normalizer{BaseURL: opts.ImageBaseURL},
		clock:  opts.Clock,
		radius: opts.RadiusMeters,
		days:   opts.RecentDays,
	}
}

// 文档注释：读取联系人全集（缓存旁路）
// 背景：先由闸门判断能否信任快照；信任且有数据则直接返回，否则从数据源拉取、规范化并写回缓存。
// 约束：拉取失败时，非强制刷新的读取回退到已有快照（哪怕已过期）；没有快照或强制刷新则原样返回错误。
// 同一进程内并发的刷新合并为一次远端读取。
func (s *Service) AllContacts(ctx context.Context, forceRefresh bool) ([]contact.Contact, error) {
	if s.gate.TrustCache(ctx, forceRefresh, s.cache.Expired) {
		if list, ok := s.cache.Load(ctx); ok {
			metrics.CacheHitsTotal.Inc()
			logger.L().Debug("cache_hit", "key", s.cache.Key(), "count", len(list))
			return list, nil
		}
	}
	reason := "miss"
	if forceRefresh {
		reason = "forced"
	}
	metrics.CacheMissesTotal.WithLabelValues(reason).Inc()
	v, err, shared := s.sf.Do(s.cache.Key(), func() (any, error) {
		return s.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		if !forceRefresh {
			if list, ok := s.cache.Load(ctx); ok && len(list) > 0 {
				metrics.CacheStaleServedTotal.Inc()
				logger.L().Warn("cache_stale_served", "key", s.cache.Key(), "count", len(list), "err", err)
				return list, nil
			}
		}
		return nil, err
	}
	logger.L().Debug("cache_refreshed", "key", s.cache.Key(), "shared", shared, "force", forceRefresh)
	return slices.Clone(v.([]contact.Contact)), nil
}

func (s *Service) refresh(ctx context.Context) ([]contact.Contact, error) {
	list, err := s.src.FetchAllContacts(ctx)
	if err != nil {
		logger.L().Error("store_fetch_all_error", "err", err)
		return nil, err
	}
	for i := range list {
		s.norm.Normalize(&list[i])
	}
	if err := s.cache.Save(ctx, list); err != nil {
		logger.L().Warn("cache_save_error", "key", s.cache.Key(), "err", err)
	}
	return list, nil
}

// Contact：按身份查询单个联系人；优先使用缓存中的全集，查不到再访问数据源
func (s *Service) Contact(ctx context.Context, upn string) (contact.Contact, error) {
	list, err := s.AllContacts(ctx, false)
	if err != nil {
		logger.L().Warn("contact_lookup_list_error", "upn", upn, "err", err)
	}
	for _, c := range list {
		if c.UserPrincipalName == upn {
			return c, nil
		}
	}
	c, err := s.src.GetContact(ctx, upn)
	if err != nil {
		return contact.Contact{}, err
	}
	s.norm.Normalize(&c)
	return c, nil
}
