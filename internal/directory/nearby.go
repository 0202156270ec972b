package directory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
)

// 文档注释：附近联系人查询
// 背景：常住地在范围内与近期签到在范围内是两个独立数据源；三次读取互不依赖，并行发出。
// 约束：近期签到优先，同一身份不会同时出现在两个分组；输出的联系人均为副本，不修改缓存中的全集。
func (s *Service) Nearby(ctx context.Context, p geo.Point) ([]contact.Group, error) {
	t0 := time.Now()
	metrics.NearbyRequestsTotal.Inc()
	defer func() { metrics.NearbyDurationMs.Observe(float64(time.Since(t0).Milliseconds())) }()

	since := RecentSince(s.clock.Now(), s.days)
	var (
		all, home []contact.Contact
		recent    []contact.LocationUpdate
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = s.AllContacts(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		home, err = s.src.FetchContactsNearHome(gctx, p, s.radius)
		return err
	})
	g.Go(func() (err error) {
		recent, err = s.src.FetchRecentLocations(gctx, p, s.radius, since)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	latest := LatestPerIdentity(recent)
	all, err := s.backfill(ctx, all, latest)
	if err != nil {
		return nil, err
	}
	groups, err := resolve(all, home, latest)
	if err != nil {
		logger.L().Error("nearby_identity_missing", "point", p.String(), "err", err)
		return nil, err
	}
	for gi := range groups {
		for ci := range groups[gi].Contacts {
			s.norm.Normalize(&groups[gi].Contacts[ci])
		}
		metrics.NearbyGroupSize.WithLabelValues(groups[gi].Label.String()).Observe(float64(len(groups[gi].Contacts)))
	}
	logger.L().Debug("nearby_resolved", "point", p.String(), "since", since, "home", len(home), "recent", len(recent), "groups", len(groups))
	return groups, nil
}

// backfill 为快照写入之后才加入的身份补查数据源；数据源也查不到的身份留给 resolve 报错
func (s *Service) backfill(ctx context.Context, all []contact.Contact, latest []contact.LocationUpdate) ([]contact.Contact, error) {
	known := make(map[string]struct{}, len(all))
	for _, c := range all {
		known[c.UserPrincipalName] = struct{}{}
	}
	for _, u := range latest {
		if _, ok := known[u.UserPrincipalName]; ok {
			continue
		}
		known[u.UserPrincipalName] = struct{}{}
		c, err := s.src.GetContact(ctx, u.UserPrincipalName)
		if errors.Is(err, contact.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		logger.L().Debug("nearby_snapshot_backfill", "upn", u.UserPrincipalName)
		all = append(slices.Clip(all), c)
	}
	return all, nil
}

// resolve 合并两个候选集合：latest 中的身份进入近期签到组，其余常住地候选进入常住地组
func resolve(all, home []contact.Contact, latest []contact.LocationUpdate) ([]contact.Group, error) {
	index := make(map[string]int, len(all))
	for i, c := range all {
		if _, dup := index[c.UserPrincipalName]; !dup {
			index[c.UserPrincipalName] = i
		}
	}

	byLabel := make(map[contact.GroupLabel][]contact.Contact, len(contact.GroupLabels))
	claimed := make(map[string]struct{}, len(latest)+len(home))
	for _, u := range latest {
		i, ok := index[u.UserPrincipalName]
		if !ok {
			return nil, fmt.Errorf("check-in %q has no matching contact: %w", u.ID, &contact.NotFoundError{UserPrincipalName: u.UserPrincipalName})
		}
		c := all[i]
		pos := u.Position
		c.CurrentLocation = &pos
		c.Mood = u.Mood
		byLabel[contact.GroupRecentCheckin] = append(byLabel[contact.GroupRecentCheckin], c)
		claimed[u.UserPrincipalName] = struct{}{}
	}
	for _, c := range home {
		if _, ok := claimed[c.UserPrincipalName]; ok {
			continue
		}
		claimed[c.UserPrincipalName] = struct{}{}
		pos := c.Hometown.Position
		c.CurrentLocation = &pos
		byLabel[contact.GroupHometown] = append(byLabel[contact.GroupHometown], c)
	}

	groups := make([]contact.Group, 0, len(contact.GroupLabels))
	for _, l := range contact.GroupLabels {
		if cs := byLabel[l]; len(cs) > 0 {
			groups = append(groups, contact.Group{Label: l, Contacts: cs})
		}
	}
	return groups, nil
}
