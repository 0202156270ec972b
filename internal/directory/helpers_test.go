package directory

import (
	"context"
	"sync/atomic"
	"time"

	"geocontacts/internal/cache"
	"geocontacts/internal/connectivity"
	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/store/memstore"
)

var now = time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)

// east 返回赤道上位于原点以东 m 米处的点
func east(m float64) geo.Point { return geo.NewPoint(m/geo.MetersPerDegree, 0) }

// countingSource 包装数据源，统计全集读取次数并可注入失败
type countingSource struct {
	contact.Source
	fetchAll atomic.Int32
	failAll  error
	failHome error
}

func (c *countingSource) FetchAllContacts(ctx context.Context) ([]contact.Contact, error) {
	c.fetchAll.Add(1)
	if c.failAll != nil {
		return nil, c.failAll
	}
	return c.Source.FetchAllContacts(ctx)
}

func (c *countingSource) FetchContactsNearHome(ctx context.Context, p geo.Point, r float64) ([]contact.Contact, error) {
	if c.failHome != nil {
		return nil, c.failHome
	}
	return c.Source.FetchContactsNearHome(ctx, p, r)
}

type fixture struct {
	src   *countingSource
	store *memstore.Store
	mem   *cache.MemoryStore
	rc    *cache.ResultCache
	svc   *Service
}

func newFixture(online bool, seed memstore.Seed) *fixture {
	ms := memstore.FromSeed(seed)
	src := &countingSource{Source: ms}
	mem := cache.NewMemoryStore(4)
	rc := cache.NewResultCache(mem, "", time.Hour)
	svc := New(src, rc, connectivity.NewGate(connectivity.Static(online)), Options{
		Clock:        ClockFunc(func() time.Time { return now }),
		ImageBaseURL: "https://base/",
	})
	return &fixture{src: src, store: ms, mem: mem, rc: rc, svc: svc}
}

func person(upn, name string, home geo.Point) contact.Contact {
	return contact.Contact{
		UserPrincipalName: upn,
		Name:              name,
		Hometown:          contact.Hometown{Name: name + "ville", Position: home},
		Image:             map[string]string{"Src": upn + ".png"},
		Twitter:           "https://twitter.com/" + name,
	}
}
