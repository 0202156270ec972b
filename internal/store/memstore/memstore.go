// 包 memstore：进程内联系人数据源，按球面距离在内存中过滤；用于本地开发与测试
package memstore

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/logger"
)

// Seed：种子文件格式
type Seed struct {
	Contacts  []contact.Contact        `json:"contacts"`
	Locations []contact.LocationUpdate `json:"locations"`
}

type Store struct {
	mu        sync.RWMutex
	contacts  map[string]contact.Contact
	locations []contact.LocationUpdate
}

var _ contact.Store = (*Store)(nil)

func New() *Store {
	return &Store{contacts: make(map[string]contact.Contact)}
}

// FromSeed 以种子数据构造；派生与运行期字段在写入时清空
func FromSeed(seed Seed) *Store {
	s := New()
	for _, c := range seed.Contacts {
		_ = s.SaveContact(context.Background(), c)
	}
	for _, u := range seed.Locations {
		_ = s.InsertLocation(context.Background(), u)
	}
	return s
}

// LoadFile 读取 JSON 种子文件
func LoadFile(path string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, err
	}
	logger.L().Debug("memstore_seed_loaded", "path", path, "contacts", len(seed.Contacts), "locations", len(seed.Locations))
	return FromSeed(seed), nil
}

func stored(c contact.Contact) contact.Contact {
	c.PhotoUrl, c.TwitterHandle, c.CurrentLocation, c.Mood = "", "", nil, ""
	return c
}

func (s *Store) FetchAllContacts(ctx context.Context) ([]contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, contact.Transport("fetch_all", err)
	}
	s.mu.RLock()
	out := make([]contact.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, c)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UserPrincipalName < out[j].UserPrincipalName
	})
	return out, nil
}

func (s *Store) FetchContactsNearHome(ctx context.Context, p geo.Point, radiusMeters float64) ([]contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return nil, contact.Transport("fetch_near_home", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contact.Contact
	for _, c := range s.contacts {
		if geo.Within(p, c.Hometown.Position, radiusMeters) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserPrincipalName < out[j].UserPrincipalName })
	return out, nil
}

func (s *Store) FetchRecentLocations(ctx context.Context, p geo.Point, radiusMeters float64, since time.Time) ([]contact.LocationUpdate, error) {
	if err := ctx.Err(); err != nil {
		return nil, contact.Transport("fetch_recent", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []contact.LocationUpdate
	for _, u := range s.locations {
		if u.InsertTime.After(since) && geo.Within(p, u.Position, radiusMeters) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetContact(ctx context.Context, upn string) (contact.Contact, error) {
	if err := ctx.Err(); err != nil {
		return contact.Contact{}, contact.Transport("get_contact", err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contacts[upn]
	if !ok {
		return contact.Contact{}, &contact.NotFoundError{UserPrincipalName: upn}
	}
	return c, nil
}

func (s *Store) SaveContact(_ context.Context, c contact.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[c.UserPrincipalName] = stored(c)
	return nil
}

func (s *Store) InsertLocation(_ context.Context, u contact.LocationUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locations = append(s.locations, u)
	return nil
}
