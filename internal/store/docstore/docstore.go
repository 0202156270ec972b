// 包 docstore：MongoDB 文档库数据访问层，与 PostgreSQL 实现提供相同的联系人与签到接口
package docstore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
	"geocontacts/internal/store"
)

const (
	contactsCollection  = "contacts"
	locationsCollection = "location_updates"
)

// Store：文档库访问入口
type Store struct {
	client    *mongo.Client
	contacts  *mongo.Collection
	locations *mongo.Collection
	pageSize  int
}

var _ contact.Store = (*Store)(nil)

// Open 连接并探活；调用方负责 Close
func Open(ctx context.Context, uri, database string, pageSize int) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	s := AttachDatabase(client.Database(database), pageSize)
	s.client = client
	return s, nil
}

func AttachDatabase(db *mongo.Database, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = store.DefaultPageSize
	}
	return &Store{
		contacts:  db.Collection(contactsCollection),
		locations: db.Collection(locationsCollection),
		pageSize:  pageSize,
	}
}

func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// 文档注释：创建地理与分页索引
// 约束：$geoWithin 不依赖 2dsphere 索引也能执行，但数据量大时没有索引会全表扫描；重复创建是幂等的。
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.contacts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "hometown", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
	})
	if err != nil {
		return contact.Transport("ensure_indexes", err)
	}
	_, err = s.locations.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "position", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "insert_time", Value: 1}}},
	})
	if err != nil {
		return contact.Transport("ensure_indexes", err)
	}
	logger.L().Info("docstore_indexes_ready")
	return nil
}

func (s *Store) FetchAllContacts(ctx context.Context) (out []contact.Contact, err error) {
	defer func(t0 time.Time) { metrics.ObserveStore("fetch_all", t0, err) }(time.Now())
	out, err = store.Drain(ctx, s.pageSize, func(ctx context.Context, after *store.Cursor, limit int) ([]contact.Contact, *store.Cursor, error) {
		opts := options.Find().
			SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
			SetLimit(int64(limit)).
			SetBatchSize(int32(limit))
		page, err := findContacts(ctx, s.contacts, allFilter(after), opts)
		if err != nil || len(page) == 0 {
			return page, nil, err
		}
		last := page[len(page)-1]
		return page, &store.Cursor{Name: last.Name, Key: last.UserPrincipalName}, nil
	})
	if err != nil {
		return nil, contact.Transport("fetch_all", err)
	}
	return out, nil
}

func (s *Store) FetchContactsNearHome(ctx context.Context, p geo.Point, radiusMeters float64) (out []contact.Contact, err error) {
	defer func(t0 time.Time) { metrics.ObserveStore("fetch_near_home", t0, err) }(time.Now())
	candidates, err := store.Drain(ctx, s.pageSize, func(ctx context.Context, after *store.Cursor, limit int) ([]contact.Contact, *store.Cursor, error) {
		opts := options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetLimit(int64(limit)).
			SetBatchSize(int32(limit))
		page, err := findContacts(ctx, s.contacts, nearHomeFilter(p, radiusMeters, after), opts)
		if err != nil || len(page) == 0 {
			return page, nil, err
		}
		return page, &store.Cursor{Key: page[len(page)-1].UserPrincipalName}, nil
	})
	if err != nil {
		return nil, contact.Transport("fetch_near_home", err)
	}
	for _, c := range candidates {
		if geo.Within(p, c.Hometown.Position, radiusMeters) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) FetchRecentLocations(ctx context.Context, p geo.Point, radiusMeters float64, since time.Time) (out []contact.LocationUpdate, err error) {
	defer func(t0 time.Time) { metrics.ObserveStore("fetch_recent", t0, err) }(time.Now())
	candidates, err := store.Drain(ctx, s.pageSize, func(ctx context.Context, after *store.Cursor, limit int) ([]contact.LocationUpdate, *store.Cursor, error) {
		opts := options.Find().
			SetSort(bson.D{{Key: "_id", Value: 1}}).
			SetLimit(int64(limit)).
			SetBatchSize(int32(limit))
		cur, err := s.locations.Find(ctx, recentFilter(p, radiusMeters, since, after), opts)
		if err != nil {
			return nil, nil, err
		}
		var docs []locationDoc
		if err := cur.All(ctx, &docs); err != nil {
			return nil, nil, err
		}
		page := make([]contact.LocationUpdate, 0, len(docs))
		for _, d := range docs {
			page = append(page, d.update())
		}
		if len(page) == 0 {
			return page, nil, nil
		}
		return page, &store.Cursor{Key: page[len(page)-1].ID}, nil
	})
	if err != nil {
		return nil, contact.Transport("fetch_recent", err)
	}
	for _, u := range candidates {
		if geo.Within(p, u.Position, radiusMeters) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *Store) GetContact(ctx context.Context, upn string) (c contact.Contact, err error) {
	defer func(t0 time.Time) { metrics.ObserveStore("get_contact", t0, err) }(time.Now())
	var d contactDoc
	err = s.contacts.FindOne(ctx, bson.D{{Key: "_id", Value: upn}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return contact.Contact{}, &contact.NotFoundError{UserPrincipalName: upn}
	}
	if err != nil {
		return contact.Contact{}, contact.Transport("get_contact", err)
	}
	return d.contact(), nil
}

func (s *Store) SaveContact(ctx context.Context, c contact.Contact) (err error) {
	defer func(t0 time.Time) { metrics.ObserveStore("save_contact", t0, err) }(time.Now())
	d := newContactDoc(c)
	_, err = s.contacts.ReplaceOne(ctx, bson.D{{Key: "_id", Value: d.ID}}, d, options.Replace().SetUpsert(true))
	return contact.Transport("save_contact", err)
}

func (s *Store) InsertLocation(ctx context.Context, u contact.LocationUpdate) (err error) {
	defer func(t0 time.Time) { metrics.ObserveStore("insert_location", t0, err) }(time.Now())
	_, err = s.locations.InsertOne(ctx, newLocationDoc(u))
	return contact.Transport("insert_location", err)
}

func findContacts(ctx context.Context, coll *mongo.Collection, filter bson.D, opts *options.FindOptions) ([]contact.Contact, error) {
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []contactDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]contact.Contact, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.contact())
	}
	return out, nil
}
