// 包 store：PostgreSQL/PostGIS 数据访问层，提供联系人与签到的查询与写入
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/logger"
	"geocontacts/internal/metrics"
)

// Store：数据库访问入口，持有连接池与分页大小
type Store struct {
	db       *sql.DB
	pageSize int
}

var _ contact.Store = (*Store)(nil)

func AttachDB(db *sql.DB, pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{db: db, pageSize: pageSize}
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

const contactColumns = `user_principal_name, name, hometown_name,
       ST_X(hometown::geometry), ST_Y(hometown::geometry), image, twitter`

const (
	sqlAllContacts = `SELECT ` + contactColumns + `
FROM contacts
WHERE NOT $1::boolean OR (name, user_principal_name) > ($2::text, $3::text)
ORDER BY name, user_principal_name
LIMIT $4`

	sqlContactsNearHome = `SELECT ` + contactColumns + `
FROM contacts
WHERE ST_DWithin(hometown, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
  AND ST_Distance(hometown, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) < $3
  AND user_principal_name > $4
ORDER BY user_principal_name
LIMIT $5`

	sqlRecentLocations = `SELECT id, user_principal_name, insert_time,
       ST_X(position::geometry), ST_Y(position::geometry),
       COALESCE(mood, ''), COALESCE(country, ''), COALESCE(state, ''), COALESCE(town, '')
FROM location_updates
WHERE insert_time > $3
  AND ST_DWithin(position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $4)
  AND ST_Distance(position, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) < $4
  AND id > $5
ORDER BY id
LIMIT $6`

	sqlContactByID = `SELECT ` + contactColumns + `
FROM contacts
WHERE user_principal_name = $1`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanContact(r scanner) (contact.Contact, error) {
	var c contact.Contact
	var home sql.NullString
	var img []byte
	var lon, lat float64
	if err := r.Scan(&c.UserPrincipalName, &c.Name, &home, &lon, &lat, &img, &c.Twitter); err != nil {
		return c, err
	}
	c.Hometown = contact.Hometown{Name: home.String, Position: geo.NewPoint(lon, lat)}
	if len(img) > 0 {
		if err := json.Unmarshal(img, &c.Image); err != nil {
			return c, err
		}
	}
	return c, nil
}

func queryContacts(ctx context.Context, db *sql.DB, q string, args ...any) ([]contact.Contact, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []contact.Contact
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FetchAllContacts：按 (name, user_principal_name) 键集分页读取全部联系人
func (s *Store) FetchAllContacts(ctx context.Context) (out []contact.Contact, err error) {
	const op = "fetch_all"
	defer func(t0 time.Time) { metrics.ObserveStore(op, t0, err) }(time.Now())
	out, err = Drain(ctx, s.pageSize, func(ctx context.Context, after *Cursor, limit int) ([]contact.Contact, *Cursor, error) {
		var name, key string
		if after != nil {
			name, key = after.Name, after.Key
		}
		page, err := queryContacts(ctx, s.db, sqlAllContacts, after != nil, name, key, limit)
		if err != nil || len(page) == 0 {
			return page, nil, err
		}
		last := page[len(page)-1]
		return page, &Cursor{Name: last.Name, Key: last.UserPrincipalName}, nil
	})
	if err != nil {
		return nil, contact.Transport(op, err)
	}
	logger.L().Debug("store_fetch_all_done", "count", len(out))
	return out, nil
}

// FetchContactsNearHome：常住地距离过滤；ST_DWithin 走索引，ST_Distance 保证严格小于
func (s *Store) FetchContactsNearHome(ctx context.Context, p geo.Point, radiusMeters float64) (out []contact.Contact, err error) {
	const op = "fetch_near_home"
	defer func(t0 time.Time) { metrics.ObserveStore(op, t0, err) }(time.Now())
	out, err = Drain(ctx, s.pageSize, func(ctx context.Context, after *Cursor, limit int) ([]contact.Contact, *Cursor, error) {
		key := ""
		if after != nil {
			key = after.Key
		}
		page, err := queryContacts(ctx, s.db, sqlContactsNearHome, p.Lon, p.Lat, radiusMeters, key, limit)
		if err != nil || len(page) == 0 {
			return page, nil, err
		}
		return page, &Cursor{Key: page[len(page)-1].UserPrincipalName}, nil
	})
	if err != nil {
		return nil, contact.Transport(op, err)
	}
	logger.L().Debug("store_fetch_near_home_done", "point", p.String(), "radius_m", radiusMeters, "count", len(out))
	return out, nil
}

// FetchRecentLocations：位置与时间窗口过滤，since 为开区间下界
func (s *Store) FetchRecentLocations(ctx context.Context, p geo.Point, radiusMeters float64, since time.Time) (out []contact.LocationUpdate, err error) {
	const op = "fetch_recent"
	defer func(t0 time.Time) { metrics.ObserveStore(op, t0, err) }(time.Now())
	out, err = Drain(ctx, s.pageSize, func(ctx context.Context, after *Cursor, limit int) ([]contact.LocationUpdate, *Cursor, error) {
		key := ""
		if after != nil {
			key = after.Key
		}
		rows, err := s.db.QueryContext(ctx, sqlRecentLocations, p.Lon, p.Lat, since.UTC(), radiusMeters, key, limit)
		if err != nil {
			return nil, nil, err
		}
		defer rows.Close()
		var page []contact.LocationUpdate
		for rows.Next() {
			var u contact.LocationUpdate
			var lon, lat float64
			if err := rows.Scan(&u.ID, &u.UserPrincipalName, &u.InsertTime, &lon, &lat, &u.Mood, &u.Country, &u.State, &u.Town); err != nil {
				return nil, nil, err
			}
			u.Position = geo.NewPoint(lon, lat)
			page = append(page, u)
		}
		if err := rows.Err(); err != nil {
			return nil, nil, err
		}
		if len(page) == 0 {
			return page, nil, nil
		}
		return page, &Cursor{Key: page[len(page)-1].ID}, nil
	})
	if err != nil {
		return nil, contact.Transport(op, err)
	}
	logger.L().Debug("store_fetch_recent_done", "point", p.String(), "since", since, "count", len(out))
	return out, nil
}

// GetContact：按身份查询单个联系人
func (s *Store) GetContact(ctx context.Context, upn string) (c contact.Contact, err error) {
	const op = "get_contact"
	defer func(t0 time.Time) { metrics.ObserveStore(op, t0, err) }(time.Now())
	c, err = scanContact(s.db.QueryRowContext(ctx, sqlContactByID, upn))
	if errors.Is(err, sql.ErrNoRows) {
		return contact.Contact{}, &contact.NotFoundError{UserPrincipalName: upn}
	}
	if err != nil {
		return contact.Contact{}, contact.Transport(op, err)
	}
	return c, nil
}

// SaveContact：按身份覆盖写入；派生字段与运行期字段不落库
func (s *Store) SaveContact(ctx context.Context, c contact.Contact) (err error) {
	const op = "save_contact"
	defer func(t0 time.Time) { metrics.ObserveStore(op, t0, err) }(time.Now())
	img := c.Image
	if img == nil {
		img = map[string]string{}
	}
	b, err := json.Marshal(img)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO contacts(user_principal_name, name, hometown_name, hometown, image, twitter)
        VALUES($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7)
        ON CONFLICT (user_principal_name) DO UPDATE SET name=EXCLUDED.name, hometown_name=EXCLUDED.hometown_name,
            hometown=EXCLUDED.hometown, image=EXCLUDED.image, twitter=EXCLUDED.twitter, updated_at=now()`,
		c.UserPrincipalName, c.Name, c.Hometown.Name, c.Hometown.Position.Lon, c.Hometown.Position.Lat, string(b), c.Twitter,
	)
	return contact.Transport(op, err)
}

// InsertLocation：写入一条签到
func (s *Store) InsertLocation(ctx context.Context, u contact.LocationUpdate) (err error) {
	const op = "insert_location"
	defer func(t0 time.Time) { metrics.ObserveStore(op, t0, err) }(time.Now())
	_, err = s.db.ExecContext(ctx, `INSERT INTO location_updates(id, user_principal_name, insert_time, position, mood, country, state, town)
        VALUES($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8, $9)`,
		u.ID, u.UserPrincipalName, u.InsertTime.UTC(), u.Position.Lon, u.Position.Lat, u.Mood, u.Country, u.State, u.Town,
	)
	if err == nil {
		logger.L().Debug("store_location_inserted", "upn", u.UserPrincipalName, "id", u.ID)
	}
	return contact.Transport(op, err)
}
