package docstore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/store"
)

// geoJSON：MongoDB 2dsphere 索引要求的点结构
type geoJSON struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func pointDoc(p geo.Point) geoJSON {
	return geoJSON{Type: "Point", Coordinates: []float64{p.Lon, p.Lat}}
}

func (g geoJSON) point() geo.Point {
	if len(g.Coordinates) < 2 {
		return geo.Point{}
	}
	return geo.NewPoint(g.Coordinates[0], g.Coordinates[1])
}

type contactDoc struct {
	ID           string            `bson:"_id"`
	Name         string            `bson:"name"`
	HometownName string            `bson:"hometown_name,omitempty"`
	Hometown     geoJSON           `bson:"hometown"`
	Image        map[string]string `bson:"image,omitempty"`
	Twitter      string            `bson:"twitter,omitempty"`
}

func newContactDoc(c contact.Contact) contactDoc {
	return contactDoc{
		ID:           c.UserPrincipalName,
		Name:         c.Name,
		HometownName: c.Hometown.Name,
		Hometown:     pointDoc(c.Hometown.Position),
		Image:        c.Image,
		Twitter:      c.Twitter,
	}
}

func (d contactDoc) contact() contact.Contact {
	return contact.Contact{
		UserPrincipalName: d.ID,
		Name:              d.Name,
		Hometown:          contact.Hometown{Name: d.HometownName, Position: d.Hometown.point()},
		Image:             d.Image,
		Twitter:           d.Twitter,
	}
}

type locationDoc struct {
	ID                string    `bson:"_id"`
	UserPrincipalName string    `bson:"user_principal_name"`
	InsertTime        time.Time `bson:"insert_time"`
	Position          geoJSON   `bson:"position"`
	Mood              string    `bson:"mood,omitempty"`
	Country           string    `bson:"country,omitempty"`
	State             string    `bson:"state,omitempty"`
	Town              string    `bson:"town,omitempty"`
}

func newLocationDoc(u contact.LocationUpdate) locationDoc {
	return locationDoc{
		ID:                u.ID,
		UserPrincipalName: u.UserPrincipalName,
		InsertTime:        u.InsertTime.UTC(),
		Position:          pointDoc(u.Position),
		Mood:              u.Mood,
		Country:           u.Country,
		State:             u.State,
		Town:              u.Town,
	}
}

func (d locationDoc) update() contact.LocationUpdate {
	return contact.LocationUpdate{
		ID:                d.ID,
		UserPrincipalName: d.UserPrincipalName,
		InsertTime:        d.InsertTime.UTC(),
		Position:          d.Position.point(),
		Mood:              d.Mood,
		Country:           d.Country,
		State:             d.State,
		Town:              d.Town,
	}
}

// withinSphere：$centerSphere 的半径以弧度表示
func withinSphere(p geo.Point, radiusMeters float64) bson.D {
	return bson.D{{Key: "$geoWithin", Value: bson.D{
		{Key: "$centerSphere", Value: bson.A{bson.A{p.Lon, p.Lat}, radiusMeters / geo.EarthRadiusMeters}},
	}}}
}

func allFilter(after *store.Cursor) bson.D {
	if after == nil {
		return bson.D{}
	}
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: bson.D{{Key: "$gt", Value: after.Name}}}},
		bson.D{{Key: "name", Value: after.Name}, {Key: "_id", Value: bson.D{{Key: "$gt", Value: after.Key}}}},
	}}}
}

func nearHomeFilter(p geo.Point, radiusMeters float64, after *store.Cursor) bson.D {
	f := bson.D{{Key: "hometown", Value: withinSphere(p, radiusMeters)}}
	if after != nil {
		f = append(f, bson.E{Key: "_id", Value: bson.D{{Key: "$gt", Value: after.Key}}})
	}
	return f
}

func recentFilter(p geo.Point, radiusMeters float64, since time.Time, after *store.Cursor) bson.D {
	f := bson.D{
		{Key: "insert_time", Value: bson.D{{Key: "$gt", Value: since.UTC()}}},
		{Key: "position", Value: withinSphere(p, radiusMeters)},
	}
	if after != nil {
		f = append(f, bson.E{Key: "_id", Value: bson.D{{Key: "$gt", Value: after.Key}}})
	}
	return f
}
