package directory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
	"geocontacts/internal/store/memstore"
)

func checkin(id, upn string, at time.Time, p geo.Point, mood string) contact.LocationUpdate {
	return contact.LocationUpdate{ID: id, UserPrincipalName: upn, InsertTime: at, Position: p, Mood: mood}
}

func TestNearbyHometownOnly(t *testing.T) {
	f := newFixture(true, memstore.Seed{Contacts: []contact.Contact{
		person("x@x", "Xena", east(10000)),
		person("far@x", "Far", east(80000)),
	}})

	groups, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, contact.GroupHometown, groups[0].Label)
	require.Len(t, groups[0].Contacts, 1)
	got := groups[0].Contacts[0]
	assert.Equal(t, "x@x", got.UserPrincipalName)
	require.NotNil(t, got.CurrentLocation)
	assert.Equal(t, got.Hometown.Position, *got.CurrentLocation)
	assert.Equal(t, "https://base/x@x.png", got.PhotoUrl)
	assert.Equal(t, "@Xena", got.TwitterHandle)
}

func TestNearbyRecentCheckinWins(t *testing.T) {
	f := newFixture(true, memstore.Seed{
		Contacts: []contact.Contact{person("x@x", "Xena", east(10000))},
		Locations: []contact.LocationUpdate{
			checkin("u1", "x@x", now.Add(-24*time.Hour), east(5000), "happy"),
		},
	})

	groups, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, contact.GroupRecentCheckin, groups[0].Label)
	require.Len(t, groups[0].Contacts, 1)
	got := groups[0].Contacts[0]
	require.NotNil(t, got.CurrentLocation)
	assert.InDelta(t, east(5000).Lon, got.CurrentLocation.Lon, 1e-9)
	assert.Equal(t, "happy", got.Mood)
}

func TestNearbyOldCheckinIgnored(t *testing.T) {
	f := newFixture(true, memstore.Seed{
		Contacts: []contact.Contact{
			person("x@x", "Xena", east(10000)),
			person("y@x", "Yuri", east(90000)),
		},
		Locations: []contact.LocationUpdate{
			checkin("u1", "x@x", now.Add(-10*24*time.Hour), east(5000), "old"),
			checkin("u2", "y@x", now.Add(-10*24*time.Hour), east(5000), "old"),
		},
	})

	groups, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, groups, 1, "y@x is absent, x@x falls back to its hometown")
	assert.Equal(t, contact.GroupHometown, groups[0].Label)
	require.Len(t, groups[0].Contacts, 1)
	assert.Equal(t, "x@x", groups[0].Contacts[0].UserPrincipalName)
	assert.Empty(t, groups[0].Contacts[0].Mood)
}

func TestNearbyNoIdentityInBothGroups(t *testing.T) {
	f := newFixture(true, memstore.Seed{
		Contacts: []contact.Contact{
			person("a@x", "Abe", east(1000)),
			person("b@x", "Bea", east(2000)),
			person("c@x", "Cal", east(100000)),
		},
		Locations: []contact.LocationUpdate{
			checkin("u1", "a@x", now.Add(-2*time.Hour), east(3000), ""),
			checkin("u2", "a@x", now.Add(-1*time.Hour), east(4000), "latest"),
			checkin("u3", "c@x", now.Add(-3*time.Hour), east(100), ""),
		},
	})

	groups, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, contact.GroupRecentCheckin, groups[0].Label)
	assert.Equal(t, contact.GroupHometown, groups[1].Label)

	seen := map[string]int{}
	for _, g := range groups {
		assert.NotEmpty(t, g.Contacts)
		for _, c := range g.Contacts {
			seen[c.UserPrincipalName]++
		}
	}
	for upn, n := range seen {
		assert.Equal(t, 1, n, upn)
	}
	recent := groups[0].Contacts
	require.Len(t, recent, 2)
	assert.Equal(t, "latest", recent[0].Mood, "newest check-in per identity")
	assert.Equal(t, "c@x", recent[1].UserPrincipalName)
	assert.Equal(t, []string{"b@x"}, []string{groups[1].Contacts[0].UserPrincipalName})
}

func TestNearbyEmptyResult(t *testing.T) {
	f := newFixture(true, memstore.Seed{Contacts: []contact.Contact{person("far@x", "Far", east(60000))}})
	groups, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestNearbyCheckinWithoutContactFails(t *testing.T) {
	f := newFixture(true, memstore.Seed{
		Locations: []contact.LocationUpdate{checkin("u1", "ghost@x", now.Add(-time.Hour), east(10), "")},
	})
	_, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	require.Error(t, err)
	assert.ErrorIs(t, err, contact.ErrNotFound)
	var nf *contact.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ghost@x", nf.UserPrincipalName)
}

func TestNearbyPicksUpContactAddedAfterSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, memstore.Seed{Contacts: []contact.Contact{person("a@x", "Abe", east(1000))}})
	_, err := f.svc.AllContacts(ctx, false)
	require.NoError(t, err)

	require.NoError(t, f.store.SaveContact(ctx, person("n@x", "Nia", east(90000))))
	require.NoError(t, f.store.InsertLocation(ctx, checkin("1", "n@x", now.Add(-time.Hour), east(500), "new")))

	groups, err := f.svc.Nearby(ctx, geo.NewPoint(0, 0))
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, contact.GroupRecentCheckin, groups[0].Label)
	require.Len(t, groups[0].Contacts, 1)
	got := groups[0].Contacts[0]
	assert.Equal(t, "n@x", got.UserPrincipalName)
	assert.Equal(t, "new", got.Mood)
	assert.Equal(t, "https://base/n@x.png", got.PhotoUrl)
	assert.Equal(t, int32(1), f.src.fetchAll.Load())

	list, ok := f.rc.Load(ctx)
	require.True(t, ok)
	assert.Len(t, list, 1)
}

func TestNearbyPropagatesSourceErrors(t *testing.T) {
	boom := &contact.TransportError{Op: "fetch_near_home", Err: errors.New("reset")}
	f := newFixture(true, memstore.Seed{Contacts: []contact.Contact{person("a@x", "Abe", east(10))}})
	f.src.failHome = boom
	_, err := f.svc.Nearby(context.Background(), geo.NewPoint(0, 0))
	assert.ErrorIs(t, err, boom)
}

func TestNearbyDoesNotMutateCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(true, memstore.Seed{
		Contacts:  []contact.Contact{person("a@x", "Abe", east(10))},
		Locations: []contact.LocationUpdate{checkin("u1", "a@x", now.Add(-time.Hour), east(20), "busy")},
	})
	_, err := f.svc.Nearby(ctx, geo.NewPoint(0, 0))
	require.NoError(t, err)

	list, ok := f.rc.Load(ctx)
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].CurrentLocation)
	assert.Empty(t, list[0].Mood)
}

func TestResolveTieBreakFirstSeen(t *testing.T) {
	all := []contact.Contact{
		{UserPrincipalName: "a@x", Name: "first"},
		{UserPrincipalName: "a@x", Name: "second"},
	}
	groups, err := resolve(all, nil, []contact.LocationUpdate{{UserPrincipalName: "a@x"}})
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "first", groups[0].Contacts[0].Name)
}
