package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"geocontacts/internal/contact"
)

func TestLatestPerIdentity(t *testing.T) {
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	in := []contact.LocationUpdate{
		{ID: "a1", UserPrincipalName: "a", InsertTime: base},
		{ID: "b1", UserPrincipalName: "b", InsertTime: base.Add(time.Hour)},
		{ID: "a2", UserPrincipalName: "a", InsertTime: base.Add(2 * time.Hour)},
		{ID: "a0", UserPrincipalName: "a", InsertTime: base.Add(-time.Hour)},
		{ID: "b2", UserPrincipalName: "b", InsertTime: base.Add(time.Hour)},
	}
	got := LatestPerIdentity(in)
	assert.Equal(t, []string{"a2", "b1"}, ids(got), "ties keep the first entry seen")

	for _, kept := range got {
		for _, u := range in {
			if u.UserPrincipalName == kept.UserPrincipalName {
				assert.False(t, u.InsertTime.After(kept.InsertTime))
			}
		}
	}
	assert.Empty(t, LatestPerIdentity(nil))
}

func TestRecentSince(t *testing.T) {
	got := RecentSince(time.Date(2024, 6, 10, 23, 59, 0, 0, time.FixedZone("X", 3*3600)), 7)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), got)
}

func ids(us []contact.LocationUpdate) []string {
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.ID
	}
	return out
}
