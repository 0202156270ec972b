package contact

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocontacts/internal/geo"
)

func TestNotFoundErrorIs(t *testing.T) {
	err := fmt.Errorf("lookup: %w", &NotFoundError{UserPrincipalName: "a@x"})
	assert.ErrorIs(t, err, ErrNotFound)

	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "a@x", nf.UserPrincipalName)
}

func TestTransportWrapsOnce(t *testing.T) {
	base := errors.New("connection reset")
	err := Transport("fetch_all", base)
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "contact store fetch_all: connection reset", err.Error())

	again := Transport("outer", err)
	assert.Same(t, err, again)
	assert.NoError(t, Transport("noop", nil))
}

func TestGroupLabelText(t *testing.T) {
	for _, l := range GroupLabels {
		b, err := l.MarshalText()
		require.NoError(t, err)
		var back GroupLabel
		require.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, l, back)
	}
	_, err := GroupLabel(7).MarshalText()
	assert.Error(t, err)
}

func TestContactJSONOmitsRuntimeFields(t *testing.T) {
	c := Contact{
		UserPrincipalName: "a@x",
		Name:              "A",
		Hometown:          Hometown{Name: "Seattle", Position: geo.NewPoint(-122.3, 47.6)},
		Image:             map[string]string{"Src": "a.png"},
		Twitter:           "https://twitter.com/a",
	}
	b, err := json.Marshal(c)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "CurrentLocation")
	assert.NotContains(t, string(b), "Mood")

	var back Contact
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, c, back)
}

func TestGroupJSON(t *testing.T) {
	g := Group{Label: GroupHometown, Contacts: []Contact{{UserPrincipalName: "a@x", Name: "A"}}}
	b, err := json.Marshal(g)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"Key":"hometown-proximity"`)

	u := LocationUpdate{UserPrincipalName: "a@x", InsertTime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	b, err = json.Marshal(u)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"InsertTime":"2024-01-02T03:04:05Z"`)
}
