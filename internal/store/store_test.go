package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"geocontacts/internal/contact"
	"geocontacts/internal/geo"
)

var contactCols = []string{"user_principal_name", "name", "hometown_name", "lon", "lat", "image", "twitter"}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return AttachDB(db, 2), mock
}

func TestFetchAllContactsDrainsPages(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("ORDER BY name, user_principal_name").
		WithArgs(false, "", "", 2).
		WillReturnRows(sqlmock.NewRows(contactCols).
			AddRow("a@x", "Ann", "Oslo", 10.75, 59.91, []byte(`{"Src":"a.png"}`), "https://twitter.com/ann").
			AddRow("b@x", "Bob", nil, 0.0, 0.0, []byte(`{}`), ""))
	mock.ExpectQuery("ORDER BY name, user_principal_name").
		WithArgs(true, "Bob", "b@x", 2).
		WillReturnRows(sqlmock.NewRows(contactCols).
			AddRow("c@x", "Cid", "Rome", 12.49, 41.9, []byte(`{"Src":"http://img/c.png"}`), "cid"))

	got, err := s.FetchAllContacts(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Ann", got[0].Name)
	assert.Equal(t, contact.Hometown{Name: "Oslo", Position: geo.NewPoint(10.75, 59.91)}, got[0].Hometown)
	assert.Equal(t, map[string]string{"Src": "a.png"}, got[0].Image)
	assert.Equal(t, "", got[1].Hometown.Name)
	assert.Equal(t, "c@x", got[2].UserPrincipalName)
	assert.Nil(t, got[0].CurrentLocation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAllContactsWrapsTransportError(t *testing.T) {
	s, mock := newMock(t)
	boom := errors.New("connection refused")
	mock.ExpectQuery("FROM contacts").WillReturnError(boom)

	_, err := s.FetchAllContacts(context.Background())
	var te *contact.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "fetch_all", te.Op)
	assert.ErrorIs(t, err, boom)
}

func TestFetchContactsNearHome(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("ST_DWithin\\(hometown").
		WithArgs(1.5, 2.5, 50000.0, "", 2).
		WillReturnRows(sqlmock.NewRows(contactCols).
			AddRow("a@x", "Ann", "Here", 1.5, 2.5, []byte(`{}`), "ann"))

	got, err := s.FetchContactsNearHome(context.Background(), geo.NewPoint(1.5, 2.5), 50000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a@x", got[0].UserPrincipalName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchRecentLocations(t *testing.T) {
	s, mock := newMock(t)
	since := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	at := since.Add(36 * time.Hour)
	cols := []string{"id", "upn", "insert_time", "lon", "lat", "mood", "country", "state", "town"}
	mock.ExpectQuery("FROM location_updates").
		WithArgs(0.0, 0.0, since, 50000.0, "", 2).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("id-1", "a@x", at, 0.01, 0.02, "happy", "NO", "Oslo", "Oslo").
			AddRow("id-2", "b@x", at, 0.03, 0.04, "", "", "", ""))
	mock.ExpectQuery("FROM location_updates").
		WithArgs(0.0, 0.0, since, 50000.0, "id-2", 2).
		WillReturnRows(sqlmock.NewRows(cols))

	got, err := s.FetchRecentLocations(context.Background(), geo.NewPoint(0, 0), 50000, since)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, contact.LocationUpdate{
		ID: "id-1", UserPrincipalName: "a@x", InsertTime: at,
		Position: geo.NewPoint(0.01, 0.02), Mood: "happy", Country: "NO", State: "Oslo", Town: "Oslo",
	}, got[0])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetContactNotFound(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("WHERE user_principal_name = \\$1").
		WithArgs("ghost@x").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetContact(context.Background(), "ghost@x")
	assert.ErrorIs(t, err, contact.ErrNotFound)
}

func TestInsertLocation(t *testing.T) {
	s, mock := newMock(t)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec("INSERT INTO location_updates").
		WithArgs("id-1", "a@x", at, 3.0, 4.0, "ok", "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.InsertLocation(context.Background(), contact.LocationUpdate{
		ID: "id-1", UserPrincipalName: "a@x", InsertTime: at, Position: geo.NewPoint(3, 4), Mood: "ok",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveContactDefaultsImage(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO contacts").
		WithArgs("a@x", "Ann", "Oslo", 10.0, 59.0, "{}", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.SaveContact(context.Background(), contact.Contact{
		UserPrincipalName: "a@x", Name: "Ann",
		Hometown: contact.Hometown{Name: "Oslo", Position: geo.NewPoint(10, 59)},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
