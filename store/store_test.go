package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/leadscout/models"
)

func newMockStore(t *testing.T) (*PGStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPGStore(mock), mock
}

func TestAppend(t *testing.T) {
	s, mock := newMockStore(t)

	leads := []models.Lead{
		models.NewLead("Mario's Plumbing", "Plumber", "12 Canal St", "0161", "https://m.example", "4.7", "132"),
		models.NewLead("Luigi's Pipes", "", "", "", "", "", ""),
	}

	mock.ExpectBegin()
	for _, l := range leads {
		mock.ExpectExec("INSERT INTO leads").
			WithArgs(l.Name, l.Category, l.Address, l.Phone, l.Website,
				l.HasWebsite, l.Rating, l.ReviewCount,
				SourceMapSearch, "plumbers", pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
	}
	mock.ExpectCommit()

	n, err := s.Append(context.Background(), leads, SourceMapSearch, "plumbers")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppend_Empty(t *testing.T) {
	s, mock := newMockStore(t)

	n, err := s.Append(context.Background(), nil, SourceMapSearch, "plumbers")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet(), "empty append must not touch the database")
}

func TestAppend_InsertFailureRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	n, err := s.Append(context.Background(),
		[]models.Lead{models.NewLead("x", "", "", "", "", "", "")},
		SourceMapSearch, "q")
	require.Error(t, err)
	assert.Zero(t, n)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeStorageFailed, se.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	rows := pgxmock.NewRows([]string{
		"id", "name", "category", "address", "phone", "website",
		"has_website", "rating", "review_count", "source", "query", "created_at",
	}).
		AddRow(int64(2), "Luigi's Pipes", "", "", "", "", false, "", "", SourceMapSearch, "plumbers", now).
		AddRow(int64(1), "Mario's Plumbing", "Plumber", "12 Canal St", "0161", "https://m.example",
			true, "4.7", "132", SourceMapSearch, "plumbers", now.Add(-time.Hour))

	mock.ExpectQuery("FROM leads ORDER BY").WillReturnRows(rows)

	leads, err := s.List(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Luigi's Pipes", leads[0].Name)
	assert.False(t, leads[0].HasWebsite)
	assert.True(t, leads[1].HasWebsite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_HighPriorityOnly(t *testing.T) {
	s, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "name", "category", "address", "phone", "website",
		"has_website", "rating", "review_count", "source", "query", "created_at",
	}).AddRow(int64(1), "No Site Bakery", "Bakery", "", "", "", false, "", "",
		SourceMapSearch, "bakeries", time.Now())

	mock.ExpectQuery("FROM leads WHERE has_website = FALSE").
		WillReturnRows(rows)

	leads, err := s.List(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.False(t, leads[0].HasWebsite)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_QueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("FROM leads").WillReturnError(errors.New("conn reset"))

	_, err := s.List(context.Background(), false)
	require.Error(t, err)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeStorageFailed, se.Code)
}
