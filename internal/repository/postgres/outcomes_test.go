package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amorlink/engage/internal/domain"
)

func TestOutcomeRepo_ClaimInsertsSlot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO delivery_outcomes").
		WithArgs(sqlmock.AnyArg(), "user-1", domain.CategoryWinback, "winback:2026-08-28").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewOutcomeRepo(db)
	id, claimed, err := repo.Claim(context.Background(), "user-1", domain.CategoryWinback, "winback:2026-08-28")
	require.NoError(t, err)
	assert.True(t, claimed)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeRepo_ClaimConflictSkips(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// ON CONFLICT DO NOTHING reports zero affected rows for a taken slot.
	mock.ExpectExec("INSERT INTO delivery_outcomes").
		WithArgs(sqlmock.AnyArg(), "user-1", domain.CategoryBirthday, "birthday:2026").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewOutcomeRepo(db)
	_, claimed, err := repo.Claim(context.Background(), "user-1", domain.CategoryBirthday, "birthday:2026")
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutcomeRepo_FinishUnknownClaim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE delivery_outcomes").
		WithArgs(true, "ext-1", "", "missing-id").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewOutcomeRepo(db)
	err = repo.Finish(context.Background(), "missing-id", true, "ext-1", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOutcomeRepo_LastSendAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sentAt := time.Date(2026, 8, 20, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("user-1", domain.CategoryWinback).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(sentAt))

	repo := NewOutcomeRepo(db)
	at, found, err := repo.LastSendAt(context.Background(), "user-1", domain.CategoryWinback)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, sentAt, at)
}

func TestOutcomeRepo_LastSendAtNoHistory(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs("user-1", domain.CategoryDigest).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}))

	repo := NewOutcomeRepo(db)
	_, found, err := repo.LastSendAt(context.Background(), "user-1", domain.CategoryDigest)
	require.NoError(t, err)
	assert.False(t, found)
}
