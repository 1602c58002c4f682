package metadata

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value BLOB NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestSetAndGet_InsertThenGet(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "jwtToken", []byte("a.b.c")))

	v, err := r.Get(ctx, "jwtToken")
	require.NoError(t, err)
	require.Equal(t, []byte("a.b.c"), v)
}

func TestGet_NotExists_ReturnsNilNil(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))

	v, err := r.Get(context.Background(), "absent")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestSet_UpsertOverwritesValue(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "k", []byte("old")))
	require.NoError(t, r.Set(ctx, "k", []byte("new")))

	v, err := r.Get(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, []byte("new"), v)
}

func TestDelete_RemovesKeys_AndIsIdempotent(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "x", []byte{0x01}))
	require.NoError(t, r.Set(ctx, "y", []byte{0x02}))
	require.NoError(t, r.Set(ctx, "z", []byte{0x03}))
	require.NoError(t, r.Delete(ctx, "x", "y"))

	for _, k := range []string{"x", "y"} {
		v, err := r.Get(ctx, k)
		require.NoError(t, err)
		require.Nil(t, v, k)
	}
	v, err := r.Get(ctx, "z")
	require.NoError(t, err)
	require.Equal(t, []byte{0x03}, v)

	require.NoError(t, r.Delete(ctx, "x"))
	require.NoError(t, r.Delete(ctx))
}

func TestClear_RemovesAllKeys(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, "a", []byte{1}))
	require.NoError(t, r.Set(ctx, "b", []byte{2}))
	require.NoError(t, r.Clear(ctx))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM metadata`).Scan(&n))
	require.Zero(t, n)
}

func newMock(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteRepository(db), mock
}

func TestGet_DBErrorWrapped(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM metadata WHERE key = ?`)).
		WithArgs("k").
		WillReturnError(errors.New("driver down"))

	v, err := r.Get(context.Background(), "k")
	require.Nil(t, v)
	require.ErrorContains(t, err, "failed to get metadata[k]: driver down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSet_DBErrorWrapped(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO metadata`).
		WithArgs("k", []byte("v")).
		WillReturnError(errors.New("readonly"))

	err := r.Set(context.Background(), "k", []byte("v"))
	require.ErrorContains(t, err, "failed to set metadata[k]")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_DBErrorWrapped(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM metadata WHERE key IN (?,?)`)).
		WithArgs("a", "b").
		WillReturnError(errors.New("locked"))

	err := r.Delete(context.Background(), "a", "b")
	require.ErrorContains(t, err, "failed to delete metadata[a b]")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClear_DBErrorWrapped(t *testing.T) {
	r, mock := newMock(t)
	mock.ExpectExec(`DELETE FROM metadata`).WillReturnError(errors.New("locked"))

	err := r.Clear(context.Background())
	require.ErrorContains(t, err, "failed to clear metadata")
	require.NoError(t, mock.ExpectationsWereMet())
}
