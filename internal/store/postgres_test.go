package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"landplot/internal/errkind"
	"landplot/internal/geometry"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cols      = []string{"id", "name", "owner", "properties", "geometry", "area", "perimeter", "side_lengths", "created_at", "updated_at"}
	square    = geometry.Ring{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}, {X: 0, Y: 0}}
	stamp     = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	squareWKB []byte
)

func init() {
	var err error
	if squareWKB, err = geometry.ToStorageBytes(square); err != nil {
		panic(err)
	}
}

func setupMockDB(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgres(db), mock
}

func squareRow(id int64, name, owner string) *sqlmock.Rows {
	return sqlmock.NewRows(cols).AddRow(id, name, owner, []byte(`{"crop":"wheat"}`), squareWKB, 1.0, 4.0, "{1,1,1,1}", stamp, stamp)
}

func TestPostgresInsert(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO land_plots(name, owner, properties, geometry, area, perimeter, side_lengths)")).
		WithArgs("North field", "alice", `{"crop":"wheat"}`, squareWKB, 1.0, 4.0, sqlmock.AnyArg()).
		WillReturnRows(squareRow(1, "North field", "alice"))

	p, err := repo.Insert(context.Background(), Plot{
		Name:       "North field",
		Owner:      "alice",
		Properties: json.RawMessage(`{"crop":"wheat"}`),
		Shape:      Shape{Geometry: square, Area: 1, Perimeter: 4, SideLengths: []float64{1, 1, 1, 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.True(t, square.Equal(p.Geometry))
	assert.Equal(t, []float64{1, 1, 1, 1}, p.SideLengths)
	assert.JSONEq(t, `{"crop":"wheat"}`, string(p.Properties))
	assert.Equal(t, stamp, p.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInsertDuplicate(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery("INSERT INTO land_plots").WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value"})

	_, err := repo.Insert(context.Background(), Plot{Name: "a", Owner: "b", Shape: Shape{Geometry: square}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrDuplicateKey))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM land_plots WHERE id=$1")).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.Get(context.Background(), 9)
	assert.True(t, errors.Is(err, errkind.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetCorruptGeometry(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery("FROM land_plots WHERE id").WillReturnRows(
		sqlmock.NewRows(cols).AddRow(3, "n", "o", []byte(`{}`), []byte{0xde, 0xad}, 1.0, 4.0, "{1,1,1,1}", stamp, stamp))

	_, err := repo.Get(context.Background(), 3)
	require.Error(t, err)
	assert.Equal(t, errkind.KindStorage, errkind.Of(err))
}

func TestPostgresStorageErrorIsTransientOnCancel(t *testing.T) {
	repo, _ := setupMockDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.Get(ctx, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrStorage))
	assert.True(t, errkind.IsTransient(err))
}

func TestPostgresList(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + plotColumns + " FROM land_plots ORDER BY area DESC, id")).
		WillReturnRows(squareRow(2, "b", "alice").AddRow(1, "a", "alice", []byte(`null`), squareWKB, 1.0, 4.0, "{1,1,1,1}", stamp, stamp))

	plots, err := repo.List(context.Background(), ListOptions{OrderBy: "area", Desc: true})
	require.NoError(t, err)
	require.Len(t, plots, 2)
	assert.Equal(t, int64(2), plots[0].ID)
	assert.Equal(t, json.RawMessage(`{}`), plots[1].Properties)
	assert.NoError(t, mock.ExpectationsWereMet())

	_, err = repo.List(context.Background(), ListOptions{OrderBy: "geometry; DROP TABLE land_plots"})
	assert.Error(t, err)
}

func TestPostgresListEmpty(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT " + plotColumns + " FROM land_plots")).WillReturnRows(sqlmock.NewRows(cols))

	plots, err := repo.List(context.Background(), ListOptions{})
	require.NoError(t, err)
	assert.NotNil(t, plots)
	assert.Empty(t, plots)
}

func TestPostgresUpdateOwnerOnly(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM land_plots WHERE id=$1 FOR UPDATE")).WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE land_plots SET owner=$2, updated_at=now() WHERE id=$1 RETURNING")).
		WithArgs(int64(1), "bob").
		WillReturnRows(squareRow(1, "North field", "bob"))
	mock.ExpectCommit()

	owner := "bob"
	p, err := repo.Update(context.Background(), 1, Patch{Owner: &owner})
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Owner)
	assert.True(t, square.Equal(p.Geometry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateShapeWritesAllFourColumns(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE land_plots SET geometry=$2, area=$3, perimeter=$4, side_lengths=$5, updated_at=now() WHERE id=$1")).
		WithArgs(int64(1), squareWKB, 1.0, 4.0, sqlmock.AnyArg()).
		WillReturnRows(squareRow(1, "n", "o"))
	mock.ExpectCommit()

	_, err := repo.Update(context.Background(), 1, Patch{Shape: &Shape{Geometry: square, Area: 1, Perimeter: 4, SideLengths: []float64{1, 1, 1, 1}}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateRollsBackOnFailure(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("UPDATE land_plots SET").WillReturnError(errors.New("connection reset by peer"))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), 1, Patch{Shape: &Shape{Geometry: square, Area: 1, Perimeter: 4, SideLengths: []float64{1, 1, 1, 1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errkind.ErrStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateCommitFailure(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("UPDATE land_plots SET").WillReturnRows(squareRow(1, "n", "o"))
	mock.ExpectCommit().WillReturnError(sql.ErrConnDone)

	name := "n"
	_, err := repo.Update(context.Background(), 1, Patch{Name: &name})
	assert.True(t, errors.Is(err, errkind.ErrStorage))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateNotFound(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(int64(42)).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	name := "x"
	_, err := repo.Update(context.Background(), 42, Patch{Name: &name})
	assert.True(t, errors.Is(err, errkind.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDelete(t *testing.T) {
	repo, mock := setupMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM land_plots WHERE id=$1")).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM land_plots WHERE id=$1")).WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), 1))
	err := repo.Delete(context.Background(), 2)
	assert.True(t, errors.Is(err, errkind.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}
