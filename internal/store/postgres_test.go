package store

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/freight-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS combine_runs`).WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRankedRoutes(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	routes := testRoutes()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ranked_routes`).WillReturnResult(pgxmock.NewResult("DELETE", 7))
	mock.ExpectCopyFrom(pgx.Identifier{"ranked_routes"}, routeColumns).WillReturnResult(int64(len(routes)))
	mock.ExpectCommit()

	require.NoError(t, s.SaveRankedRoutes(context.Background(), "run-1", routes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRankedRoutes_CopyFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM ranked_routes`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"ranked_routes"}, routeColumns).WillReturnError(errors.New("copy failed"))
	mock.ExpectRollback()

	err := s.SaveRankedRoutes(context.Background(), "run-1", testRoutes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "copy routes")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveRankedRoutes_BeginFails(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin().WillReturnError(errors.New("db error"))

	err := s.SaveRankedRoutes(context.Background(), "run-1", testRoutes())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin save routes")
}

func TestPostgresStore_ListDestinations(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT DISTINCT destination FROM ranked_routes`).
		WillReturnRows(pgxmock.NewRows([]string{"destination"}).AddRow("LYON").AddRow("MUENSTER"))

	dests, err := s.ListDestinations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"LYON", "MUENSTER"}, dests)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListContainerTypes_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT DISTINCT container_type`).WillReturnError(errors.New("boom"))

	_, err := s.ListContainerTypes(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSurchargeTable(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	want := testSurchargeTable()

	columns, err := json.Marshal(want.Columns)
	require.NoError(t, err)
	charges, err := json.Marshal(want.Charges)
	require.NoError(t, err)

	mock.ExpectQuery(`get_surcharge_table`).
		WithArgs("MUENSTER, NW, GERMANY").
		WillReturnRows(pgxmock.NewRows([]string{"id", "destination", "origin", "via", "columns", "has_20std", "charges", "extracted_at"}).
			AddRow("st-1", "MUENSTER, NW, GERMANY", "BUSAN", "HAMBURG", columns, true, charges, want.ExtractedAt))

	got, err := s.GetSurchargeTable(context.Background(), "MUENSTER, NW, GERMANY")
	require.NoError(t, err)
	assert.Equal(t, "st-1", got.ID)
	assert.Equal(t, want.Route, got.Route)
	assert.Equal(t, want.Columns, got.Columns)
	assert.Equal(t, want.Charges, got.Charges)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSurchargeTable_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`get_surcharge_table`).
		WithArgs("NOWHERE").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSurchargeTable(context.Background(), "NOWHERE")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveSurchargeTable_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	tbl := testSurchargeTable()

	mock.ExpectExec(`ON CONFLICT \(destination\) DO UPDATE`).
		WithArgs(pgxmock.AnyArg(), "MUENSTER, NW, GERMANY", "BUSAN", "HAMBURG", pgxmock.AnyArg(), true, pgxmock.AnyArg(), tbl.ExtractedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.SaveSurchargeTable(context.Background(), tbl))
	assert.NotEmpty(t, tbl.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RecordResolution(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ev := &model.ResolutionEvent{Destination: "PARIS, FRANCE", Kind: "no_rates_available", Prefix: "PARIS"}

	mock.ExpectExec(`insert_resolution`).
		WithArgs(pgxmock.AnyArg(), "PARIS, FRANCE", "no_rates_available", "PARIS", "", 0, "", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, s.RecordResolution(context.Background(), ev))
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListResolutions_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 1, 13, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`AND kind = \$1 AND destination = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("wrong_country_rejected", "ATHENS, GREECE", 10).
		WillReturnRows(pgxmock.NewRows([]string{"id", "destination", "kind", "prefix", "selected", "score", "detail", "created_at"}).
			AddRow("ev-1", "ATHENS, GREECE", "wrong_country_rejected", "ATHENS", "ATHENS, AL, USA", 160, "", at))

	events, err := s.ListResolutions(context.Background(), ResolutionFilter{
		Kind: "wrong_country_rejected", Destination: "ATHENS, GREECE", Limit: 10,
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ATHENS, AL, USA", events[0].Selected)
	assert.Equal(t, 160, events[0].Score)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateCombineRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`insert_combine_run`).WillReturnResult(pgxmock.NewResult("INSERT", 1))

	run := &model.CombineRun{InlandFile: "in.xlsx", OceanFile: "ocean.xlsx", Total: 3, Matched: 2}
	require.NoError(t, s.CreateCombineRun(context.Background(), run))
	assert.NotEmpty(t, run.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close(t *testing.T) {
	closed := false
	s := &PostgresStore{closeFn: func() { closed = true }}
	require.NoError(t, s.Close())
	assert.True(t, closed)
}
