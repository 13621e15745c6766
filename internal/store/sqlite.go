package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/freight-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS combine_runs (
	id          TEXT PRIMARY KEY,
	inland_file TEXT NOT NULL,
	ocean_file  TEXT NOT NULL,
	output_file TEXT NOT NULL DEFAULT '',
	total       INTEGER NOT NULL,
	matched     INTEGER NOT NULL,
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ranked_routes (
	run_id         TEXT NOT NULL,
	destination    TEXT NOT NULL,
	container_type TEXT NOT NULL,
	pod            TEXT NOT NULL,
	transport_mode TEXT NOT NULL DEFAULT '',
	currency       TEXT NOT NULL DEFAULT '',
	remarks        TEXT NOT NULL DEFAULT '',
	rate           REAL,
	ocean_rate     REAL,
	total_rate     REAL,
	matched        INTEGER NOT NULL DEFAULT 0,
	cost_rank      INTEGER NOT NULL DEFAULT 0,
	total_routes   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS surcharge_tables (
	id           TEXT PRIMARY KEY,
	destination  TEXT NOT NULL UNIQUE,
	origin       TEXT NOT NULL DEFAULT '',
	via          TEXT NOT NULL DEFAULT '',
	columns      TEXT NOT NULL,
	has_20std    INTEGER NOT NULL DEFAULT 0,
	charges      TEXT NOT NULL,
	extracted_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS resolution_events (
	id          TEXT PRIMARY KEY,
	destination TEXT NOT NULL,
	kind        TEXT NOT NULL,
	prefix      TEXT NOT NULL DEFAULT '',
	selected    TEXT NOT NULL DEFAULT '',
	score       INTEGER NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_ranked_routes_lane ON ranked_routes(destination, container_type, cost_rank);
CREATE INDEX IF NOT EXISTS idx_resolution_events_kind ON resolution_events(kind);
CREATE INDEX IF NOT EXISTS idx_resolution_events_created ON resolution_events(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRankedRoutes(ctx context.Context, runID string, routes []model.RankedRoute) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin save routes")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM ranked_routes`); err != nil {
		return eris.Wrap(err, "sqlite: clear routes")
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(routeColumns)), ", ")
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ranked_routes (`+strings.Join(routeColumns, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare insert route")
	}
	defer stmt.Close() //nolint:errcheck

	for _, r := range routes {
		if _, err := stmt.ExecContext(ctx, routeValues(runID, r)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert route %s/%s/%s", r.Destination, r.ContainerType, r.POD)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit routes")
}

const routeSelect = `SELECT destination, container_type, pod, transport_mode, currency, remarks,
	rate, ocean_rate, total_rate, matched, cost_rank, total_routes FROM ranked_routes`

func (s *SQLiteStore) ListRoutes(ctx context.Context, destination, containerType string) ([]model.RankedRoute, error) {
	rows, err := s.db.QueryContext(ctx,
		routeSelect+` WHERE destination = ? AND container_type = ? ORDER BY cost_rank = 0, cost_rank, pod`,
		destination, containerType,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list routes")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.RankedRoute
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan route")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list routes iterate")
}

func (s *SQLiteStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct")
	}
	defer rows.Close() //nolint:errcheck

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan distinct")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: distinct iterate")
}

func (s *SQLiteStore) ListDestinations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT destination FROM ranked_routes ORDER BY destination`)
}

func (s *SQLiteStore) ListContainerTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT container_type FROM ranked_routes ORDER BY container_type`)
}

func (s *SQLiteStore) CreateCombineRun(ctx context.Context, run *model.CombineRun) error {
	run.ID = uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO combine_runs (id, inland_file, ocean_file, output_file, total, matched, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.InlandFile, run.OceanFile, run.OutputFile, run.Total, run.Matched, run.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert combine run")
}

func (s *SQLiteStore) SaveSurchargeTable(ctx context.Context, t *model.SurchargeTable) error {
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal columns")
	}
	charges, err := json.Marshal(t.Charges)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal charges")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.ExtractedAt.IsZero() {
		t.ExtractedAt = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO surcharge_tables (id, destination, origin, via, columns, has_20std, charges, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(destination) DO UPDATE SET
			id = excluded.id, origin = excluded.origin, via = excluded.via, columns = excluded.columns,
			has_20std = excluded.has_20std, charges = excluded.charges, extracted_at = excluded.extracted_at`,
		t.ID, t.Route.To, t.Route.From, t.Route.Via, string(columns), t.Has20STD, string(charges), t.ExtractedAt,
	)
	return eris.Wrapf(err, "sqlite: save surcharge table %s", t.Route.To)
}

func (s *SQLiteStore) GetSurchargeTable(ctx context.Context, destination string) (*model.SurchargeTable, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, destination, origin, via, columns, has_20std, charges, extracted_at FROM surcharge_tables WHERE destination = ?`,
		destination,
	)

	var (
		t                model.SurchargeTable
		columns, charges string
	)
	err := row.Scan(&t.ID, &t.Route.To, &t.Route.From, &t.Route.Via, &columns, &t.Has20STD, &charges, &t.ExtractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: surcharge table %s", destination)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get surcharge table %s", destination)
	}
	if err := json.Unmarshal([]byte(columns), &t.Columns); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal columns")
	}
	if err := json.Unmarshal([]byte(charges), &t.Charges); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal charges")
	}
	return &t, nil
}

func (s *SQLiteStore) ListSurchargeDestinations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT destination FROM surcharge_tables ORDER BY destination`)
}

func (s *SQLiteStore) RecordResolution(ctx context.Context, ev *model.ResolutionEvent) error {
	ev.ID = uuid.New().String()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO resolution_events (id, destination, kind, prefix, selected, score, detail, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.Destination, ev.Kind, ev.Prefix, ev.Selected, ev.Score, ev.Detail, ev.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: record resolution %s", ev.Destination)
}

func (s *SQLiteStore) ListResolutions(ctx context.Context, filter ResolutionFilter) ([]model.ResolutionEvent, error) {
	query := `SELECT id, destination, kind, prefix, selected, score, detail, created_at FROM resolution_events WHERE 1=1`
	var args []any
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.Destination != "" {
		query += ` AND destination = ?`
		args = append(args, filter.Destination)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list resolutions")
	}
	defer rows.Close() //nolint:errcheck

	out := []model.ResolutionEvent{}
	for rows.Next() {
		ev, err := scanResolution(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan resolution")
		}
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list resolutions iterate")
}
