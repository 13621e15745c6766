package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/freight-cli/internal/db"
	"github.com/sells-group/freight-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements are prepared on each new connection.
var preparedStatements = map[string]string{
	"list_routes":         `SELECT destination, container_type, pod, transport_mode, currency, remarks, rate, ocean_rate, total_rate, matched, cost_rank, total_routes FROM ranked_routes WHERE destination = $1 AND container_type = $2 ORDER BY cost_rank = 0, cost_rank, pod`,
	"get_surcharge_table": `SELECT id, destination, origin, via, columns, has_20std, charges, extracted_at FROM surcharge_tables WHERE destination = $1`,
	"insert_resolution":   `INSERT INTO resolution_events (id, destination, kind, prefix, selected, score, detail, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
	"insert_combine_run":  `INSERT INTO combine_runs (id, inland_file, ocean_file, output_file, total, matched, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS combine_runs (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	inland_file TEXT NOT NULL,
	ocean_file  TEXT NOT NULL,
	output_file TEXT NOT NULL DEFAULT '',
	total       INTEGER NOT NULL,
	matched     INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ranked_routes (
	run_id         TEXT NOT NULL,
	destination    TEXT NOT NULL,
	container_type TEXT NOT NULL,
	pod            TEXT NOT NULL,
	transport_mode TEXT NOT NULL DEFAULT '',
	currency       TEXT NOT NULL DEFAULT '',
	remarks        TEXT NOT NULL DEFAULT '',
	rate           DOUBLE PRECISION,
	ocean_rate     DOUBLE PRECISION,
	total_rate     DOUBLE PRECISION,
	matched        BOOLEAN NOT NULL DEFAULT false,
	cost_rank      INTEGER NOT NULL DEFAULT 0,
	total_routes   INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_ranked_routes_lane ON ranked_routes(destination, container_type, cost_rank);

CREATE TABLE IF NOT EXISTS surcharge_tables (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	destination  TEXT NOT NULL UNIQUE,
	origin       TEXT NOT NULL DEFAULT '',
	via          TEXT NOT NULL DEFAULT '',
	columns      JSONB NOT NULL,
	has_20std    BOOLEAN NOT NULL DEFAULT false,
	charges      JSONB NOT NULL,
	extracted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS resolution_events (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	destination TEXT NOT NULL,
	kind        TEXT NOT NULL,
	prefix      TEXT NOT NULL DEFAULT '',
	selected    TEXT NOT NULL DEFAULT '',
	score       INTEGER NOT NULL DEFAULT 0,
	detail      TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_resolution_events_kind ON resolution_events(kind);
CREATE INDEX IF NOT EXISTS idx_resolution_events_created ON resolution_events(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SaveRankedRoutes replaces the route table with routes in one transaction.
func (s *PostgresStore) SaveRankedRoutes(ctx context.Context, runID string, routes []model.RankedRoute) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin save routes")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM ranked_routes`); err != nil {
		return eris.Wrap(err, "postgres: clear routes")
	}

	rows := make([][]any, len(routes))
	for i, r := range routes {
		rows[i] = routeValues(runID, r)
	}
	if _, err := db.CopyFrom(ctx, tx, "ranked_routes", routeColumns, rows); err != nil {
		return eris.Wrap(err, "postgres: copy routes")
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit routes")
}

func (s *PostgresStore) ListRoutes(ctx context.Context, destination, containerType string) ([]model.RankedRoute, error) {
	rows, err := s.pool.Query(ctx, "list_routes", destination, containerType)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list routes")
	}
	defer rows.Close()

	var out []model.RankedRoute
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan route")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list routes iterate")
}

func (s *PostgresStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct")
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, eris.Wrap(err, "postgres: scan distinct")
		}
		out = append(out, v)
	}
	return out, eris.Wrap(rows.Err(), "postgres: distinct iterate")
}

func (s *PostgresStore) ListDestinations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT destination FROM ranked_routes ORDER BY destination`)
}

func (s *PostgresStore) ListContainerTypes(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT container_type FROM ranked_routes ORDER BY container_type`)
}

func (s *PostgresStore) CreateCombineRun(ctx context.Context, run *model.CombineRun) error {
	run.ID = uuid.New().String()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, "insert_combine_run",
		run.ID, run.InlandFile, run.OceanFile, run.OutputFile, run.Total, run.Matched, run.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert combine run")
}

func (s *PostgresStore) SaveSurchargeTable(ctx context.Context, t *model.SurchargeTable) error {
	columns, err := json.Marshal(t.Columns)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal columns")
	}
	charges, err := json.Marshal(t.Charges)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal charges")
	}
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.ExtractedAt.IsZero() {
		t.ExtractedAt = time.Now().UTC()
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO surcharge_tables (id, destination, origin, via, columns, has_20std, charges, extracted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (destination) DO UPDATE SET
			id = EXCLUDED.id, origin = EXCLUDED.origin, via = EXCLUDED.via, columns = EXCLUDED.columns,
			has_20std = EXCLUDED.has_20std, charges = EXCLUDED.charges, extracted_at = EXCLUDED.extracted_at`,
		t.ID, t.Route.To, t.Route.From, t.Route.Via, columns, t.Has20STD, charges, t.ExtractedAt,
	)
	return eris.Wrapf(err, "postgres: save surcharge table %s", t.Route.To)
}

func (s *PostgresStore) GetSurchargeTable(ctx context.Context, destination string) (*model.SurchargeTable, error) {
	var (
		t                model.SurchargeTable
		columns, charges []byte
	)
	err := s.pool.QueryRow(ctx, "get_surcharge_table", destination).
		Scan(&t.ID, &t.Route.To, &t.Route.From, &t.Route.Via, &columns, &t.Has20STD, &charges, &t.ExtractedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: surcharge table %s", destination)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get surcharge table %s", destination)
	}
	if err := json.Unmarshal(columns, &t.Columns); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal columns")
	}
	if err := json.Unmarshal(charges, &t.Charges); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal charges")
	}
	return &t, nil
}

func (s *PostgresStore) ListSurchargeDestinations(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT destination FROM surcharge_tables ORDER BY destination`)
}

func (s *PostgresStore) RecordResolution(ctx context.Context, ev *model.ResolutionEvent) error {
	ev.ID = uuid.New().String()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, "insert_resolution",
		ev.ID, ev.Destination, ev.Kind, ev.Prefix, ev.Selected, ev.Score, ev.Detail, ev.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: record resolution %s", ev.Destination)
}

func (s *PostgresStore) ListResolutions(ctx context.Context, filter ResolutionFilter) ([]model.ResolutionEvent, error) {
	query := `SELECT id, destination, kind, prefix, selected, score, detail, created_at FROM resolution_events WHERE 1=1`
	var args []any
	if filter.Kind != "" {
		args = append(args, filter.Kind)
		query += fmt.Sprintf(" AND kind = $%d", len(args))
	}
	if filter.Destination != "" {
		args = append(args, filter.Destination)
		query += fmt.Sprintf(" AND destination = $%d", len(args))
	}
	args = append(args, filter.limit())
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list resolutions")
	}
	defer rows.Close()

	out := []model.ResolutionEvent{}
	for rows.Next() {
		ev, err := scanResolution(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan resolution")
		}
		out = append(out, ev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list resolutions iterate")
}
