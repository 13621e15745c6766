package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Pool = (pgxmock.PgxPoolIface)(nil)

func TestCopyFrom_EmptyRows(t *testing.T) {
	n, err := CopyFrom(context.Background(), nil, "ranked_routes", []string{"a", "b"}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopyFrom_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"ranked_routes"}, []string{"pod", "rate"}).WillReturnResult(2)

	n, err := CopyFrom(context.Background(), mock, "ranked_routes", []string{"pod", "rate"}, [][]any{{"BUSAN", 1.0}, {"ANTWERP", 2.0}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopyFrom_Errors(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"ranked_routes"}, []string{"pod"}).WillReturnError(errors.New("copy failed"))
	_, err = CopyFrom(context.Background(), mock, "ranked_routes", []string{"pod"}, [][]any{{"BUSAN"}})
	assert.ErrorContains(t, err, "COPY INTO ranked_routes")

	mock.ExpectCopyFrom(pgx.Identifier{"ranked_routes"}, []string{"pod"}).WillReturnResult(1)
	_, err = CopyFrom(context.Background(), mock, "ranked_routes", []string{"pod"}, [][]any{{"BUSAN"}, {"ANTWERP"}})
	assert.ErrorContains(t, err, "wrote 1 of 2 rows")

	assert.NoError(t, mock.ExpectationsWereMet())
}
