//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jorgelunams/contratospoc/internal/entity"
)

func newPostgresDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	pg, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("contratos_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(pg) })

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := Open(ctx, Config{Driver: dialect.Postgres, DSN: dsn, DialTimeout: 10 * time.Second}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })

	require.NoError(t, Migrate(db, dsn, nil))
	// a second run is a no-op
	require.NoError(t, Migrate(db, dsn, nil))
	return db
}

func TestPostgresSaveAndList(t *testing.T) {
	db := newPostgresDB(t)
	require.NoError(t, HealthCheck(context.Background(), db, 5*time.Second, nil))

	repo := NewContractRepository(db, nil)
	report, err := repo.Save(context.Background(), sampleAggregate())
	require.NoError(t, err)
	require.NotZero(t, report.ContractID)
	assert.Equal(t, 1, entity.Count(report.Fines, entity.ItemInserted))

	for table, want := range map[string]int{
		TableCompany:         1,
		TableProviders:       1,
		TableRepresentatives: 1,
		TableEntities:        2,
		TableFines:           1,
	} {
		var n int
		err := db.DB().QueryRow(`SELECT COUNT(*) FROM "`+table+`" WHERE contrato_id = $1`, report.ContractID).Scan(&n)
		require.NoError(t, err, table)
		assert.Equal(t, want, n, table)
	}

	rows, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cliente SA", rows[0].Company.Name)
	assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), rows[0].Contract.EndDate.UTC())
}
