package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/entity"
)

func strp(s string) *string { return &s }

func newSQLiteDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: dialect.SQLite, DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, Migrate(db, "", nil))
	return db
}

func sampleAggregate() *entity.Aggregate {
	total := 1200.5
	return &entity.Aggregate{
		Contract: entity.Contract{
			Kind:          "Contrato de Servicios",
			ServiceKind:   "Aseo",
			ClientParty:   "Cliente SA",
			ProviderParty: "Limpio Ltda",
			StartDate:     time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
			EndDate:       time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			TotalAmount:   &total,
			Name:          strp("Aseo oficinas"),
		},
		Company:         entity.Party{Name: "Cliente SA", TaxID: "96.000.000-1", Address: "Santiago"},
		Providers:       []entity.Party{{Name: "Limpio Ltda", TaxID: "77.000.000-2"}},
		Representatives: []entity.Representative{{Name: "Ana", IDNumber: "11.111.111-1"}},
		Fines: []entity.Fine{
			{BreachType: "Atraso", AmountUF: strp("UF 3,5")},
			{Consequences: strp("sin tipo")},
		},
		Entities: []entity.Entity{
			{Type: "persona", Value: "Ana"},
			{Type: "país", Value: "Chile"},
		},
		CorrelationID: "contrato_20240901_000000",
	}
}

func countRows(t *testing.T, db *DB, table string, contractID int64) int {
	t.Helper()
	var n int
	err := db.DB().QueryRow(`SELECT COUNT(*) FROM "`+table+`" WHERE contrato_id = ?`, contractID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestSaveAggregateSQLite(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewContractRepository(db, nil)

	report, err := repo.Save(context.Background(), sampleAggregate())
	require.NoError(t, err)
	require.NotZero(t, report.ContractID)

	assert.NotZero(t, report.CompanyID)
	assert.Len(t, report.ProviderIDs, 1)
	assert.Equal(t, 1, entity.Count(report.Representatives, entity.ItemInserted))
	assert.Equal(t, 2, entity.Count(report.Entities, entity.ItemInserted))
	assert.Equal(t, 1, entity.Count(report.Fines, entity.ItemInserted))
	require.Len(t, report.Fines, 2)
	assert.Equal(t, entity.ItemSkipped, report.Fines[1].Status)

	assert.Equal(t, 1, countRows(t, db, TableCompany, report.ContractID))
	assert.Equal(t, 1, countRows(t, db, TableProviders, report.ContractID))
	assert.Equal(t, 1, countRows(t, db, TableRepresentatives, report.ContractID))
	assert.Equal(t, 2, countRows(t, db, TableEntities, report.ContractID))
	assert.Equal(t, 1, countRows(t, db, TableFines, report.ContractID))

	var amount float64
	require.NoError(t, db.DB().QueryRow(`SELECT monto_multa_uf FROM "Multas" WHERE contrato_id = ?`, report.ContractID).Scan(&amount))
	assert.InDelta(t, 3.5, amount, 1e-9)
}

func TestSaveReusesRepresentativeWithinContract(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewContractRepository(db, nil)

	agg := sampleAggregate()
	agg.Representatives = []entity.Representative{
		{Name: "Ana", IDNumber: "11.111.111-1"},
		{Name: "Ana María", IDNumber: "11.111.111-1"},
		{Name: "Luis", IDNumber: "22.222.222-2"},
	}
	report, err := repo.Save(context.Background(), agg)
	require.NoError(t, err)

	require.Len(t, report.Representatives, 3)
	assert.Equal(t, entity.ItemInserted, report.Representatives[0].Status)
	assert.Equal(t, entity.ItemReused, report.Representatives[1].Status)
	assert.Equal(t, report.Representatives[0].ID, report.Representatives[1].ID)
	assert.Equal(t, entity.ItemInserted, report.Representatives[2].Status)
	assert.Equal(t, 2, countRows(t, db, TableRepresentatives, report.ContractID))
}

func TestSaveSkipsBlankEntities(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewContractRepository(db, nil)

	agg := sampleAggregate()
	agg.Entities = []entity.Entity{{}}
	report, err := repo.Save(context.Background(), agg)
	require.NoError(t, err)

	require.Len(t, report.Entities, 1)
	assert.Equal(t, entity.ItemSkipped, report.Entities[0].Status)
	assert.Zero(t, countRows(t, db, TableEntities, report.ContractID))
}

func TestListReturnsSavedContracts(t *testing.T) {
	db := newSQLiteDB(t)
	repo := NewContractRepository(db, nil)

	report, err := repo.Save(context.Background(), sampleAggregate())
	require.NoError(t, err)

	rows, err := repo.List(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, report.ContractID, row.ID)
	assert.Equal(t, "Contrato de Servicios", row.Contract.Kind)
	assert.Equal(t, time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC), row.Contract.StartDate)
	assert.Equal(t, "Aseo oficinas", *row.Contract.Name)
	assert.Equal(t, "96.000.000-1", row.Company.TaxID)
	require.Len(t, row.Fines, 1)
	assert.Equal(t, "UF 3,5", *row.Fines[0].AmountUF)
}

func newMockRepo(t *testing.T) (ContractRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewContractRepository(NewDB(sqlDB, dialect.Postgres), nil), mock
}

func idRows(id int64) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id"}).AddRow(id)
}

func TestSaveRollsBackWhenContractInsertFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Contrato"`)).WillReturnError(errors.New("value too long"))
	mock.ExpectRollback()

	report, err := repo.Save(context.Background(), sampleAggregate())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, common.ErrDatabase))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackWhenProviderInsertFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Contrato"`)).WillReturnRows(idRows(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "CompaniaInfo"`)).WillReturnRows(idRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "ProveedoresInfo"`)).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := repo.Save(context.Background(), sampleAggregate())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert provider")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveRollsBackWhenCompanyInsertFails(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Contrato"`)).WillReturnRows(idRows(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "CompaniaInfo"`)).WillReturnError(errors.New("not null violation"))
	mock.ExpectRollback()

	report, err := repo.Save(context.Background(), sampleAggregate())
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, common.ErrDatabase))
	assert.Contains(t, err.Error(), "insert company")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenAcceptsConfiguredSQLiteName(t *testing.T) {
	for _, driver := range []string{"sqlite", "SQLite", dialect.SQLite} {
		db, err := Open(context.Background(), Config{Driver: driver, DSN: ":memory:"}, nil)
		require.NoError(t, err, driver)
		assert.Equal(t, dialect.SQLite, db.Dialect(), driver)
		require.NoError(t, Migrate(db, "", nil), driver)
		db.Close(nil)
	}
}

func TestDialectDefaultsToPostgres(t *testing.T) {
	assert.Equal(t, dialect.Postgres, Dialect(""))
	assert.Equal(t, dialect.Postgres, Dialect("postgres"))
	assert.Equal(t, dialect.SQLite, Dialect(" sqlite "))
}

func TestSaveContinuesAfterChildFailure(t *testing.T) {
	repo, mock := newMockRepo(t)

	agg := sampleAggregate()
	agg.Representatives = nil
	agg.Entities = []entity.Entity{{Type: "persona", Value: "Ana"}}
	agg.Fines = []entity.Fine{{BreachType: "Atraso"}}

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Contrato"`)).WillReturnRows(idRows(7))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "CompaniaInfo"`)).WillReturnRows(idRows(1))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "ProveedoresInfo"`)).WillReturnRows(idRows(2))
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT item_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Entidades"`)).WillReturnError(errors.New("check violation"))
	mock.ExpectExec(regexp.QuoteMeta("ROLLBACK TO SAVEPOINT item_1")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SAVEPOINT item_2")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "Multas"`)).WillReturnRows(idRows(9))
	mock.ExpectExec(regexp.QuoteMeta("RELEASE SAVEPOINT item_2")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	report, err := repo.Save(context.Background(), agg)
	require.NoError(t, err)
	assert.Equal(t, int64(7), report.ContractID)
	assert.Equal(t, []int64{2}, report.ProviderIDs)

	require.Len(t, report.Entities, 1)
	assert.Equal(t, entity.ItemFailed, report.Entities[0].Status)
	assert.Contains(t, report.Entities[0].Reason, "check violation")

	require.Len(t, report.Fines, 1)
	assert.Equal(t, entity.ItemInserted, report.Fines[0].Status)
	assert.Equal(t, int64(9), report.Fines[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
