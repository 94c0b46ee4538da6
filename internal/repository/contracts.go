package repository

import (
	"context"
	stdsql "database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"

	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/normalize"
)

const (
	TableContract        = "Contrato"
	TableCompany         = "CompaniaInfo"
	TableProviders       = "ProveedoresInfo"
	TableRepresentatives = "Representantes"
	TableEntities        = "Entidades"
	TableFines           = "Multas"
)

// ContractRepository persists contract aggregates.
type ContractRepository interface {
	// Save writes the aggregate in one transaction. Contract, company and
	// provider failures roll back everything; child failures are reported
	// per item in the returned report.
	Save(ctx context.Context, agg *entity.Aggregate) (*entity.PersistReport, error)
	List(ctx context.Context, limit int) ([]entity.ContractRow, error)
}

type contractRepository struct {
	db     *DB
	logger *slog.Logger
	now    func() time.Time
}

func NewContractRepository(db *DB, logger *slog.Logger) ContractRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &contractRepository{db: db, logger: logger, now: time.Now}
}

func (r *contractRepository) Save(ctx context.Context, agg *entity.Aggregate) (_ *entity.PersistReport, err error) {
	log := common.LoggerFrom(ctx, r.logger).With("correlation_id", agg.CorrelationID)
	start := time.Now()

	tx, err := r.db.DB().BeginTx(ctx, nil)
	if err != nil {
		log.Error("persist.begin.failed", "error", err)
		return nil, fmt.Errorf("%w: begin: %v", common.ErrDatabase, err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, stdsql.ErrTxDone) {
			log.Error("persist.rollback.failed", "error", rbErr)
		}
	}()

	w := &txWriter{tx: tx, dialect: r.db.Dialect(), now: r.now().UTC()}
	report := &entity.PersistReport{}

	report.ContractID, err = w.insertContract(ctx, agg.Contract)
	if err != nil {
		log.Error("persist.contract.failed", "error", err)
		return nil, fmt.Errorf("%w: insert contract: %v", common.ErrDatabase, err)
	}
	log = log.With("contract_id", report.ContractID)

	report.CompanyID, err = w.insertParty(ctx, TableCompany, report.ContractID, agg.Company)
	if err != nil {
		log.Error("persist.company.failed", "error", err)
		return nil, fmt.Errorf("%w: insert company: %v", common.ErrDatabase, err)
	}

	for i, p := range agg.Providers {
		id, perr := w.insertParty(ctx, TableProviders, report.ContractID, p)
		if perr != nil {
			err = perr
			log.Error("persist.provider.failed", "index", i, "error", err)
			return nil, fmt.Errorf("%w: insert provider %d: %v", common.ErrDatabase, i, err)
		}
		report.ProviderIDs = append(report.ProviderIDs, id)
	}

	for i, rep := range agg.Representatives {
		out := w.item(ctx, i, func() (int64, entity.ItemStatus, error) {
			return w.upsertRepresentative(ctx, report.ContractID, rep)
		})
		r.logItem(log, "representative", out)
		report.Representatives = append(report.Representatives, out)
	}

	for i, ent := range agg.Entities {
		if ent.IsBlank() {
			out := entity.ItemOutcome{Index: i, Status: entity.ItemSkipped, Reason: "empty tipo and valor"}
			r.logItem(log, "entity", out)
			report.Entities = append(report.Entities, out)
			continue
		}
		out := w.item(ctx, i, func() (int64, entity.ItemStatus, error) {
			id, err := w.insertEntity(ctx, report.ContractID, ent)
			return id, entity.ItemInserted, err
		})
		r.logItem(log, "entity", out)
		report.Entities = append(report.Entities, out)
	}

	for i, f := range agg.Fines {
		if f.BreachType == "" {
			out := entity.ItemOutcome{Index: i, Status: entity.ItemSkipped, Reason: "missing tipo_incumplimiento"}
			r.logItem(log, "fine", out)
			report.Fines = append(report.Fines, out)
			continue
		}
		out := w.item(ctx, i, func() (int64, entity.ItemStatus, error) {
			id, err := w.insertFine(ctx, report.ContractID, f)
			return id, entity.ItemInserted, err
		})
		r.logItem(log, "fine", out)
		report.Fines = append(report.Fines, out)
	}

	if err = tx.Commit(); err != nil {
		log.Error("persist.commit.failed", "error", err)
		return nil, fmt.Errorf("%w: commit: %v", common.ErrDatabase, err)
	}

	log.Info("persist.ok",
		"providers", len(report.ProviderIDs),
		"representatives", entity.Count(report.Representatives, entity.ItemInserted, entity.ItemReused),
		"entities", entity.Count(report.Entities, entity.ItemInserted),
		"fines", entity.Count(report.Fines, entity.ItemInserted),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return report, nil
}

func (r *contractRepository) logItem(log *slog.Logger, kind string, out entity.ItemOutcome) {
	switch out.Status {
	case entity.ItemSkipped:
		log.Warn("persist."+kind+".skipped", "index", out.Index, "reason", out.Reason)
	case entity.ItemFailed:
		log.Error("persist."+kind+".failed", "index", out.Index, "error", out.Reason)
	default:
		log.Debug("persist."+kind+"."+string(out.Status), "index", out.Index, "id", out.ID)
	}
}

// txWriter issues the inserts of one Save call.
type txWriter struct {
	tx      *stdsql.Tx
	dialect string
	now     time.Time
	items   int
}

// item runs fn inside a savepoint so a failed child leaves the enclosing
// transaction usable.
func (w *txWriter) item(ctx context.Context, index int, fn func() (int64, entity.ItemStatus, error)) entity.ItemOutcome {
	w.items++
	sp := fmt.Sprintf("item_%d", w.items)
	if _, err := w.tx.ExecContext(ctx, "SAVEPOINT "+sp); err != nil {
		return entity.ItemOutcome{Index: index, Status: entity.ItemFailed, Reason: err.Error()}
	}
	id, status, err := fn()
	if err != nil {
		if _, rbErr := w.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp); rbErr != nil {
			err = fmt.Errorf("%v (rollback to savepoint: %v)", err, rbErr)
		}
		return entity.ItemOutcome{Index: index, Status: entity.ItemFailed, Reason: err.Error()}
	}
	if _, err := w.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp); err != nil {
		return entity.ItemOutcome{Index: index, ID: id, Status: entity.ItemFailed, Reason: err.Error()}
	}
	return entity.ItemOutcome{Index: index, ID: id, Status: status}
}

// insert runs an INSERT and returns the generated id.
func (w *txWriter) insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	columns = append(columns, "created_at", "updated_at", "is_active")
	values = append(values, w.now, w.now, true)

	b := sql.Dialect(w.dialect).Insert(table).Columns(columns...).Values(values...)
	if w.dialect == dialect.Postgres {
		query, args := b.Returning("id").Query()
		var id int64
		if err := w.tx.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	query, args := b.Query()
	res, err := w.tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (w *txWriter) insertContract(ctx context.Context, c entity.Contract) (int64, error) {
	return w.insert(ctx, TableContract,
		[]string{
			"tipo_contrato", "tipo_servicio", "parte_cliente", "parte_proveedor",
			"fecha_inicio", "fecha_termino", "renovacion_automatica",
			"monto_total", "multa_monto", "multa_penalidades",
			"termino_anticipado_activo", "termino_anticipado_plazo_dias",
			"exclusividad_activo", "exclusividad_detalles", "descripcion", "nombre",
		},
		[]any{
			c.Kind, c.ServiceKind, c.ClientParty, c.ProviderParty,
			c.StartDate, c.EndDate, c.AutoRenewal,
			nullFloat(c.TotalAmount), nullFloat(c.FineAmount), nullString(c.FinePenalties),
			c.EarlyTermination, nullInt(c.EarlyTerminationNoticeDays),
			c.Exclusivity, nullString(c.ExclusivityDetails), nullString(c.Description), nullString(c.Name),
		},
	)
}

func (w *txWriter) insertParty(ctx context.Context, table string, contractID int64, p entity.Party) (int64, error) {
	return w.insert(ctx, table,
		[]string{"contrato_id", "nombre", "rut", "domicilio"},
		[]any{contractID, p.Name, p.TaxID, p.Address},
	)
}

// upsertRepresentative reuses an active row with the same identity number
// under the same contract.
func (w *txWriter) upsertRepresentative(ctx context.Context, contractID int64, rep entity.Representative) (int64, entity.ItemStatus, error) {
	query, args := sql.Dialect(w.dialect).
		Select("id").
		From(sql.Table(TableRepresentatives)).
		Where(sql.And(
			sql.EQ("contrato_id", contractID),
			sql.EQ("cedula_de_identidad", rep.IDNumber),
			sql.EQ("is_active", true),
		)).
		Limit(1).
		Query()

	var id int64
	err := w.tx.QueryRowContext(ctx, query, args...).Scan(&id)
	switch {
	case err == nil:
		return id, entity.ItemReused, nil
	case !errors.Is(err, stdsql.ErrNoRows):
		return 0, entity.ItemFailed, err
	}

	id, err = w.insert(ctx, TableRepresentatives,
		[]string{"contrato_id", "nombre", "cedula_de_identidad"},
		[]any{contractID, rep.Name, rep.IDNumber},
	)
	return id, entity.ItemInserted, err
}

func (w *txWriter) insertEntity(ctx context.Context, contractID int64, e entity.Entity) (int64, error) {
	return w.insert(ctx, TableEntities,
		[]string{"contrato_id", "tipo", "valor"},
		[]any{contractID, e.Type, e.Value},
	)
}

func (w *txWriter) insertFine(ctx context.Context, contractID int64, f entity.Fine) (int64, error) {
	var amount any
	if f.AmountUF != nil {
		if v, ok := normalize.Amount(*f.AmountUF); ok {
			amount = v
		}
	}
	return w.insert(ctx, TableFines,
		[]string{
			"contrato_id", "tipo_incumplimiento", "implicancias",
			"monto_multa_uf", "monto_multa_texto", "plazo_constancia", "descripcion_completa",
		},
		[]any{
			contractID, f.BreachType, nullString(f.Consequences),
			amount, nullString(f.AmountUF), nullString(f.EvidenceDeadline), nullString(f.FullDescription),
		},
	)
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func nullInt(i *int) any {
	if i == nil {
		return nil
	}
	return int64(*i)
}
