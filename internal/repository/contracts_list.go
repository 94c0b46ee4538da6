package repository

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"time"

	"entgo.io/ent/dialect/sql"

	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/normalize"
)

// List returns active contracts, newest first, with their company and fines.
func (r *contractRepository) List(ctx context.Context, limit int) ([]entity.ContractRow, error) {
	sel := sql.Dialect(r.db.Dialect()).
		Select("id", "tipo_contrato", "tipo_servicio", "parte_cliente", "parte_proveedor",
			"fecha_inicio", "fecha_termino", "renovacion_automatica", "monto_total", "nombre").
		From(sql.Table(TableContract)).
		Where(sql.EQ("is_active", true)).
		OrderBy(sql.Desc("id"))
	if limit > 0 {
		sel.Limit(limit)
	}
	query, args := sel.Query()

	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("contracts.list.failed", "error", err)
		return nil, fmt.Errorf("%w: list contracts: %v", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []entity.ContractRow
	for rows.Next() {
		var (
			row        entity.ContractRow
			start, end dateValue
			total      stdsql.NullFloat64
			name       stdsql.NullString
		)
		c := &row.Contract
		if err := rows.Scan(&row.ID, &c.Kind, &c.ServiceKind, &c.ClientParty, &c.ProviderParty,
			&start, &end, &c.AutoRenewal, &total, &name); err != nil {
			return nil, fmt.Errorf("%w: scan contract: %v", common.ErrDatabase, err)
		}
		c.StartDate, c.EndDate = start.t, end.t
		if total.Valid {
			c.TotalAmount = &total.Float64
		}
		if name.Valid {
			c.Name = &name.String
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list contracts: %v", common.ErrDatabase, err)
	}

	for i := range out {
		if err := r.loadChildren(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *contractRepository) loadChildren(ctx context.Context, row *entity.ContractRow) error {
	query, args := sql.Dialect(r.db.Dialect()).
		Select("nombre", "rut", "domicilio").
		From(sql.Table(TableCompany)).
		Where(sql.And(sql.EQ("contrato_id", row.ID), sql.EQ("is_active", true))).
		Limit(1).
		Query()
	err := r.db.DB().QueryRowContext(ctx, query, args...).Scan(&row.Company.Name, &row.Company.TaxID, &row.Company.Address)
	if err != nil && err != stdsql.ErrNoRows {
		return fmt.Errorf("%w: load company: %v", common.ErrDatabase, err)
	}

	query, args = sql.Dialect(r.db.Dialect()).
		Select("tipo_incumplimiento", "implicancias", "monto_multa_texto", "plazo_constancia", "descripcion_completa").
		From(sql.Table(TableFines)).
		Where(sql.And(sql.EQ("contrato_id", row.ID), sql.EQ("is_active", true))).
		OrderBy("id").
		Query()
	rows, err := r.db.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: load fines: %v", common.ErrDatabase, err)
	}
	defer rows.Close()
	for rows.Next() {
		var f entity.Fine
		var cons, amount, deadline, desc stdsql.NullString
		if err := rows.Scan(&f.BreachType, &cons, &amount, &deadline, &desc); err != nil {
			return fmt.Errorf("%w: scan fine: %v", common.ErrDatabase, err)
		}
		f.Consequences, f.AmountUF = fromNull(cons), fromNull(amount)
		f.EvidenceDeadline, f.FullDescription = fromNull(deadline), fromNull(desc)
		row.Fines = append(row.Fines, f)
	}
	return rows.Err()
}

func fromNull(s stdsql.NullString) *string {
	if !s.Valid {
		return nil
	}
	return &s.String
}

// dateValue scans DATE columns from drivers that return either time.Time or
// text.
type dateValue struct{ t time.Time }

func (d *dateValue) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.t = time.Time{}
	case time.Time:
		d.t = v.UTC()
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("unsupported date type %T", src)
	}
	return nil
}

func (d *dateValue) parse(s string) error {
	if len(s) >= len(normalize.ISODate) {
		if t, err := time.Parse(normalize.ISODate, s[:len(normalize.ISODate)]); err == nil {
			d.t = t
			return nil
		}
	}
	return fmt.Errorf("unparseable date %q", s)
}
