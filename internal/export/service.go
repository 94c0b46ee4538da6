package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/normalize"
)

const (
	SheetContracts = "Contratos"
	SheetFines     = "Multas"
)

// Lister is the read side of repository.ContractRepository.
type Lister interface {
	List(ctx context.Context, limit int) ([]entity.ContractRow, error)
}

// Service produces XLSX workbooks of persisted contracts.
type Service struct {
	repo   Lister
	logger *slog.Logger
}

func NewService(repo Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ContractsXLSX returns a workbook with one sheet of contracts and one of
// fines. limit <= 0 exports everything.
func (s *Service) ContractsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query contracts: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default sheet becomes the contracts sheet
	if err := f.SetSheetName(f.GetSheetName(0), SheetContracts); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetFines); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	writeHeader(f, SheetContracts, []string{
		"ID", "Tipo de contrato", "Tipo de servicio", "Parte cliente", "Parte proveedor",
		"Fecha inicio", "Fecha término", "Renovación automática", "Monto total",
		"Compañía", "RUT compañía", "Descripción",
	})
	writeHeader(f, SheetFines, []string{
		"Contrato ID", "Tipo de incumplimiento", "Monto UF (texto)", "Monto UF", "Implicancias", "Plazo constancia",
	})

	fineRow := 2
	for i, r := range rows {
		row := i + 2
		c := r.Contract
		writeRow(f, SheetContracts, row,
			r.ID, c.Kind, c.ServiceKind, c.ClientParty, c.ProviderParty,
			dateCell(c.StartDate), dateCell(c.EndDate), yesNo(c.AutoRenewal), floatCell(c.TotalAmount),
			r.Company.Name, r.Company.TaxID, truncate(deref(c.Description), 140),
		)
		for _, fine := range r.Fines {
			var uf any = ""
			if fine.AmountUF != nil {
				if v, ok := normalize.Amount(*fine.AmountUF); ok {
					uf = v
				}
			}
			writeRow(f, SheetFines, fineRow,
				r.ID, fine.BreachType, deref(fine.AmountUF), uf, truncate(deref(fine.Consequences), 140), deref(fine.EvidenceDeadline),
			)
			fineRow++
		}
	}

	_ = f.SetColWidth(SheetContracts, "A", "A", 8)
	_ = f.SetColWidth(SheetContracts, "B", "E", 28)
	_ = f.SetColWidth(SheetContracts, "F", "H", 14)
	_ = f.SetColWidth(SheetContracts, "I", "I", 16)
	_ = f.SetColWidth(SheetContracts, "J", "K", 24)
	_ = f.SetColWidth(SheetContracts, "L", "L", 60)
	_ = f.SetColWidth(SheetFines, "B", "B", 40)
	_ = f.SetColWidth(SheetFines, "E", "E", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"contracts", len(rows),
		"fines", fineRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func dateCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func floatCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
