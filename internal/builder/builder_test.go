package builder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgelunams/contratospoc/internal/common"
	"github.com/jorgelunams/contratospoc/internal/entity"
	"github.com/jorgelunams/contratospoc/internal/shape"
)

var fixedNow = time.Date(2024, 9, 1, 14, 30, 5, 0, time.UTC)

func newTestBuilder() *Builder {
	return New(nil, nil, WithClock(func() time.Time { return fixedNow }))
}

func decode(t *testing.T, s string) shape.Value {
	t.Helper()
	v, err := shape.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strp(s string) *string { return &s }

func TestBuildFullDocument(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {
			"tipo_contrato": "Contrato de Servicios",
			"tipo_servicio": "Seguridad",
			"parte_cliente": "Banco Sur",
			"parte_proveedor": "Guardias SpA",
			"fecha_inicio": "1 de septiembre de 2024",
			"fecha_termino": "31/08/2025",
			"renovacion_automatica": "sí",
			"monto_total": "1.500.000,50",
			"termino_anticipado": {"activo": true, "plazo_dias": "30 días"},
			"exclusividad_activo": false,
			"descripcion": "Servicio de guardias"
		},
		"CompaniaInfo": [{"Nombre": "Banco Sur", "RUT": "97.000.000-1", "Domicilio": "Santiago"}],
		"ProveedoresInfo": [{"nombre": "Guardias SpA", "rut": "76.111.111-1"}, "ruido", {"Nombre": "Apoyo Ltda"}],
		"Representantes": [
			{"Nombre": "Ana Pérez", "Cédula de Identidad": "12.345.678-9"},
			{"Nombre": "Sin Cédula"},
			"texto suelto"
		],
		"Multas": [{"Tipo de incumplimiento": "Atraso", "Monto de la multa en UF": "5 UF"}],
		"Entidades": [{"Tipo": "persona", "Nombre": "Ana Pérez"}, {"tipo_entidad": "país", "valor": "Chile"}]
	}`)

	agg, err := newTestBuilder().Build(context.Background(), doc)
	require.NoError(t, err)

	total, zero := 1500000.50, 0.0
	days := 30
	want := &entity.Aggregate{
		Contract: entity.Contract{
			Kind:                       "Contrato de Servicios",
			ServiceKind:                "Seguridad",
			ClientParty:                "Banco Sur",
			ProviderParty:              "Guardias SpA",
			StartDate:                  date(2024, 9, 1),
			EndDate:                    date(2025, 8, 31),
			AutoRenewal:                true,
			TotalAmount:                &total,
			FineAmount:                 &zero,
			EarlyTermination:           true,
			EarlyTerminationNoticeDays: &days,
			Description:                strp("Servicio de guardias"),
		},
		Company: entity.Party{Name: "Banco Sur", TaxID: "97.000.000-1", Address: "Santiago"},
		Providers: []entity.Party{
			{Name: "Guardias SpA", TaxID: "76.111.111-1"},
			{Name: "Apoyo Ltda"},
		},
		Representatives: []entity.Representative{{Name: "Ana Pérez", IDNumber: "12.345.678-9"}},
		Fines:           []entity.Fine{{BreachType: "Atraso", AmountUF: strp("5 UF")}},
		Entities: []entity.Entity{
			{Type: "persona", Value: "Ana Pérez"},
			{Type: "país", Value: "Chile"},
		},
		CorrelationID: "contrato_20240901_143005",
		ProcessedAt:   fixedNow,
	}
	if diff := cmp.Diff(want, agg); diff != "" {
		t.Errorf("aggregate mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildAppliesContractDefaults(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {"nombre": "Anexo"},
		"CompaniaInfo": {"nombre": "A"},
		"ProveedoresInfo": {"nombre": "B"}
	}`)

	agg, err := newTestBuilder().Build(context.Background(), doc)
	require.NoError(t, err)

	c := agg.Contract
	assert.Equal(t, "Contrato General", c.Kind)
	assert.Equal(t, "Servicios Generales", c.ServiceKind)
	assert.Equal(t, "", c.ClientParty)
	assert.Equal(t, "", c.ProviderParty)
	assert.Equal(t, date(2024, 9, 1), c.StartDate)
	assert.Equal(t, date(2025, 9, 1), c.EndDate)
	assert.False(t, c.AutoRenewal)
	require.NotNil(t, c.TotalAmount)
	assert.Equal(t, 0.0, *c.TotalAmount)
	require.NotNil(t, c.FineAmount)
	assert.Equal(t, 0.0, *c.FineAmount)
	assert.Equal(t, "Anexo", *c.Name)
}

func TestBuildUnparseableAmountIsZero(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {"monto_total": "a convenir", "multa_monto": 250},
		"CompaniaInfo": {"nombre": "A"},
		"ProveedoresInfo": {"nombre": "B"}
	}`)
	agg, err := newTestBuilder().Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, 0.0, *agg.Contract.TotalAmount)
	assert.Equal(t, 250.0, *agg.Contract.FineAmount)
}

func TestBuildNoticeDaysPreferPlazoDias(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {"termino_anticipado": {"activo": "sí", "plazo": "90", "plazo_dias": "30"}},
		"CompaniaInfo": {"nombre": "A"},
		"ProveedoresInfo": {"nombre": "B"}
	}`)
	for i := 0; i < 20; i++ {
		agg, err := newTestBuilder().Build(context.Background(), doc)
		require.NoError(t, err)
		require.NotNil(t, agg.Contract.EarlyTerminationNoticeDays)
		assert.Equal(t, 30, *agg.Contract.EarlyTerminationNoticeDays)
		assert.True(t, agg.Contract.EarlyTermination)
	}
}

func TestBuildEndDateDefaultsFromStart(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {"fecha_inicio": "2023-03-01", "fecha_termino": "pronto"},
		"CompaniaInfo": {"nombre": "A"},
		"ProveedoresInfo": {"nombre": "B"}
	}`)
	agg, err := newTestBuilder().Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, date(2024, 2, 29), agg.Contract.EndDate)
}

func TestBuildEmptyEntitiesYieldsPlaceholder(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {"tipo_contrato": "NDA"},
		"CompaniaInfo": {"nombre": "A"},
		"ProveedoresInfo": {"nombre": "B"},
		"Entidades": []
	}`)
	agg, err := newTestBuilder().Build(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, agg.Entities, 1)
	assert.True(t, agg.Entities[0].IsBlank())
	assert.Empty(t, agg.Representatives)
	assert.Empty(t, agg.Fines)
}

func TestBuildSingleEntityObject(t *testing.T) {
	doc := decode(t, `{
		"Contrato": {"tipo_contrato": "NDA"},
		"CompaniaInfo": {"nombre": "A"},
		"ProveedoresInfo": {"nombre": "B"},
		"Entidades": {"tipo": "país", "valor": "Perú"}
	}`)
	agg, err := newTestBuilder().Build(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, []entity.Entity{{Type: "país", Value: "Perú"}}, agg.Entities)
}

func TestBuildMissingSections(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		section string
	}{
		{"no contract", `{"CompaniaInfo": {"nombre": "A"}, "ProveedoresInfo": {"nombre": "B"}}`, "Contrato"},
		{"empty contract", `{"Contrato": {}, "CompaniaInfo": {"nombre": "A"}, "ProveedoresInfo": {"nombre": "B"}}`, "Contrato"},
		{"no company", `{"Contrato": {"nombre": "x"}, "ProveedoresInfo": {"nombre": "B"}}`, "CompaniaInfo"},
		{"company is text", `{"Contrato": {"nombre": "x"}, "CompaniaInfo": "ACME", "ProveedoresInfo": {"nombre": "B"}}`, "CompaniaInfo"},
		{"no provider", `{"Contrato": {"nombre": "x"}, "CompaniaInfo": {"nombre": "A"}, "ProveedoresInfo": []}`, "ProveedoresInfo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := newTestBuilder().Build(context.Background(), decode(t, tt.doc))
			require.Error(t, err)
			assert.Nil(t, agg)

			var se *SectionError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.section, se.Section)
			assert.True(t, errors.Is(err, common.ErrValidation))
		})
	}
}

func TestCorrelationID(t *testing.T) {
	assert.Equal(t, "contrato_20250102_030405", CorrelationID(time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)))
}
