package llm

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jorgelunams/contratospoc/internal/extract"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}\n", `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[{\"a\":1}]\n```", `[{"a":1}]`},
		{"```json{\"a\":1}```", `{"a":1}`},
		{"\ufeff{\"a\":1}", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripFences(tt.in), tt.in)
	}
}

func TestBuildContractPrompt(t *testing.T) {
	p := BuildContractPrompt(extract.NewBundle([]string{"Cláusula primera"}))

	start := strings.Index(p, "INICIO CONTRATO")
	end := strings.Index(p, "FIN CONTRATO")
	require.Positive(t, start)
	require.Greater(t, end, start)
	assert.Contains(t, p[start:end], `"Page-1": [`)
	assert.Contains(t, p[start:end], "Cláusula primera")
	assert.Contains(t, p[end:], `"numero_contrato"`)
	for _, section := range []string{"Contrato", "Multas", "CompaniaInfo", "ProveedoresInfo", "Representantes", "Entidades"} {
		assert.Contains(t, p[end:], `"`+section+`"`)
	}
}

func TestInspectWarnsOnSchemaMismatch(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	out := Inspect(`{"Contrato":{}}`, true, logger)
	assert.Equal(t, `{"Contrato":{}}`, out)
	assert.Contains(t, buf.String(), "llm.extract.schema_mismatch")
}

func TestCheckReportsLeafViolations(t *testing.T) {
	schema, err := CompileSchema("contract.json", ContractJSONSchema())
	require.NoError(t, err)

	doc := `{"Contrato":{"monto_total":true},"Multas":{},"CompaniaInfo":{},"ProveedoresInfo":{},"Representantes":[],"Entidades":[]}`
	violations, err := Check(schema, []byte(doc))
	require.NoError(t, err)

	paths := make([]string, 0, len(violations))
	for _, v := range violations {
		paths = append(paths, v.Path)
	}
	assert.Contains(t, paths, "/Contrato/monto_total")
	assert.Contains(t, paths, "/Multas")

	_, err = Check(schema, []byte(`{"Contrato":`))
	assert.Error(t, err)
}

func TestInspectAcceptsFullDocument(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	doc := `{"Contrato":{"tipo_contrato":"Anexo","monto_total":"1.000","renovacion_automatica":null},` +
		`"Multas":[],"CompaniaInfo":{},"ProveedoresInfo":{"nombre":"X"},"Representantes":[],"Entidades":[]}`
	out := Inspect("```json\n"+doc+"\n```", true, logger)
	assert.Equal(t, doc, out)
	assert.NotContains(t, buf.String(), "schema_mismatch")
	assert.Contains(t, buf.String(), "llm.extract.fences_stripped")
}
