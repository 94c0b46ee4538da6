package llm

import "github.com/jorgelunams/contratospoc/constants"

// ContractJSONSchema describes the section layout the prompt asks for.
// Sections accept the shapes models are known to return, e.g. a provider
// object instead of a list.
func ContractJSONSchema() map[string]any {
	objectOrList := map[string]any{"type": []string{"object", "array"}}
	list := map[string]any{"type": "array"}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			constants.SectionContract: map[string]any{
				"type": []string{"object", "array"},
				"properties": map[string]any{
					"tipo_contrato":                 nullable("string"),
					"tipo_servicio":                 nullable("string"),
					"parte_cliente":                 nullable("string"),
					"parte_proveedor":               nullable("string"),
					"fecha_inicio":                  nullable("string"),
					"fecha_termino":                 nullable("string"),
					"renovacion_automatica":         nullable("boolean", "string"),
					"monto_total":                   nullable("number", "string"),
					"termino_anticipado_plazo_dias": nullable("integer", "string"),
				},
			},
			constants.SectionFines:           list,
			constants.SectionCompany:         objectOrList,
			constants.SectionProviders:       objectOrList,
			constants.SectionRepresentatives: list,
			constants.SectionEntities:        objectOrList,
		},
		"required": constants.Sections,
	}
}

func nullable(types ...string) map[string]any {
	return map[string]any{"type": append(types, "null")}
}
