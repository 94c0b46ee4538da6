package entity

import "time"

// Contract is the parent record. Dates are date-only values in UTC.
type Contract struct {
	Kind                       string    `json:"tipo_contrato"`
	ServiceKind                string    `json:"tipo_servicio"`
	ClientParty                string    `json:"parte_cliente"`
	ProviderParty              string    `json:"parte_proveedor"`
	StartDate                  time.Time `json:"fecha_inicio"`
	EndDate                    time.Time `json:"fecha_termino"`
	AutoRenewal                bool      `json:"renovacion_automatica"`
	TotalAmount                *float64  `json:"monto_total,omitempty"`
	FineAmount                 *float64  `json:"multa_monto,omitempty"`
	FinePenalties              *string   `json:"multa_penalidades,omitempty"`
	EarlyTermination           bool      `json:"termino_anticipado_activo"`
	EarlyTerminationNoticeDays *int      `json:"termino_anticipado_plazo_dias,omitempty"`
	Exclusivity                bool      `json:"exclusividad_activo"`
	ExclusivityDetails         *string   `json:"exclusividad_detalles,omitempty"`
	Description                *string   `json:"descripcion,omitempty"`
	Name                       *string   `json:"nombre,omitempty"`
}

// Party is the client company or a provider.
type Party struct {
	Name    string `json:"nombre"`
	TaxID   string `json:"rut"`
	Address string `json:"domicilio"`
}

// Representative is a legal representative; both fields are required.
type Representative struct {
	Name     string `json:"nombre"`
	IDNumber string `json:"cedula_identidad"`
}

// Fine keeps the amount as the extractor wrote it. The numeric form is
// derived at persistence time.
type Fine struct {
	BreachType       string  `json:"tipo_incumplimiento"`
	Consequences     *string `json:"implicancias,omitempty"`
	AmountUF         *string `json:"monto_multa_uf,omitempty"`
	EvidenceDeadline *string `json:"plazo_constancia,omitempty"`
	FullDescription  *string `json:"descripcion_completa,omitempty"`
}

// Entity is a named entity found in the document.
type Entity struct {
	Type  string `json:"tipo"`
	Value string `json:"valor"`
}

// IsBlank reports the placeholder shape.
func (e Entity) IsBlank() bool { return e.Type == "" && e.Value == "" }

// Aggregate is the fully built contract. Providers[0] is the primary provider.
type Aggregate struct {
	Contract        Contract         `json:"contrato"`
	Company         Party            `json:"compania"`
	Providers       []Party          `json:"proveedores"`
	Representatives []Representative `json:"representantes"`
	Fines           []Fine           `json:"multas"`
	Entities        []Entity         `json:"entidades"`

	CorrelationID string    `json:"correlation_id"`
	ProcessedAt   time.Time `json:"processed_at"`
}
