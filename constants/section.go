package constants

// Top-level keys of the semantic extraction output.
const (
	SectionContract        = "Contrato"
	SectionFines           = "Multas"
	SectionCompany         = "CompaniaInfo"
	SectionProviders       = "ProveedoresInfo"
	SectionRepresentatives = "Representantes"
	SectionEntities        = "Entidades"
)

// Sections lists every top-level key in prompt order.
var Sections = []string{
	SectionContract,
	SectionFines,
	SectionCompany,
	SectionProviders,
	SectionRepresentatives,
	SectionEntities,
}

// Contract defaults applied when the extractor leaves a field empty.
const (
	DefaultContractKind = "Contrato General"
	DefaultServiceKind  = "Servicios Generales"
	DefaultTermDays     = 365
)
