package constants

const (
	// EventTypeBlobCreated is the only event kind the pipeline processes.
	EventTypeBlobCreated = "Microsoft.Storage.BlobCreated"
	// EventTypeSubscriptionValidation is the webhook handshake event.
	EventTypeSubscriptionValidation = "Microsoft.EventGrid.SubscriptionValidationEvent"

	// ProcessedEventsContainer holds the dedup markers. Events about blobs
	// in it are ignored so marker writes never trigger new runs.
	ProcessedEventsContainer = "processed-events"
	ProcessedMarkerContent   = "Processed"
)

// Skip and failure reasons reported in run results.
const (
	ReasonProcessedContainer = "processed-events container"
	ReasonAlreadyProcessed   = "already processed"
	ReasonNotBlobEvent       = "not a blob event"
	ReasonNotPDF             = "not a pdf file"
	ReasonMissingURL         = "missing url"
	ReasonMissingBlobPath    = "missing blob path"
	ReasonMissingFileName    = "missing file name"
	ReasonExtractionFailed   = "extraction failed"
	ReasonSemanticFailed     = "semantic extraction failed"
	ReasonEmptyList          = "empty_contract_data_list"
	ReasonInvalidStructure   = "invalid_contract_data_structure"
	ReasonUnexpectedType     = "unexpected_contract_data_type"
	ReasonDecodePrefix       = "json_decode_error"
	ReasonDatabasePrefix     = "database error"
	ReasonMarkerFailed       = "dedup marker failed"
)
