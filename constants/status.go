package constants

// RunStatus is the status reported for one processed event.
type RunStatus string

const (
	StatusSuccess RunStatus = "success"
	StatusSkipped RunStatus = "skipped"
	StatusError   RunStatus = "error"
)

// State is a pipeline state. Skipped and Failed are terminal.
type State string

const (
	StateReceived        State = "Received"
	StateFiltered        State = "Filtered"
	StateDeduplicated    State = "Deduplicated"
	StateExtracted       State = "Extracted"
	StateSemanticsParsed State = "SemanticsParsed"
	StateNormalized      State = "Normalized"
	StatePersisted       State = "Persisted"
	StateCompleted       State = "Completed"
	StateSkipped         State = "Skipped"
	StateFailed          State = "Failed"
)

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateSkipped || s == StateFailed
}
