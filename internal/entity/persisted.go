package entity

// ItemStatus is the outcome of one child row.
type ItemStatus string

const (
	ItemInserted ItemStatus = "inserted"
	ItemReused   ItemStatus = "reused"
	ItemSkipped  ItemStatus = "skipped"
	ItemFailed   ItemStatus = "failed"
)

// ItemOutcome reports what happened to the child at Index in its collection.
type ItemOutcome struct {
	Index  int        `json:"index"`
	ID     int64      `json:"id,omitempty"`
	Status ItemStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// PersistReport is returned by a committed save.
type PersistReport struct {
	ContractID      int64         `json:"contract_id"`
	CompanyID       int64         `json:"company_id"`
	ProviderIDs     []int64       `json:"provider_ids"`
	Representatives []ItemOutcome `json:"representatives"`
	Entities        []ItemOutcome `json:"entities"`
	Fines           []ItemOutcome `json:"fines"`
}

// Count returns how many outcomes have one of the given statuses.
func Count(outcomes []ItemOutcome, statuses ...ItemStatus) int {
	n := 0
	for _, o := range outcomes {
		for _, s := range statuses {
			if o.Status == s {
				n++
				break
			}
		}
	}
	return n
}

// ContractRow is a persisted contract as listed for exports.
type ContractRow struct {
	ID       int64
	Contract Contract
	Company  Party
	Fines    []Fine
}
