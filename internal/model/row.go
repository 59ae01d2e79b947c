package model

// Row is one input record: an ordered mapping of column name to raw string
// value. Column ordering lives on the RowSet; the Row itself is immutable
// once read.
type Row map[string]string

// RowSet is a parsed batch of input rows with column metadata.
type RowSet struct {
	Columns     []string `json:"columns"`
	EmailColumn string   `json:"emailColumn"`
	NameColumn  string   `json:"nameColumn,omitempty"`
	Rows        []Row    `json:"rows"`
}

// Email returns the row's email value using the set's configured column.
func (s *RowSet) Email(r Row) string {
	return r[s.EmailColumn]
}

// RowStatus is the lifecycle state of a single row within a session.
type RowStatus string

const (
	RowStatusPending    RowStatus = "pending"
	RowStatusProcessing RowStatus = "processing"
	RowStatusCompleted  RowStatus = "completed"
	RowStatusSkipped    RowStatus = "skipped"
	RowStatusError      RowStatus = "error"
)

// Terminal reports whether the status is an end state.
func (s RowStatus) Terminal() bool {
	switch s {
	case RowStatusCompleted, RowStatusSkipped, RowStatusError:
		return true
	default:
		return false
	}
}

// RowEnrichmentResult is the per-row outcome delivered on the session stream.
// It is owned exclusively by the session scheduler; status transitions
// pending → processing → {completed|skipped|error} and is immutable once
// terminal.
type RowEnrichmentResult struct {
	RowIndex     int                         `json:"rowIndex"`
	OriginalData Row                         `json:"originalData"`
	Enrichments  map[string]EnrichmentResult `json:"enrichments"`
	Status       RowStatus                   `json:"status"`
	Error        string                      `json:"error,omitempty"`
}
