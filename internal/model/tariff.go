package model

// TariffDocument is a trade-relevant Federal Register document.
type TariffDocument struct {
	Title          string `json:"title"`
	Date           string `json:"date"`
	DocumentNumber string `json:"document_number"`
	URL            string `json:"url"`
	Abstract       string `json:"abstract"`
	Type           string `json:"type"`
	Subtype        string `json:"subtype"`
}

// Tariff action types.
const (
	ActionIncrease     = "increase"
	ActionDecrease     = "decrease"
	ActionNew          = "new"
	ActionModification = "modification"
	ActionSuspension   = "suspension"
)

// TariffAction is the model's plain-English summary of a document.
type TariffAction struct {
	Summary     string `json:"summary"`
	Affected    string `json:"affected"`
	Type        string `json:"type"`
	Date        string `json:"date"`
	URL         string `json:"url"`
	Significant bool   `json:"significant"`
}

// Snapshot is the monitor's persisted output.
type Snapshot struct {
	LastChecked        string           `json:"last_checked"`
	LastCheckedDisplay string           `json:"last_checked_display"`
	AnalysisError      string           `json:"analysis_error,omitempty"`
	SignificantActions []TariffAction   `json:"significant_actions"`
	RawDocuments       []TariffDocument `json:"raw_documents"`
	FailedQueries      []string         `json:"failed_queries,omitempty"`
}
