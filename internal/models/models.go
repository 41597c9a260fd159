package models

// RawElement is one typed text element produced by the document parser,
// stored verbatim inside the guideline record.
type RawElement struct {
	Type     string          `json:"type"`
	Text     string          `json:"text"`
	Metadata ElementMetadata `json:"metadata"`
}

type ElementMetadata struct {
	PageNumber int    `json:"page_number"`
	Filename   string `json:"filename"`
}

// Chunk is a unit of retrievable guideline text with its provenance tags.
type Chunk struct {
	Content     string
	Title       string
	Page        int
	Source      string
	Gene        string
	Drug        string
	ElementType string
}

// SearchResult is one nearest neighbor from the similarity index.
// Distance is a raw metric-space distance, lower = more similar.
type SearchResult struct {
	Content     string
	Title       string
	Page        int
	Gene        string
	Drug        string
	ElementType string
	Distance    float64
}

// IngestResult is the terminal outcome of one ingestion run. Not-found and
// degenerate-input outcomes land here as StatusFailed with a message;
// infrastructure faults are returned as errors instead.
type IngestResult struct {
	Status      string `json:"status"`
	Message     string `json:"message"`
	GuidelineID string `json:"guideline_id,omitempty"`
}

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// PhenotypeResult is the outcome of a diplotype lookup. ActivityScore is nil
// when the authority's value does not parse as a number.
type PhenotypeResult struct {
	Gene           string   `json:"gene"`
	Diplotype      string   `json:"diplotype"`
	Phenotype      string   `json:"phenotype"`
	ActivityScore  *float64 `json:"activity_score"`
	Recommendation string   `json:"recommendation"`
	EHRPriority    string   `json:"ehr_priority"`
	Description    string   `json:"description"`
}

// GeneDrugPair is one row of the CPIC reference spreadsheet.
type GeneDrugPair struct {
	Gene string `json:"Gene"`
	Drug string `json:"Drug"`
}
