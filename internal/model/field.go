package model

// FieldType is the display type of a requested enrichment field.
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeNumber  FieldType = "number"
	FieldTypeBoolean FieldType = "boolean"
	FieldTypeArray   FieldType = "array"
)

// EnrichmentField is a user-requested output column. Defined by the calling
// boundary (1–10 per session, enforced there) and consumed read-only here.
type EnrichmentField struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description,omitempty"`
	Type        FieldType `json:"type"`
	Required    bool      `json:"required"`
}

// ConfidenceLevel buckets a numeric confidence for display.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// LevelForConfidence maps a 0..1 confidence to a threshold bucket:
// high ≥ 0.8, medium ≥ 0.5, else low.
func LevelForConfidence(c float64) ConfidenceLevel {
	switch {
	case c >= 0.8:
		return ConfidenceHigh
	case c >= 0.5:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

// EnrichmentResult is one resolved value for one requested field of one row.
// Immutable once emitted.
type EnrichmentResult struct {
	Field             string          `json:"field"`
	Value             any             `json:"value"`
	Confidence        float64         `json:"confidence"`
	Source            string          `json:"source"`
	SourceContext     []string        `json:"sourceContext,omitempty"`
	ConfidenceLevel   ConfidenceLevel `json:"confidenceLevel"`
	PrimarySourceURL  string          `json:"primarySourceUrl,omitempty"`
	RecommendedAction string          `json:"recommendedAction,omitempty"`
	DataFreshness     string          `json:"dataFreshness,omitempty"`
}
