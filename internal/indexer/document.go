package indexer

// Document is a pre-tokenized document. Token positions are assigned in
// order across all text fields, starting at 1.
type Document struct {
	Key     string             `json:"key"`
	Score   float64            `json:"score"`
	Payload []byte             `json:"payload,omitempty"`
	Text    []TextField        `json:"text,omitempty"`
	Numeric map[string]float64 `json:"numeric,omitempty"`
	// SortText holds the raw value of sortable text fields. When absent the
	// field's tokens joined by spaces are used.
	SortText map[string]string `json:"sortText,omitempty"`
}

type TextField struct {
	Field  string   `json:"field"`
	Tokens []string `json:"tokens"`
}

// termAccumulator gathers the occurrences of one term in one document.
type termAccumulator struct {
	freq      uint32
	fieldMask uint64
	positions []uint32
}
