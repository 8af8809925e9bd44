package index

// Entry is one term occurrence in one document before it is encoded. It is
// built once per (document, term) during ingestion and not retained.
type Entry struct {
	DocID     DocID
	FieldMask FieldMask
	Freq      float32
	// Offsets holds the term positions already encoded as a varint vector.
	Offsets []byte
	Term    string
}

