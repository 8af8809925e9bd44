package index

// DocID is an internal sequential document id. Zero is never assigned by the
// document table.
type DocID uint64

// FieldMask marks which schema text fields a term occurrence came from.
type FieldMask uint64

const AllFields FieldMask = ^FieldMask(0)

// Flags select what an inverted index stores per posting. They are fixed
// when the index is created.
type Flags uint32

const (
	StoreTermOffsets   Flags = 0x01
	StoreFieldFlags    Flags = 0x02
	HasCustomStopwords Flags = 0x08
	StoreFreqs         Flags = 0x10
	StoreNumeric       Flags = 0x20
	WideSchema         Flags = 0x40

	DefaultFlags = StoreFreqs | StoreTermOffsets | StoreFieldFlags

	encoderMask = StoreTermOffsets | StoreFieldFlags | StoreFreqs | StoreNumeric | WideSchema
)

func (f Flags) Has(other Flags) bool { return f&other == other }
