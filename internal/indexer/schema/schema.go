// Package schema declares the fields of an index and derives the index
// flags, text-field bits and sortable slots from them.
package schema

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

const (
	// MaxTextFields is the number of text fields a field mask can address.
	MaxTextFields = 64
	// narrowTextFields is the number of text fields that fit a 32-bit mask.
	narrowTextFields = 32
)

type FieldType uint8

const (
	TypeText FieldType = iota
	TypeNumeric
)

func (t FieldType) String() string {
	if t == TypeNumeric {
		return "NUMERIC"
	}
	return "TEXT"
}

type FieldOption uint8

const (
	Sortable FieldOption = 1 << iota
	NoStem
	NoIndex
)

// Field is one schema field. Callers fill Name, Type, Weight and Options;
// the rest is assigned by New.
type Field struct {
	Name    string
	Type    FieldType
	Weight  float64
	Options FieldOption

	textID  int
	sortIdx int
}

func (f *Field) IsSortable() bool { return f.Options&Sortable != 0 }

func (f *Field) IsNoStem() bool { return f.Options&NoStem != 0 }

func (f *Field) IsIndexed() bool { return f.Options&NoIndex == 0 }

// Bit is the field-mask bit of a text field, 0 for other types.
func (f *Field) Bit() index.FieldMask {
	if f.Type != TypeText {
		return 0
	}
	return index.FieldMask(1) << f.textID
}

// SortIdx is the sortable slot of the field, or -1.
func (f *Field) SortIdx() int { return f.sortIdx }

// Options are the index-wide switches.
type Options struct {
	NoOffsets bool
	NoFields  bool
	// Stopwords replaces the default list when non-nil. An empty slice
	// disables stopwords.
	Stopwords []string
}

var defaultStopwords = []string{
	"a", "is", "the", "an", "and", "are", "as", "at", "be", "but", "by", "for",
	"if", "in", "into", "it", "no", "not", "of", "on", "or", "such", "that", "their",
	"then", "there", "these", "they", "this", "to", "was", "will", "with",
}

type Schema struct {
	Name      string
	fields    []*Field
	byName    map[string]*Field
	flags     index.Flags
	sortables *sortable.Table
	stopwords map[string]struct{}
}

func New(name string, opts Options, fields ...Field) (*Schema, error) {
	s := &Schema{
		Name:      name,
		byName:    make(map[string]*Field, len(fields)),
		flags:     index.DefaultFlags,
		sortables: sortable.NewTable(),
		stopwords: make(map[string]struct{}),
	}
	if opts.NoOffsets {
		s.flags &^= index.StoreTermOffsets
	}
	if opts.NoFields {
		s.flags &^= index.StoreFieldFlags
	}
	words := defaultStopwords
	if opts.Stopwords != nil {
		words = opts.Stopwords
		s.flags |= index.HasCustomStopwords
	}
	for _, w := range words {
		s.stopwords[strings.ToLower(w)] = struct{}{}
	}

	textIDs := 0
	for i := range fields {
		f := fields[i]
		if f.Name == "" {
			return nil, apperrors.New(apperrors.ErrInvalidInput, "field name is empty")
		}
		key := strings.ToLower(f.Name)
		if _, dup := s.byName[key]; dup {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, "duplicate field %q", f.Name)
		}
		if f.Weight == 0 {
			f.Weight = 1
		}
		f.textID = -1
		f.sortIdx = -1

		if f.Type == TypeText {
			if textIDs >= MaxTextFields {
				return nil, apperrors.New(apperrors.ErrSchemaCapacity, "Too many TEXT fields in schema")
			}
			f.textID = textIDs
			textIDs++
		}
		if f.IsSortable() {
			kind := sortable.KindString
			if f.Type == TypeNumeric {
				kind = sortable.KindNumber
			}
			idx, err := s.sortables.Add(f.Name, kind)
			if err != nil {
				return nil, err
			}
			f.sortIdx = idx
		}
		s.fields = append(s.fields, &f)
		s.byName[key] = &f
	}
	if textIDs > narrowTextFields {
		s.flags |= index.WideSchema
	}
	return s, nil
}

func (s *Schema) Flags() index.Flags { return s.flags }

func (s *Schema) NumFields() int { return len(s.fields) }

func (s *Schema) Fields() []*Field { return s.fields }

// Field looks a field up case-insensitively.
func (s *Schema) Field(name string) *Field {
	return s.byName[strings.ToLower(name)]
}

func (s *Schema) Sortables() *sortable.Table { return s.sortables }

// SortIndex returns the sortable slot of name, or -1.
func (s *Schema) SortIndex(name string) int {
	if f := s.Field(name); f != nil {
		return f.sortIdx
	}
	return -1
}

func (s *Schema) IsStopWord(term string) bool {
	_, ok := s.stopwords[strings.ToLower(term)]
	return ok
}

// TextFieldMask ORs the bits of the named text fields. No names selects
// every field.
func (s *Schema) TextFieldMask(names ...string) (index.FieldMask, error) {
	if len(names) == 0 {
		return index.AllFields, nil
	}
	var mask index.FieldMask
	for _, n := range names {
		f := s.Field(n)
		if f == nil || f.Type != TypeText {
			return 0, apperrors.Newf(apperrors.ErrUnknownField, "no text field %q", n)
		}
		mask |= f.Bit()
	}
	return mask, nil
}
