// Package sortable holds the per-document values used to order results by a
// field instead of by relevance.
package sortable

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

// MaxFields is the number of sortable slots a schema may declare.
const MaxFields = 255

type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	}
	return "null"
}

type Field struct {
	Name string
	Kind Kind
}

// Table maps sortable field names to vector slots.
type Table struct {
	fields []Field
}

func NewTable() *Table {
	return &Table{}
}

// Add registers a field and returns its slot.
func (t *Table) Add(name string, kind Kind) (int, error) {
	if len(t.fields) >= MaxFields {
		return -1, apperrors.Newf(apperrors.ErrSchemaCapacity, "too many sortable fields (max %d)", MaxFields)
	}
	t.fields = append(t.fields, Field{Name: name, Kind: kind})
	return len(t.fields) - 1, nil
}

// GetFieldIdx returns the slot of name, matched case-insensitively, or -1.
func (t *Table) GetFieldIdx(name string) int {
	for i, f := range t.fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

func (t *Table) Len() int { return len(t.fields) }

func (t *Table) Field(i int) Field { return t.fields[i] }

// Value is one slot of a Vector.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
}

func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

func NumberValue(f float64) Value { return Value{Kind: KindNumber, Num: f} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// Normalize case-folds s and decomposes it so that sorting ignores case and
// compatibility forms.
func Normalize(s string) string {
	return norm.NFKD.String(cases.Fold().String(s))
}

// Vector holds one value per sortable slot of a document. New slots are null.
type Vector struct {
	values []Value
}

func NewVector(n int) *Vector {
	return &Vector{values: make([]Value, n)}
}

func (v *Vector) Len() int { return len(v.values) }

func (v *Vector) Get(idx int) Value { return v.values[idx] }

// Put stores value at idx. Strings are normalized on the way in.
func (v *Vector) Put(idx int, value Value) {
	if value.Kind == KindString {
		value.Str = Normalize(value.Str)
	}
	v.values[idx] = value
}

// MemoryUsage estimates the bytes held by the vector.
func (v *Vector) MemoryUsage() int {
	n := len(v.values) * 32
	for _, val := range v.values {
		n += len(val.Str)
	}
	return n
}

// Key selects a slot and direction to order by.
type Key struct {
	Index     int
	Ascending bool
}

// Cmp orders a and b by the slot named in key. Null sorts before any value;
// a descending key reverses the whole ordering.
func Cmp(a, b *Vector, key Key) (int, error) {
	if key.Index < 0 || key.Index >= a.Len() || key.Index >= b.Len() {
		return 0, apperrors.Newf(apperrors.ErrUnknownField, "sort slot %d out of range", key.Index)
	}
	rc, err := cmpValues(a.values[key.Index], b.values[key.Index])
	if err != nil {
		return 0, err
	}
	if !key.Ascending {
		rc = -rc
	}
	return rc, nil
}

// CmpMulti applies keys in order until one of them separates a and b.
func CmpMulti(a, b *Vector, keys []Key) (int, error) {
	for _, k := range keys {
		rc, err := Cmp(a, b, k)
		if err != nil || rc != 0 {
			return rc, err
		}
	}
	return 0, nil
}

func cmpValues(x, y Value) (int, error) {
	switch {
	case x.IsNull() && y.IsNull():
		return 0, nil
	case x.IsNull():
		return -1, nil
	case y.IsNull():
		return 1, nil
	case x.Kind != y.Kind:
		return 0, apperrors.Newf(apperrors.ErrTypeMismatch, "cannot compare %s with %s", x.Kind, y.Kind)
	case x.Kind == KindNumber:
		switch {
		case x.Num < y.Num:
			return -1, nil
		case x.Num > y.Num:
			return 1, nil
		}
		return 0, nil
	}
	return strings.Compare(x.Str, y.Str), nil
}
