package index

// Kind tags what produced a Result.
type Kind uint8

const (
	KindUnion Kind = 1 << iota
	KindIntersection
	KindTerm
	KindVirtual
	KindNumeric
)

// Term describes the query term a leaf result was read for.
type Term struct {
	Str string
	IDF float64
}

// Result is the unit flowing through the iterator tree. Leaves carry a term
// or numeric occurrence; aggregates (union, intersection) carry the child
// results that matched the same document.
//
// Iterators own their result and overwrite it on every advance. Callers that
// need a result past the next Read must use DeepCopy.
type Result struct {
	DocID     DocID
	Kind      Kind
	Freq      uint32
	FieldMask FieldMask
	Weight    float64

	// term leaves
	Term    *Term
	Offsets []byte

	// numeric leaves
	Value float64

	// aggregates
	Children []*Result
	TypeMask Kind

	IsCopy bool
}

func NewTermResult(term *Term, weight float64) *Result {
	return &Result{Kind: KindTerm, Term: term, Weight: weight, FieldMask: AllFields}
}

func NewNumericResult(weight float64) *Result {
	return &Result{Kind: KindNumeric, Weight: weight, FieldMask: AllFields, Freq: 1}
}

func NewVirtualResult(weight float64) *Result {
	return &Result{Kind: KindVirtual, Weight: weight, FieldMask: AllFields}
}

func NewUnionResult(capacity int, weight float64) *Result {
	return &Result{Kind: KindUnion, Weight: weight, Children: make([]*Result, 0, capacity)}
}

func NewIntersectResult(capacity int, weight float64) *Result {
	return &Result{Kind: KindIntersection, Weight: weight, Children: make([]*Result, 0, capacity)}
}

func (r *Result) IsAggregate() bool {
	return r.Kind&(KindUnion|KindIntersection) != 0
}

// HasOffsets reports whether the result can yield term positions.
func (r *Result) HasOffsets() bool {
	switch r.Kind {
	case KindTerm:
		return len(r.Offsets) > 0
	case KindUnion, KindIntersection:
		return r.TypeMask&(KindTerm|KindUnion|KindIntersection) != 0
	}
	return false
}

// AddChild appends a child to an aggregate and folds its frequency and
// field mask into the aggregate.
func (r *Result) AddChild(child *Result) {
	r.Children = append(r.Children, child)
	r.TypeMask |= child.Kind
	r.Freq += child.Freq
	r.DocID = child.DocID
	r.FieldMask |= child.FieldMask
}

// ResetAggregate clears the document id, children and field mask before the
// next match is assembled. Freq is not reset and keeps accumulating over the
// matches of one node.
func (r *Result) ResetAggregate() {
	r.DocID = 0
	r.Children = r.Children[:0]
	r.TypeMask = 0
	r.FieldMask = 0
}

// DeepCopy returns an independently owned copy of r and its children.
func (r *Result) DeepCopy() *Result {
	cp := *r
	cp.IsCopy = true
	if r.Offsets != nil {
		cp.Offsets = append([]byte(nil), r.Offsets...)
	}
	if r.Children != nil {
		cp.Children = make([]*Result, len(r.Children))
		for i, c := range r.Children {
			cp.Children[i] = c.DeepCopy()
		}
	}
	return &cp
}

// Leaves collects the term leaves under r in tree order.
func (r *Result) Leaves(out []*Result) []*Result {
	switch {
	case r.Kind == KindTerm:
		return append(out, r)
	case r.IsAggregate():
		for _, c := range r.Children {
			out = c.Leaves(out)
		}
	}
	return out
}
