package executor

import (
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
)

// NodeType names a query operator.
type NodeType string

const (
	NodeTerm      NodeType = "term"
	NodePrefix    NodeType = "prefix"
	NodeNumeric   NodeType = "numeric"
	NodeUnion     NodeType = "union"
	NodeIntersect NodeType = "intersect"
	NodePhrase    NodeType = "phrase"
	NodeNot       NodeType = "not"
	NodeOptional  NodeType = "optional"
	NodeWildcard  NodeType = "wildcard"
)

// QueryNode is one operator of an already parsed query tree.
type QueryNode struct {
	Type NodeType `json:"type"`

	// term and prefix
	Term string `json:"term,omitempty"`
	// Fields restricts term, prefix, intersect and phrase nodes to the named
	// text fields.
	Fields []string `json:"fields,omitempty"`

	// numeric
	Field        string  `json:"field,omitempty"`
	Min          float64 `json:"min,omitempty"`
	Max          float64 `json:"max,omitempty"`
	ExclusiveMin bool    `json:"exclusiveMin,omitempty"`
	ExclusiveMax bool    `json:"exclusiveMax,omitempty"`

	// intersect; nil Slop disables the proximity check
	Slop    *int `json:"slop,omitempty"`
	InOrder bool `json:"inOrder,omitempty"`

	// Weight scales the node's contribution to the score. Zero means 1.
	Weight   float64      `json:"weight,omitempty"`
	Children []*QueryNode `json:"children,omitempty"`
}

func Term(term string, fields ...string) *QueryNode {
	return &QueryNode{Type: NodeTerm, Term: term, Fields: fields}
}

func Prefix(prefix string, fields ...string) *QueryNode {
	return &QueryNode{Type: NodePrefix, Term: prefix, Fields: fields}
}

func Numeric(field string, min, max float64) *QueryNode {
	return &QueryNode{Type: NodeNumeric, Field: field, Min: min, Max: max}
}

func Union(children ...*QueryNode) *QueryNode {
	return &QueryNode{Type: NodeUnion, Children: children}
}

func Intersect(children ...*QueryNode) *QueryNode {
	return &QueryNode{Type: NodeIntersect, Children: children}
}

func Phrase(children ...*QueryNode) *QueryNode {
	return &QueryNode{Type: NodePhrase, Children: children}
}

func Not(child *QueryNode) *QueryNode {
	return &QueryNode{Type: NodeNot, Children: []*QueryNode{child}}
}

func Optional(child *QueryNode) *QueryNode {
	return &QueryNode{Type: NodeOptional, Children: []*QueryNode{child}}
}

func Wildcard() *QueryNode {
	return &QueryNode{Type: NodeWildcard}
}

// SortKey orders results by a sortable field instead of by score.
type SortKey struct {
	Field     string `json:"field"`
	Ascending bool   `json:"ascending"`
}

// Request is a search over the index.
type Request struct {
	Query  *QueryNode `json:"query"`
	Offset int        `json:"offset,omitempty"`
	Limit  int        `json:"limit,omitempty"`
	SortBy []SortKey  `json:"sortBy,omitempty"`
	// Scorer is TFIDF (default), BM25 or DOCSCORE.
	Scorer string `json:"scorer,omitempty"`
}

type SearchResult struct {
	RequestID string             `json:"request_id"`
	TotalHits int                `json:"total_hits"`
	Results   []ranker.ScoredDoc `json:"results"`
	TimedOut  bool               `json:"timed_out,omitempty"`
	Took      time.Duration      `json:"took"`
}
