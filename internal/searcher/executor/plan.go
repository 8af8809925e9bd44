package executor

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/iterator"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
)

// planner turns a QueryNode tree into an iterator tree over one view of
// the index.
type planner struct {
	view          *indexer.View
	scorer        ranker.Scorer
	maxExpansions int
	minPrefix     int
}

func (p *planner) build(n *QueryNode) (iterator.Iterator, error) {
	if n == nil {
		return nil, apperrors.New(apperrors.ErrInvalidInput, "empty query node")
	}
	weight := n.Weight
	if weight == 0 {
		weight = 1
	}
	maxDocID := p.view.MaxDocID()

	switch n.Type {
	case NodeTerm:
		mask, err := p.view.Schema().TextFieldMask(n.Fields...)
		if err != nil {
			return nil, err
		}
		return p.term(strings.ToLower(n.Term), mask, weight), nil

	case NodePrefix:
		if len(n.Term) < p.minPrefix {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput,
				"prefix %q shorter than %d characters", n.Term, p.minPrefix)
		}
		mask, err := p.view.Schema().TextFieldMask(n.Fields...)
		if err != nil {
			return nil, err
		}
		terms := p.view.Expand(strings.ToLower(n.Term), p.maxExpansions)
		if len(terms) == 0 {
			return iterator.NewEmpty(), nil
		}
		children := make([]iterator.Iterator, len(terms))
		for i, t := range terms {
			children[i] = p.term(t, mask, 1)
		}
		return iterator.NewUnion(children, weight, false), nil

	case NodeNumeric:
		ranges, err := p.view.NumericRanges(n.Field, n.Min, n.Max)
		if err != nil {
			return nil, err
		}
		if len(ranges) == 0 {
			return iterator.NewEmpty(), nil
		}
		filter := index.NewNumericFilter(n.Field, n.Min, n.Max)
		filter.InclusiveMin, filter.InclusiveMax = !n.ExclusiveMin, !n.ExclusiveMax
		children := make([]iterator.Iterator, len(ranges))
		for i, rng := range ranges {
			children[i] = iterator.NewReadIterator(index.NewNumericReader(rng.Index, filter, 1))
		}
		return iterator.NewUnion(children, weight, false), nil

	case NodeUnion:
		children, err := p.children(n)
		if err != nil {
			return nil, err
		}
		return iterator.NewUnion(children, weight, false), nil

	case NodeIntersect, NodePhrase:
		children, err := p.children(n)
		if err != nil {
			return nil, err
		}
		mask, err := p.view.Schema().TextFieldMask(n.Fields...)
		if err != nil {
			return nil, err
		}
		slop, inOrder := -1, n.InOrder
		if n.Slop != nil {
			slop = *n.Slop
		}
		if n.Type == NodePhrase {
			slop, inOrder = 0, true
		}
		if slop >= 0 && !p.view.Schema().Flags().Has(index.StoreTermOffsets) {
			return nil, apperrors.New(apperrors.ErrInvalidInput, "index does not store term offsets")
		}
		return iterator.NewIntersect(children, mask, slop, inOrder, weight), nil

	case NodeNot:
		children, err := p.children(n)
		if err != nil {
			return nil, err
		}
		return iterator.NewNot(children[0], maxDocID), nil

	case NodeOptional:
		children, err := p.children(n)
		if err != nil {
			return nil, err
		}
		return iterator.NewOptional(children[0], maxDocID, weight), nil

	case NodeWildcard:
		return iterator.NewWildcard(maxDocID), nil
	}
	return nil, apperrors.Newf(apperrors.ErrInvalidInput, "unknown query node type %q", n.Type)
}

func (p *planner) term(term string, mask index.FieldMask, weight float64) iterator.Iterator {
	idx := p.view.Term(term)
	if idx == nil {
		return iterator.NewEmpty()
	}
	t := &index.Term{Str: term, IDF: p.scorer.IDF(p.view.NumDocs(), int(idx.NumDocs()))}
	return iterator.NewReadIterator(index.NewTermReader(idx, t, mask, weight))
}

// children builds n's children. Not and Optional take exactly one.
func (p *planner) children(n *QueryNode) ([]iterator.Iterator, error) {
	if len(n.Children) == 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%s node has no children", n.Type)
	}
	if (n.Type == NodeNot || n.Type == NodeOptional) && len(n.Children) != 1 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "%s node takes exactly one child", n.Type)
	}
	its := make([]iterator.Iterator, 0, len(n.Children))
	for _, c := range n.Children {
		it, err := p.build(c)
		if err != nil {
			for _, built := range its {
				built.Free()
			}
			return nil, err
		}
		its = append(its, it)
	}
	return its, nil
}
