package main

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/executor"
)

var queryKinds = []string{"term", "intersect", "union", "phrase", "prefix", "numeric", "not"}

var syllables = []string{"ka", "lo", "mi", "ne", "ru", "sa", "te", "vo", "zi", "pa"}

// generator produces a Zipf-distributed synthetic corpus and matching
// queries over the schema's fields.
type generator struct {
	words   []string
	text    []string
	numeric []string
	docLen  int
	rng     *rand.Rand
	zipf    *rand.Zipf
}

func newGenerator(sch *schema.Schema, cfg Config) *generator {
	g := &generator{
		words:  make([]string, cfg.Vocab),
		docLen: cfg.DocLen,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
	for i := range g.words {
		g.words[i] = word(i)
	}
	for _, f := range sch.Fields() {
		if !f.IsIndexed() {
			continue
		}
		switch f.Type {
		case schema.TypeText:
			g.text = append(g.text, f.Name)
		case schema.TypeNumeric:
			g.numeric = append(g.numeric, f.Name)
		}
	}
	g.zipf = rand.NewZipf(g.rng, 1.07, 2, uint64(cfg.Vocab-1))
	return g
}

// word spells i in base ten with one syllable per digit, so neighboring ids
// share prefixes.
func word(i int) string {
	var sb strings.Builder
	digits := fmt.Sprintf("%02d", i)
	for _, d := range digits {
		sb.WriteString(syllables[d-'0'])
	}
	return sb.String()
}

// document is not safe for concurrent use.
func (g *generator) document(i int) *indexer.Document {
	doc := &indexer.Document{
		Key:     fmt.Sprintf("doc:%d", i),
		Score:   0.5 + g.rng.Float64(),
		Numeric: make(map[string]float64, len(g.numeric)),
	}
	for _, f := range g.text {
		tokens := make([]string, g.docLen)
		for j := range tokens {
			tokens[j] = g.words[g.zipf.Uint64()]
		}
		doc.Text = append(doc.Text, indexer.TextField{Field: f, Tokens: tokens})
	}
	for _, f := range g.numeric {
		doc.Numeric[f] = g.rng.Float64() * 1000
	}
	return doc
}

func (g *generator) query(rng *rand.Rand) (string, *executor.QueryNode) {
	zipf := rand.NewZipf(rng, 1.07, 2, uint64(len(g.words)-1))
	term := func() *executor.QueryNode { return executor.Term(g.words[zipf.Uint64()]) }

	kind := queryKinds[rng.Intn(len(queryKinds))]
	if kind == "numeric" && len(g.numeric) == 0 {
		kind = "term"
	}
	switch kind {
	case "intersect":
		return kind, executor.Intersect(term(), term())
	case "union":
		return kind, executor.Union(term(), term(), term())
	case "phrase":
		return kind, executor.Phrase(term(), term())
	case "prefix":
		w := g.words[zipf.Uint64()]
		return kind, executor.Prefix(w[:min(len(w), 4)])
	case "numeric":
		lo := rng.Float64() * 900
		return kind, executor.Numeric(g.numeric[rng.Intn(len(g.numeric))], lo, lo+100)
	case "not":
		return kind, executor.Intersect(term(), executor.Not(term()))
	}
	return "term", term()
}
