// Package ranker scores the results produced by an iterator tree.
package ranker

import (
	"fmt"
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/doctable"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/sortable"
)

const (
	k1 = 1.2
	b  = 0.75
)

// ScoredDoc is one ranked hit.
type ScoredDoc struct {
	ID      index.DocID `json:"-"`
	Key     string      `json:"key"`
	Score   float64     `json:"score"`
	Payload []byte      `json:"payload,omitempty"`

	SortVector *sortable.Vector `json:"-"`
}

// IndexStats are the collection statistics a scorer may use.
type IndexStats struct {
	NumDocs   int
	AvgDocLen float64
}

// Scorer computes term IDFs at plan time and document scores at match time.
type Scorer interface {
	Name() string
	IDF(totalDocs, docFreq int) float64
	Score(res *index.Result, md *doctable.Metadata, stats IndexStats) float64
}

// ForName returns the scorer registered under name. An empty name selects
// TFIDF.
func ForName(name string) (Scorer, error) {
	switch strings.ToUpper(name) {
	case "", "TFIDF":
		return TFIDF{}, nil
	case "BM25":
		return BM25{}, nil
	case "DOCSCORE":
		return DocScore{}, nil
	}
	return nil, fmt.Errorf("unknown scorer %q", name)
}

// TFIDF sums weight * freq * idf over the result tree, normalizes by the
// document's most frequent term and divides by the proximity of the
// matched terms.
type TFIDF struct{}

func (TFIDF) Name() string { return "TFIDF" }

func (TFIDF) IDF(totalDocs, docFreq int) float64 {
	if docFreq <= 0 {
		return 0
	}
	return math.Log2(1 + float64(totalDocs)/float64(docFreq))
}

func (TFIDF) Score(res *index.Result, md *doctable.Metadata, _ IndexStats) float64 {
	maxFreq := float64(md.MaxFreq)
	if maxFreq == 0 {
		maxFreq = 1
	}
	return tfidf(res) / maxFreq * md.Score / float64(index.MinOffsetDelta(res))
}

func tfidf(r *index.Result) float64 {
	switch r.Kind {
	case index.KindTerm:
		idf := 0.0
		if r.Term != nil {
			idf = r.Term.IDF
		}
		return r.Weight * float64(r.Freq) * idf
	case index.KindUnion, index.KindIntersection:
		var sum float64
		for _, c := range r.Children {
			sum += tfidf(c)
		}
		return r.Weight * sum
	}
	return r.Weight * float64(r.Freq)
}

// BM25 is Okapi BM25 with k1=1.2, b=0.75 over the document length recorded
// at index time.
type BM25 struct{}

func (BM25) Name() string { return "BM25" }

func (BM25) IDF(totalDocs, docFreq int) float64 {
	return computeIDF(int64(totalDocs), int64(docFreq))
}

func (BM25) Score(res *index.Result, md *doctable.Metadata, stats IndexStats) float64 {
	return bm25(res, float64(md.Len), stats.AvgDocLen) * md.Score / float64(index.MinOffsetDelta(res))
}

func bm25(r *index.Result, docLen, avgDocLen float64) float64 {
	switch r.Kind {
	case index.KindTerm:
		idf := 0.0
		if r.Term != nil {
			idf = r.Term.IDF
		}
		return r.Weight * idf * computeTFNorm(float64(r.Freq), docLen, avgDocLen)
	case index.KindUnion, index.KindIntersection:
		var sum float64
		for _, c := range r.Children {
			sum += bm25(c, docLen, avgDocLen)
		}
		return r.Weight * sum
	}
	return r.Weight * float64(r.Freq)
}

// DocScore ranks by the a-priori document score alone.
type DocScore struct{}

func (DocScore) Name() string { return "DOCSCORE" }

func (DocScore) IDF(int, int) float64 { return 0 }

func (DocScore) Score(_ *index.Result, md *doctable.Metadata, _ IndexStats) float64 {
	return md.Score
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	if docFreq <= 0 {
		return 0
	}
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
