package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-core/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
)

type Config struct {
	Docs        int
	Vocab       int
	DocLen      int
	Concurrency int
	Duration    time.Duration
	Seed        int64
}

type Stats struct {
	totalQueries atomic.Int64
	errorCount   atomic.Int64
	timeouts     atomic.Int64
	totalHits    atomic.Int64
	latencies    []float64
	latenciesMu  sync.Mutex
	byKind       map[string]*atomic.Int64
}

func NewStats() *Stats {
	s := &Stats{
		latencies: make([]float64, 0, 100000),
		byKind:    make(map[string]*atomic.Int64),
	}
	for _, k := range queryKinds {
		s.byKind[k] = &atomic.Int64{}
	}
	return s
}

func (s *Stats) RecordQuery(kind string, duration time.Duration, res *executor.SearchResult, err error) {
	s.totalQueries.Add(1)
	s.byKind[kind].Add(1)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrTimeout) {
			s.timeouts.Add(1)
		} else {
			s.errorCount.Add(1)
		}
		return
	}
	if res.TimedOut {
		s.timeouts.Add(1)
	}
	s.totalHits.Add(int64(res.TotalHits))

	s.latenciesMu.Lock()
	s.latencies = append(s.latencies, float64(duration)/float64(time.Millisecond))
	s.latenciesMu.Unlock()
}

func main() {
	configPath := flag.String("config", "", "path to config file (built-in defaults when empty)")
	docs := flag.Int("docs", 100000, "number of synthetic documents")
	vocab := flag.Int("vocab", 20000, "vocabulary size")
	docLen := flag.Int("doclen", 50, "tokens per text field")
	concurrency := flag.Int("concurrency", 10, "number of concurrent query workers")
	duration := flag.Duration("duration", 30*time.Second, "query phase duration")
	seed := flag.Int64("seed", 1, "random seed")
	publish := flag.Bool("publish", false, "publish the documents to the ingest topic instead of querying in-process")
	flag.Parse()

	appCfg := config.Default()
	if *configPath != "" {
		var err error
		if appCfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
	}
	logger.Setup("warn", "text")

	sch, err := schema.FromConfig(appCfg.Schema)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid schema: %v\n", err)
		os.Exit(1)
	}

	cfg := Config{
		Docs:        *docs,
		Vocab:       *vocab,
		DocLen:      *docLen,
		Concurrency: *concurrency,
		Duration:    *duration,
		Seed:        *seed,
	}
	gen := newGenerator(sch, cfg)

	if *publish {
		if err := publishDocs(appCfg.Kafka, gen, cfg.Docs); err != nil {
			fmt.Fprintf(os.Stderr, "publish failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("=== Search Core Load Test ===")
	fmt.Printf("Documents:   %d\n", cfg.Docs)
	fmt.Printf("Vocabulary:  %d\n", cfg.Vocab)
	fmt.Printf("Concurrency: %d\n", cfg.Concurrency)
	fmt.Printf("Duration:    %s\n", cfg.Duration)
	fmt.Println()

	engine := indexer.NewEngine(appCfg.Indexer, sch, nil)
	start := time.Now()
	for i := 0; i < cfg.Docs; i++ {
		if _, err := engine.IndexDocument(gen.document(i), false); err != nil {
			fmt.Fprintf(os.Stderr, "indexing doc %d: %v\n", i, err)
			os.Exit(1)
		}
	}
	elapsed := time.Since(start)
	st := engine.Stats()
	fmt.Printf("Indexed %d docs in %s (%.0f docs/sec), %d terms, %.1f MiB\n\n",
		st.NumDocs, elapsed.Round(time.Millisecond), float64(cfg.Docs)/elapsed.Seconds(),
		st.NumTerms, float64(st.MemoryBytes)/(1<<20))

	exec := executor.New(engine, appCfg.Search, nil)
	stats := runLoadTest(exec, gen, cfg)
	printReport(stats, cfg.Duration)
}

func publishDocs(kcfg config.KafkaConfig, gen *generator, n int) error {
	producer := kafka.NewProducer(kcfg, kcfg.Topics.DocumentIngest)
	defer producer.Close()

	ctx, stop := context.WithTimeout(context.Background(), 10*time.Minute)
	defer stop()

	const batchSize = 500
	batch := make([]kafka.Event, 0, batchSize)
	for i := 0; i < n; i++ {
		doc := gen.document(i)
		batch = append(batch, kafka.Event{Key: doc.Key, Value: consumer.Event{Op: consumer.OpIndex, Document: doc}})
		if len(batch) == batchSize || i == n-1 {
			if err := producer.Publish(ctx, batch...); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	slog.Warn("documents published", "count", n, "topic", kcfg.Topics.DocumentIngest)
	return nil
}

func runLoadTest(exec *executor.Executor, gen *generator, cfg Config) *Stats {
	stats := NewStats()
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Duration)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	fmt.Print("Running")
	for w := 0; w < cfg.Concurrency; w++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(w) + 1))
		g.Go(func() error {
			for gctx.Err() == nil {
				kind, q := gen.query(rng)
				start := time.Now()
				res, err := exec.Execute(context.Background(), &executor.Request{Query: q, Limit: 10})
				stats.RecordQuery(kind, time.Since(start), res, err)
			}
			return nil
		})
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fmt.Print(".")
			}
		}
	}()

	_ = g.Wait()
	fmt.Println(" done!")
	fmt.Println()
	return stats
}

func printReport(stats *Stats, duration time.Duration) {
	total := stats.totalQueries.Load()
	errors := stats.errorCount.Load()

	fmt.Println("=== Results ===")
	fmt.Printf("Total Queries:   %d\n", total)
	fmt.Printf("Errors:          %d\n", errors)
	fmt.Printf("Timeouts:        %d\n", stats.timeouts.Load())
	if total > 0 {
		fmt.Printf("Queries/sec:     %.2f\n", float64(total)/duration.Seconds())
		fmt.Printf("Avg Hits:        %.1f\n", float64(stats.totalHits.Load())/float64(total))
	}

	stats.latenciesMu.Lock()
	latencies := make([]float64, len(stats.latencies))
	copy(latencies, stats.latencies)
	stats.latenciesMu.Unlock()

	if len(latencies) > 0 {
		sort.Float64s(latencies)
		mean, std := stat.MeanStdDev(latencies, nil)

		fmt.Println()
		fmt.Println("=== Latency (ms) ===")
		fmt.Printf("Min:    %.3f\n", latencies[0])
		fmt.Printf("Avg:    %.3f\n", mean)
		for _, p := range []float64{0.5, 0.9, 0.95, 0.99} {
			fmt.Printf("P%-5g %.3f\n", p*100, stat.Quantile(p, stat.Empirical, latencies, nil))
		}
		fmt.Printf("Max:    %.3f\n", latencies[len(latencies)-1])
		fmt.Printf("StdDev: %.3f\n", std)
	}

	fmt.Println()
	fmt.Println("=== Query Mix ===")
	for _, k := range queryKinds {
		fmt.Printf("  %-10s %d\n", k, stats.byKind[k].Load())
	}

	if total == 0 {
		fmt.Println()
		fmt.Println("WARNING: No queries completed.")
		os.Exit(1)
	}
}
