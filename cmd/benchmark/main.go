package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"coursetutor/config"
	"coursetutor/internal/adapter/embedding"
	"coursetutor/internal/adapter/retriever"
	"coursetutor/internal/adapter/store"
	"coursetutor/internal/domain"
)

func main() {
	projectDir := flag.String("dir", ".", "Project directory containing coursetutor.yaml")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 10, "Number of results")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir ./course -q \"query\"")
		fmt.Println("\nTests:")
		fmt.Println("  1. Embedding infrastructure (model connection, store compatibility)")
		fmt.Println("  2. Semantic similarity (query vs results)")
		fmt.Println("  3. Coverage (how many distinct videos the top results span)")
		os.Exit(1)
	}

	if err := config.LoadDotEnv(*projectDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromDir(*projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()

	st, err := store.Load(cfg.StorePath(*projectDir))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	if st.Len() == 0 {
		fmt.Fprintln(os.Stderr, "Store is empty - run 'coursetutor build' first")
		os.Exit(1)
	}

	embedder, err := embedding.NewQueryClient(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks embedded: %d\n", st.Len())
	fmt.Printf("Model: %s (%s)\n", st.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", st.Dimension)
	fmt.Println()

	if embedder.ModelName() != st.Model {
		fmt.Fprintf(os.Stderr, "Configured model %q does not match store model %q\n", embedder.ModelName(), st.Model)
		os.Exit(1)
	}

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	queryVec, err := embedder.Embed(context.Background(), []string{*query})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Query embedded: %d dimensions\n\n", len(queryVec[0]))

	results, err := retriever.Retrieve(queryVec[0], st, *topK)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Top %d semantic matches:\n\n", len(results))

	totalScore := 0.0
	videos := make(map[string]struct{})
	for i, r := range results {
		preview := r.Chunk.Text
		if len(preview) > 150 {
			preview = preview[:150] + "..."
		}

		similarity := r.Score
		totalScore += similarity
		videos[r.Chunk.VideoID] = struct{}{}

		fmt.Printf("%d. [%s %.3f] %s %s\n", i+1, rating(similarity), similarity, videoLabel(r.Chunk), r.Chunk.TimeRange())
		fmt.Printf("   %s\n\n", preview)
	}

	avgScore := totalScore / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avgScore)
	fmt.Printf("  Top-1 similarity:   %.3f\n", results[0].Score)
	fmt.Printf("  Distinct videos:    %d\n", len(videos))

	if avgScore > 0.5 {
		fmt.Println("  Status: GOOD - semantic search working well")
	} else if avgScore > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - may need a different model or smaller chunks")
	}
}

func rating(similarity float64) string {
	switch {
	case similarity > 0.7:
		return "HIGH"
	case similarity > 0.5:
		return "GOOD"
	case similarity > 0.3:
		return "OK"
	default:
		return "LOW"
	}
}

func videoLabel(c domain.Chunk) string {
	label := c.VideoID
	if c.VideoTitle != "" {
		label = c.VideoTitle
	}
	if c.VideoNumber != "" {
		label = "#" + c.VideoNumber + " " + label
	}
	return label
}
