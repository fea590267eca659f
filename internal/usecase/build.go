package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"coursetutor/internal/adapter/store"
	"coursetutor/internal/domain"
	"coursetutor/internal/port"
)

// BuildOptions tunes the offline pipeline.
type BuildOptions struct {
	BatchSize   int
	Concurrency int
	ConfigHash  string
}

// BuildUseCase runs the offline pipeline: load, chunk, embed, write.
type BuildUseCase struct {
	loader   port.TranscriptLoader
	chunker  port.Chunker
	embedder port.Embedder
	opts     BuildOptions
	progress func(done, total int)
}

// NewBuildUseCase creates a new build use case.
func NewBuildUseCase(
	loader port.TranscriptLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	opts BuildOptions,
) *BuildUseCase {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &BuildUseCase{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		opts:     opts,
	}
}

// OnProgress registers a callback invoked after each embedded batch with the
// number of chunks embedded so far. It may be called from several goroutines.
func (u *BuildUseCase) OnProgress(fn func(done, total int)) {
	u.progress = fn
}

// BuildResult summarizes a completed build.
type BuildResult struct {
	Segments  int
	Chunks    int
	Videos    int
	Model     string
	Dimension int
	BuildID   string
	Duration  time.Duration
}

// Build embeds every transcript under transcriptsDir and publishes the store
// at storePath. Nothing is written unless every step succeeds.
func (u *BuildUseCase) Build(ctx context.Context, transcriptsDir, storePath string) (*BuildResult, error) {
	start := time.Now()

	segments, err := u.loader.Load(transcriptsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcripts: %w", err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("%s: %w", transcriptsDir, domain.ErrEmptyCorpus)
	}

	chunks := u.chunker.Chunk(segments)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%s: %w", transcriptsDir, domain.ErrEmptyCorpus)
	}
	slog.Info("chunked transcripts", "segments", len(segments), "chunks", len(chunks))

	vectors, err := u.embedChunks(ctx, chunks)
	if err != nil {
		return nil, err
	}

	st := &domain.Store{
		Model:      u.embedder.ModelName(),
		Dimension:  len(vectors[0]),
		BuildID:    uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		ConfigHash: u.opts.ConfigHash,
		Records:    make([]domain.EmbeddingRecord, len(chunks)),
	}
	for i, c := range chunks {
		if len(vectors[i]) != st.Dimension {
			return nil, &domain.EmbeddingServiceError{
				Model:  st.Model,
				Reason: fmt.Sprintf("chunk %d has dimension %d, expected %d", c.ID, len(vectors[i]), st.Dimension),
			}
		}
		st.Records[i] = domain.EmbeddingRecord{Chunk: c, Vector: vectors[i]}
	}

	if err := store.Write(storePath, st); err != nil {
		return nil, err
	}

	result := &BuildResult{
		Segments:  len(segments),
		Chunks:    len(chunks),
		Videos:    countVideos(chunks),
		Model:     st.Model,
		Dimension: st.Dimension,
		BuildID:   st.BuildID,
		Duration:  time.Since(start),
	}
	slog.Info("store written", "path", storePath, "build_id", st.BuildID,
		"records", result.Chunks, "dimension", st.Dimension, "duration", result.Duration)
	return result, nil
}

// embedChunks embeds chunk texts in batches, several batches in flight at a
// time. Vectors are placed by chunk position, so completion order does not
// matter. The first failure cancels the remaining batches.
func (u *BuildUseCase) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([][]float32, len(texts))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(u.opts.Concurrency)

	for lo := 0; lo < len(texts); lo += u.opts.BatchSize {
		lo := lo
		hi := min(lo+u.opts.BatchSize, len(texts))
		g.Go(func() error {
			vecs, err := u.embedder.Embed(gctx, texts[lo:hi])
			if err != nil {
				return fmt.Errorf("embed chunks %d-%d: %w", lo, hi-1, err)
			}
			if len(vecs) != hi-lo {
				return &domain.EmbeddingServiceError{
					Model:  u.embedder.ModelName(),
					Reason: fmt.Sprintf("expected %d vectors, got %d", hi-lo, len(vecs)),
				}
			}
			copy(vectors[lo:hi], vecs)

			n := done.Add(int64(hi - lo))
			if u.progress != nil {
				u.progress(int(n), len(texts))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func countVideos(chunks []domain.Chunk) int {
	seen := make(map[string]struct{})
	for _, c := range chunks {
		seen[c.VideoID] = struct{}{}
	}
	return len(seen)
}
