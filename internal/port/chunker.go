package port

import "coursetutor/internal/domain"

type Chunker interface {
	Chunk(segments []domain.Segment) []domain.Chunk
}

// TranscriptLoader reads every transcript under a directory into ordered segments.
type TranscriptLoader interface {
	Load(dir string) ([]domain.Segment, error)
}
