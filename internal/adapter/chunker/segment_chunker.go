package chunker

import (
	"strings"
	"unicode/utf8"

	"coursetutor/internal/domain"
)

// SegmentChunker groups consecutive transcript segments of one video into
// retrieval units of at most maxChars runes. Segments are never split.
type SegmentChunker struct {
	maxChars int
}

func NewSegmentChunker(maxChars int) *SegmentChunker {
	return &SegmentChunker{maxChars: maxChars}
}

// Chunk is the package-level form of SegmentChunker.Chunk.
func Chunk(segments []domain.Segment, maxChars int) []domain.Chunk {
	return NewSegmentChunker(maxChars).Chunk(segments)
}

func (c *SegmentChunker) Chunk(segments []domain.Segment) []domain.Chunk {
	if len(segments) == 0 {
		return nil
	}

	var chunks []domain.Chunk
	start := 0

	for start < len(segments) {
		first := segments[start]
		size := utf8.RuneCountInString(first.Text)
		end := start + 1

		for end < len(segments) {
			next := segments[end]
			if next.VideoID != first.VideoID {
				break
			}
			// +1 for the joining space
			grown := size + 1 + utf8.RuneCountInString(next.Text)
			if c.maxChars > 0 && grown > c.maxChars {
				break
			}
			size = grown
			end++
		}

		chunks = append(chunks, buildChunk(len(chunks), segments[start:end]))
		start = end
	}

	return chunks
}

func buildChunk(id int, run []domain.Segment) domain.Chunk {
	texts := make([]string, len(run))
	for i, s := range run {
		texts[i] = s.Text
	}
	text := strings.Join(texts, " ")

	first, last := run[0], run[len(run)-1]
	return domain.Chunk{
		ID:           id,
		VideoID:      first.VideoID,
		VideoTitle:   first.VideoTitle,
		VideoNumber:  first.VideoNumber,
		Text:         text,
		Start:        first.Start,
		End:          last.End,
		CharCount:    utf8.RuneCountInString(text),
		SegmentCount: len(run),
	}
}
