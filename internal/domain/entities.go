package domain

import "time"

// Segment is one timed line of a video transcript.
type Segment struct {
	VideoID     string
	VideoTitle  string
	VideoNumber string
	Text        string
	Start       float64 // seconds
	End         float64 // seconds
}

// Chunk is a contiguous run of segments from a single video.
type Chunk struct {
	ID           int     `json:"id"`
	VideoID      string  `json:"video_id"`
	VideoTitle   string  `json:"video_title,omitempty"`
	VideoNumber  string  `json:"video_number,omitempty"`
	Text         string  `json:"text"`
	Start        float64 `json:"start"`
	End          float64 `json:"end"`
	CharCount    int     `json:"char_count"`
	SegmentCount int     `json:"segment_count"`
}

type EmbeddingRecord struct {
	Chunk  Chunk
	Vector []float32
}

// Store is the loaded embedding table. It is treated as read-only once built
// or loaded; every record shares Dimension and was produced by Model.
type Store struct {
	Model      string
	Dimension  int
	BuildID    string
	CreatedAt  time.Time
	ConfigHash string
	Records    []EmbeddingRecord
}

// Len returns the number of records in the store.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}

type Query struct {
	Text     string
	Provider string
	Model    string
	TopK     int
}

type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// RetrievalResult is ordered by descending score.
type RetrievalResult []ScoredChunk

type Answer struct {
	Question string          `json:"question"`
	Text     string          `json:"answer"`
	Provider string          `json:"provider"`
	Model    string          `json:"model"`
	Sources  RetrievalResult `json:"sources"`
}
