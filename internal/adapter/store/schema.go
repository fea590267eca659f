package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"coursetutor/config"
)

// FormatVersion is the current artifact format version.
// Increment this when making breaking changes to the storage format.
const FormatVersion = 1

var (
	bucketMeta    = []byte("meta")
	bucketRecords = []byte("records")

	keyFormatVersion = []byte("format_version")
	keyModel         = []byte("model")
	keyDimension     = []byte("dimension")
	keyBuildID       = []byte("build_id")
	keyCreatedAt     = []byte("created_at")
	keyConfigHash    = []byte("config_hash")
	keyRecordCount   = []byte("record_count")
)

// ComputeConfigHash fingerprints the settings that shape the stored vectors.
// A store whose hash differs from the running configuration was built with
// other chunking or embedding settings.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		MaxChars    int    `json:"max_chars"`
		EmbProvider string `json:"emb_provider"`
		EmbModel    string `json:"emb_model"`
	}{
		MaxChars:    cfg.Chunk.MaxChars,
		EmbProvider: cfg.Embedding.Provider,
		EmbModel:    cfg.Embedding.Model,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// storedRecord is the JSON value kept under each record key.
type storedRecord struct {
	ID           int       `json:"id"`
	VideoID      string    `json:"video_id"`
	VideoTitle   string    `json:"video_title,omitempty"`
	VideoNumber  string    `json:"video_number,omitempty"`
	Text         string    `json:"text"`
	Start        float64   `json:"start"`
	End          float64   `json:"end"`
	CharCount    int       `json:"char_count"`
	SegmentCount int       `json:"segment_count"`
	Vector       []float32 `json:"v"`
}
