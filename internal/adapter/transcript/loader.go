package transcript

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"coursetutor/internal/adapter/fs"
	"coursetutor/internal/domain"
)

// file is the on-disk transcript document. Whisper-style dumps use
// "chunks" with title/number repeated per entry; both shapes are accepted.
type file struct {
	VideoID  string  `json:"video_id"`
	Title    string  `json:"title"`
	Number   flexStr `json:"number"`
	Segments []entry `json:"segments"`
	Chunks   []entry `json:"chunks"`
}

type entry struct {
	Text   string   `json:"text"`
	Start  *float64 `json:"start"`
	End    *float64 `json:"end"`
	Title  string   `json:"title"`
	Number flexStr  `json:"number"`
}

// flexStr accepts both "3" and 3.
type flexStr string

func (f *flexStr) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexStr(s)
		return nil
	}
	if string(data) == "null" {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexStr(n.String())
	return nil
}

// Loader reads per-video JSON transcripts.
type Loader struct {
	walker *fs.Walker
}

func NewLoader(walker *fs.Walker) *Loader {
	return &Loader{walker: walker}
}

// Load returns the segments of every transcript under dir, grouped by file
// in lexical path order and kept in document order within a file.
func (l *Loader) Load(dir string) ([]domain.Segment, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("transcript directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("transcript path is not a directory: %s", dir)
	}

	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	paths, err := l.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk transcripts: %w", err)
	}

	var segments []domain.Segment
	owners := make(map[string]string, len(paths))
	for _, path := range paths {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil, err
		}

		videoID, segs, err := parseFile(path, stem(filepath.ToSlash(rel)))
		if err != nil {
			return nil, err
		}
		if prev, ok := owners[videoID]; ok {
			return nil, fmt.Errorf("transcripts %s and %s both resolve to video id %q", prev, path, videoID)
		}
		owners[videoID] = path

		slog.Debug("loaded transcript", "path", path, "video_id", videoID, "segments", len(segs))
		segments = append(segments, segs...)
	}
	return segments, nil
}

// LoadFile parses one transcript document. Without an explicit video_id the
// file name stem is used.
func LoadFile(path string) ([]domain.Segment, error) {
	_, segs, err := parseFile(path, stem(filepath.Base(path)))
	return segs, err
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}

func parseFile(path, fallbackID string) (string, []domain.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("read transcript %s: %w", path, err)
	}

	var doc file
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", nil, fmt.Errorf("parse transcript %s: %w", path, err)
	}

	entries := doc.Segments
	if len(entries) == 0 {
		entries = doc.Chunks
	}

	videoID := strings.TrimSpace(doc.VideoID)
	if videoID == "" {
		videoID = fallbackID
	}
	title := strings.TrimSpace(doc.Title)
	number := strings.TrimSpace(string(doc.Number))

	segments := make([]domain.Segment, 0, len(entries))
	for i, e := range entries {
		if title == "" && e.Title != "" {
			title = strings.TrimSpace(e.Title)
		}
		if number == "" && e.Number != "" {
			number = strings.TrimSpace(string(e.Number))
		}

		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}
		if e.Start == nil || e.End == nil {
			return "", nil, fmt.Errorf("transcript %s: segment %d is missing start or end", path, i)
		}
		start, end := *e.Start, *e.End
		if !isFinite(start) || !isFinite(end) || start < 0 || end < start {
			return "", nil, fmt.Errorf("transcript %s: segment %d has invalid time range [%v, %v]", path, i, start, end)
		}

		segments = append(segments, domain.Segment{
			VideoID: videoID,
			Text:    text,
			Start:   start,
			End:     end,
		})
	}

	for i := range segments {
		segments[i].VideoTitle = title
		segments[i].VideoNumber = number
	}
	return videoID, segments, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
