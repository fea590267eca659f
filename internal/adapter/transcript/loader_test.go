package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"coursetutor/internal/adapter/chunker"
	"coursetutor/internal/adapter/fs"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadSegmentsShape(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "01_intro.json", `{
  "video_id": "html-01",
  "title": "Intro to HTML",
  "number": 1,
  "segments": [
    {"start": 0, "end": 30, "text": "intro to HTML"},
    {"start": 30, "end": 55.5, "text": "  HTML tags "},
    {"start": 55.5, "end": 60, "text": "   "}
  ]
}`)

	segs, err := NewLoader(fs.NewWalker(nil, nil)).Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 non-blank segments, got %d", len(segs))
	}
	if segs[0].VideoID != "html-01" || segs[0].VideoTitle != "Intro to HTML" || segs[0].VideoNumber != "1" {
		t.Errorf("unexpected metadata: %+v", segs[0])
	}
	if segs[1].Text != "HTML tags" {
		t.Errorf("expected trimmed text, got %q", segs[1].Text)
	}
	if segs[1].Start != 30 || segs[1].End != 55.5 {
		t.Errorf("unexpected times: %+v", segs[1])
	}
}

func TestLoadChunksShapeDefaultsVideoIDToFileStem(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "07_css.json", `{
  "chunks": [
    {"number": "7", "title": "CSS basics", "start": 0, "end": 4, "text": "selectors"},
    {"number": "7", "title": "CSS basics", "start": 4, "end": 9, "text": "specificity"}
  ]
}`)

	segs, err := NewLoader(fs.NewWalker(nil, nil)).Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	for _, s := range segs {
		if s.VideoID != "07_css" {
			t.Errorf("expected video id from file stem, got %q", s.VideoID)
		}
		if s.VideoTitle != "CSS basics" || s.VideoNumber != "7" {
			t.Errorf("unexpected metadata: %+v", s)
		}
	}
}

func TestLoadOrdersFilesLexically(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.json", `{"segments":[{"start":0,"end":1,"text":"second"}]}`)
	write(t, dir, "a.json", `{"segments":[{"start":0,"end":1,"text":"first"}]}`)

	segs, err := NewLoader(fs.NewWalker(nil, nil)).Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 || segs[0].Text != "first" || segs[1].Text != "second" {
		t.Fatalf("unexpected order: %+v", segs)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"invalid json", `{"segments": [`, "parse transcript"},
		{"end before start", `{"segments":[{"start":10,"end":5,"text":"x"}]}`, "invalid time range"},
		{"negative start", `{"segments":[{"start":-1,"end":5,"text":"x"}]}`, "invalid time range"},
		{"missing end", `{"segments":[{"start":1,"text":"x"}]}`, "missing start or end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			write(t, dir, "v.json", tt.content)
			_, err := NewLoader(fs.NewWalker(nil, nil)).Load(dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadMissingDir(t *testing.T) {
	_, err := NewLoader(fs.NewWalker(nil, nil)).Load(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestLoadNestedFilesGetDistinctVideoIDs(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{"html", "css"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
		write(t, dir, filepath.Join(sub, "01.json"), `{"segments":[{"start":0,"end":5,"text":"`+sub+` lesson"}]}`)
	}

	segs, err := NewLoader(fs.NewWalker(nil, nil)).Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].VideoID != "css/01" || segs[1].VideoID != "html/01" {
		t.Errorf("expected ids from relative paths, got %q and %q", segs[0].VideoID, segs[1].VideoID)
	}

	chunks := chunker.Chunk(segs, 1000)
	if len(chunks) != 2 {
		t.Fatalf("two videos must never share a chunk, got %d chunk(s)", len(chunks))
	}
}

func TestLoadRejectsDuplicateVideoIDs(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.json", `{"video_id":"01","segments":[{"start":0,"end":1,"text":"first"}]}`)
	write(t, dir, "b.json", `{"video_id":"01","segments":[{"start":0,"end":1,"text":"second"}]}`)

	_, err := NewLoader(fs.NewWalker(nil, nil)).Load(dir)
	if err == nil || !strings.Contains(err.Error(), `video id "01"`) {
		t.Fatalf("expected duplicate video id error, got %v", err)
	}
}
