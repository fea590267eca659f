package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.etcd.io/bbolt"

	"coursetutor/internal/domain"
)

const openTimeout = time.Second

// Write persists st to path as a single bbolt file. The artifact is built
// under a temporary name in the same directory and renamed into place only
// after a successful commit, so readers see either the old store or the
// complete new one.
func Write(path string, st *domain.Store) error {
	if err := checkHeader(st); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store: %w", err)
	}
	tmpPath := tmp.Name()
	tmp.Close()

	published := false
	defer func() {
		if !published {
			os.Remove(tmpPath)
		}
	}()

	db, err := bbolt.Open(tmpPath, 0600, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucket(bucketMeta)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketMeta, err)
		}
		records, err := tx.CreateBucket(bucketRecords)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucketRecords, err)
		}
		// Keys are written in ascending order.
		records.FillPercent = 1.0

		header := map[string]string{
			string(keyFormatVersion): strconv.Itoa(FormatVersion),
			string(keyModel):         st.Model,
			string(keyDimension):     strconv.Itoa(st.Dimension),
			string(keyBuildID):       st.BuildID,
			string(keyCreatedAt):     st.CreatedAt.UTC().Format(time.RFC3339Nano),
			string(keyConfigHash):    st.ConfigHash,
			string(keyRecordCount):   strconv.Itoa(len(st.Records)),
		}
		for k, v := range header {
			if err := meta.Put([]byte(k), []byte(v)); err != nil {
				return err
			}
		}

		lastID := -1
		for _, rec := range st.Records {
			if err := checkRecord(rec, st.Dimension); err != nil {
				return err
			}
			if rec.Chunk.ID <= lastID {
				return fmt.Errorf("record ids must be unique and ascending: %d after %d", rec.Chunk.ID, lastID)
			}
			lastID = rec.Chunk.ID

			data, err := json.Marshal(toStored(rec))
			if err != nil {
				return err
			}
			if err := records.Put(recordKey(rec.Chunk.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}

	if err := db.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to publish store: %w", err)
	}
	published = true
	return nil
}

// Load opens the artifact read-only and validates it in full. A Store
// returned without error is internally consistent.
func Load(path string) (*domain.Store, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.StoreNotFoundError{Path: path}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat store: %w", err)
	}
	if info.IsDir() {
		return nil, &domain.StoreCorruptError{Path: path, Reason: "path is a directory"}
	}

	db, err := bbolt.Open(path, 0400, &bbolt.Options{ReadOnly: true, Timeout: openTimeout})
	if err != nil {
		return nil, &domain.StoreCorruptError{Path: path, Reason: "not a readable store file", Err: err}
	}
	defer db.Close()

	st := &domain.Store{}
	err = db.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(bucketMeta)
		if meta == nil {
			return corrupt("missing meta bucket")
		}
		if err := readHeader(meta, st); err != nil {
			return err
		}
		count, err := metaInt(meta, keyRecordCount)
		if err != nil {
			return err
		}

		records := tx.Bucket(bucketRecords)
		if records == nil {
			return corrupt("missing records bucket")
		}

		st.Records = make([]domain.EmbeddingRecord, 0, count)
		err = records.ForEach(func(k, v []byte) error {
			if len(k) != 8 {
				return corrupt(fmt.Sprintf("invalid record key %x", k))
			}
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				return &domain.StoreCorruptError{Reason: fmt.Sprintf("record %x undecodable", k), Err: err}
			}
			if uint64(stored.ID) != binary.BigEndian.Uint64(k) {
				return corrupt(fmt.Sprintf("record %d stored under key %d", stored.ID, binary.BigEndian.Uint64(k)))
			}
			rec := fromStored(stored)
			if err := checkRecord(rec, st.Dimension); err != nil {
				return corrupt(err.Error())
			}
			st.Records = append(st.Records, rec)
			return nil
		})
		if err != nil {
			return err
		}

		if len(st.Records) != count {
			return corrupt(fmt.Sprintf("expected %d records, found %d", count, len(st.Records)))
		}
		return nil
	})
	if err != nil {
		var corruptErr *domain.StoreCorruptError
		if errors.As(err, &corruptErr) {
			corruptErr.Path = path
			return nil, corruptErr
		}
		return nil, &domain.StoreCorruptError{Path: path, Reason: "read failed", Err: err}
	}

	return st, nil
}

func readHeader(meta *bbolt.Bucket, st *domain.Store) error {
	version, err := metaInt(meta, keyFormatVersion)
	if err != nil {
		return err
	}
	if version != FormatVersion {
		return corrupt(fmt.Sprintf("unsupported format version %d (want %d)", version, FormatVersion))
	}

	st.Model = string(meta.Get(keyModel))
	if st.Model == "" {
		return corrupt("missing embedding model identifier")
	}

	st.Dimension, err = metaInt(meta, keyDimension)
	if err != nil {
		return err
	}
	if st.Dimension <= 0 {
		return corrupt(fmt.Sprintf("invalid dimension %d", st.Dimension))
	}

	st.BuildID = string(meta.Get(keyBuildID))
	st.ConfigHash = string(meta.Get(keyConfigHash))
	if raw := meta.Get(keyCreatedAt); len(raw) > 0 {
		t, err := time.Parse(time.RFC3339Nano, string(raw))
		if err != nil {
			return &domain.StoreCorruptError{Reason: "invalid created_at", Err: err}
		}
		st.CreatedAt = t
	}
	return nil
}

func metaInt(meta *bbolt.Bucket, key []byte) (int, error) {
	raw := meta.Get(key)
	if raw == nil {
		return 0, corrupt(fmt.Sprintf("missing %s", key))
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return 0, &domain.StoreCorruptError{Reason: fmt.Sprintf("invalid %s", key), Err: err}
	}
	return n, nil
}

func checkHeader(st *domain.Store) error {
	if st == nil {
		return fmt.Errorf("nil store")
	}
	if st.Model == "" {
		return fmt.Errorf("store has no embedding model identifier")
	}
	if st.Dimension <= 0 {
		return fmt.Errorf("store has invalid dimension %d", st.Dimension)
	}
	return nil
}

func checkRecord(rec domain.EmbeddingRecord, dimension int) error {
	if rec.Chunk.ID < 0 {
		return fmt.Errorf("record has negative id %d", rec.Chunk.ID)
	}
	if rec.Chunk.VideoID == "" {
		return fmt.Errorf("record %d is missing video_id", rec.Chunk.ID)
	}
	if rec.Chunk.Text == "" {
		return fmt.Errorf("record %d is missing text", rec.Chunk.ID)
	}
	if len(rec.Vector) != dimension {
		return fmt.Errorf("record %d has dimension %d, expected %d", rec.Chunk.ID, len(rec.Vector), dimension)
	}
	for _, x := range rec.Vector {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("record %d has non-finite vector values", rec.Chunk.ID)
		}
	}
	return nil
}

func corrupt(reason string) error {
	return &domain.StoreCorruptError{Reason: reason}
}

func recordKey(id int) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, uint64(id))
	return key
}

func toStored(rec domain.EmbeddingRecord) storedRecord {
	c := rec.Chunk
	return storedRecord{
		ID:           c.ID,
		VideoID:      c.VideoID,
		VideoTitle:   c.VideoTitle,
		VideoNumber:  c.VideoNumber,
		Text:         c.Text,
		Start:        c.Start,
		End:          c.End,
		CharCount:    c.CharCount,
		SegmentCount: c.SegmentCount,
		Vector:       rec.Vector,
	}
}

func fromStored(s storedRecord) domain.EmbeddingRecord {
	return domain.EmbeddingRecord{
		Chunk: domain.Chunk{
			ID:           s.ID,
			VideoID:      s.VideoID,
			VideoTitle:   s.VideoTitle,
			VideoNumber:  s.VideoNumber,
			Text:         s.Text,
			Start:        s.Start,
			End:          s.End,
			CharCount:    s.CharCount,
			SegmentCount: s.SegmentCount,
		},
		Vector: s.Vector,
	}
}
