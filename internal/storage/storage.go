// Package storage implements the filesystem data lake: append-only JSONL
// files partitioned by meta-epoch, plus the state and review-queue
// directories that sit alongside them.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// maxBadLinePreview bounds how much of an undeserialisable line gets logged,
// so a corrupt multi-megabyte tail line can't flood the log.
const maxBadLinePreview = 200

// EntityType names one of the JSONL-backed record kinds.
type EntityType string

const (
	EntityEvent           EntityType = "event"
	EntityPlacement        EntityType = "placement"
	EntityArmyList         EntityType = "army_list"
	EntityPairing          EntityType = "pairing"
	EntitySignificantEvent EntityType = "significant_event"
)

// Config describes the data-lake layout rooted at DataDir.
type Config struct {
	DataDir string
}

// NewConfig builds a Config rooted at dataDir.
func NewConfig(dataDir string) Config {
	return Config{DataDir: dataDir}
}

// RawDir holds fetched HTML/PDF/JSON content, keyed by the fetch package's
// own cache layout.
func (c Config) RawDir() string { return filepath.Join(c.DataDir, "raw") }

// NormalizedDir holds the per-epoch JSONL entity files.
func (c Config) NormalizedDir() string { return filepath.Join(c.DataDir, "normalized") }

// StateDir holds sync cursors and other small persistent process state.
func (c Config) StateDir() string { return filepath.Join(c.DataDir, "state") }

// ReviewQueueDir holds the review_queue.jsonl file.
func (c Config) ReviewQueueDir() string { return filepath.Join(c.DataDir, "review_queue") }

// entityPath returns the JSONL file path for an entity type within an
// epoch's partition.
func (c Config) entityPath(entity EntityType, epochID string) string {
	return filepath.Join(c.NormalizedDir(), epochID, string(entity)+".jsonl")
}

// Identifiable is implemented by every record type stored through a
// JsonlStore, so stores can dedup by id without a type switch.
type Identifiable interface {
	GetID() string
}

// JsonlStore reads and appends records of type T to the JSONL partition for
// one entity type and epoch.
type JsonlStore[T Identifiable] struct {
	cfg    Config
	entity EntityType
	logger *zap.SugaredLogger
}

// NewJsonlStore builds a store for the given entity type.
func NewJsonlStore[T Identifiable](cfg Config, entity EntityType) *JsonlStore[T] {
	return &JsonlStore[T]{cfg: cfg, entity: entity}
}

// WithLogger attaches a logger used to warn about lines ReadAll discards.
// Without one, discarded lines are skipped silently.
func (s *JsonlStore[T]) WithLogger(logger *zap.SugaredLogger) *JsonlStore[T] {
	s.logger = logger
	return s
}

// ReadAll reads every record in an epoch's partition, deduplicating by id
// and keeping the LAST occurrence of each id — later appends in the file
// represent corrections to earlier ones. A line that fails to unmarshal
// (e.g. a truncated tail line left by a crash or cancellation mid-Append) is
// discarded rather than failing the whole read: the single-writer
// append-only model means a partial tail line is the only kind of
// corruption this store should ever see, and the rest of the partition is
// still good data.
func (s *JsonlStore[T]) ReadAll(epochID string) ([]T, error) {
	path := s.cfg.entityPath(s.entity, epochID)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: opening %s: %w", path, err)
	}
	defer f.Close()

	order := make([]string, 0, 128)
	byID := make(map[string]T)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			if s.logger != nil {
				s.logger.Warnw("discarding unparsable jsonl line",
					"path", path, "error", err, "preview", previewLine(line))
			}
			continue
		}
		id := rec.GetID()
		if _, seen := byID[id]; !seen {
			order = append(order, id)
		}
		byID[id] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("storage: reading %s: %w", path, err)
	}

	out := make([]T, 0, len(order))
	for _, id := range order {
		out = append(out, byID[id])
	}
	return out, nil
}

// previewLine truncates a raw line for logging so a corrupt multi-megabyte
// tail line can't flood the log.
func previewLine(line []byte) string {
	if len(line) > maxBadLinePreview {
		return string(line[:maxBadLinePreview]) + "..."
	}
	return string(line)
}

// Append writes records to the end of an epoch's partition, one JSON object
// per line. Dedup happens on read, not on write: appending the same id
// twice simply means the later line wins at read time.
func (s *JsonlStore[T]) Append(epochID string, records ...T) error {
	if len(records) == 0 {
		return nil
	}
	path := s.cfg.entityPath(s.entity, epochID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: creating partition dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage: opening %s for append: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("storage: marshaling record: %w", err)
		}
		if _, err := w.Write(line); err != nil {
			return fmt.Errorf("storage: writing %s: %w", path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("storage: writing %s: %w", path, err)
		}
	}
	return w.Flush()
}

// Rewrite atomically replaces an epoch's partition with exactly the given
// records, used by the repartitioner when a significant event retroactively
// splits or merges epoch boundaries.
func (s *JsonlStore[T]) Rewrite(epochID string, records []T) error {
	path := s.cfg.entityPath(s.entity, epochID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: creating partition dir: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("storage: creating %s: %w", tmp, err)
	}
	w := bufio.NewWriter(f)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			f.Close()
			os.Remove(tmp)
			return fmt.Errorf("storage: marshaling record: %w", err)
		}
		w.Write(line)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("storage: flushing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

// EpochIDs lists the epoch partitions that currently exist on disk.
func (s *JsonlStore[T]) EpochIDs() ([]string, error) {
	entries, err := os.ReadDir(s.cfg.NormalizedDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("storage: listing %s: %w", s.cfg.NormalizedDir(), err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}
