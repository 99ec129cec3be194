package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"industrymap/internal/model"
)

// Store is the durable mapping from ticker symbol to classification record.
type Store struct {
	path     string
	logger   *slog.Logger
	metadata []string
	data     map[string]model.Record
}

// document is the on-disk shape.
type document struct {
	Metadata []string                `json:"metadata"`
	Data     map[string]model.Record `json:"data"`
}

// New creates an empty store backed by the given file path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:     path,
		logger:   logger,
		metadata: append([]string(nil), model.FieldNames...),
		data:     make(map[string]model.Record),
	}
}

// Load reads durable state from disk. A missing, unreadable, or malformed
// file is not an error: the store starts fresh so the next run can rebuild
// it. Load never fails.
func (s *Store) Load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("store file not found, starting fresh", "path", s.path)
		} else {
			s.logger.Warn("store file unreadable, starting fresh", "path", s.path, "error", err)
		}
		s.data = make(map[string]model.Record)
		return
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("store file malformed, starting fresh", "path", s.path, "error", err)
		s.data = make(map[string]model.Record)
		return
	}
	if len(doc.Metadata) == 0 || doc.Data == nil {
		s.logger.Warn("store file has invalid structure, starting fresh", "path", s.path)
		s.data = make(map[string]model.Record)
		return
	}

	s.metadata = doc.Metadata
	s.data = doc.Data
	s.logger.Info("store loaded", "path", s.path, "symbols", len(s.data))
}

// Save writes the store to disk, creating the containing directory if
// needed. On failure the in-memory state and the on-disk file are both
// left untouched.
func (s *Store) Save() error {
	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	raw, err := json.MarshalIndent(document{Metadata: s.metadata, Data: s.data}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}

	s.logger.Info("store saved", "path", s.path, "symbols", len(s.data))
	return nil
}

// Update overwrites the record for a symbol. A record without exactly four
// fields is logged and discarded; the previous entry, if any, survives.
func (s *Store) Update(symbol string, rec model.Record) {
	if len(rec) != model.FieldCount {
		s.logger.Warn("discarding record with wrong field count",
			"symbol", symbol,
			"fields", len(rec),
			"want", model.FieldCount,
		)
		return
	}
	s.data[symbol] = rec
}

// Get returns the record for a symbol.
func (s *Store) Get(symbol string) (model.Record, bool) {
	rec, ok := s.data[symbol]
	return rec, ok
}

// Pending reports whether a symbol still needs fetching: it is absent, or
// its stored value is empty. A record of four "-" fields is NOT pending;
// presence drives the skip decision, not field-level completeness.
func (s *Store) Pending(symbol string) bool {
	rec, ok := s.data[symbol]
	return !ok || len(rec) == 0
}

// Clear resets the in-memory map. Disk is untouched until the next Save.
func (s *Store) Clear() {
	s.data = make(map[string]model.Record)
}

// Len returns the number of stored symbols.
func (s *Store) Len() int {
	return len(s.data)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}
