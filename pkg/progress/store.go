package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-reform/pkg/model"
)

// DefaultSessionKey is used when no key is supplied.
const DefaultSessionKey = "formProgress"

// ErrStorageRequired is returned by NewStore when storage is nil.
var ErrStorageRequired = errors.New("progress: storage is required")

// Storage is the session-keyed byte store backing a Store.
type Storage interface {
	// Get returns the bytes stored under key and whether an entry exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set overwrites the entry under key.
	Set(ctx context.Context, key string, data []byte) error
	// Delete removes the entry under key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
}

// Snapshot is the persisted unit: navigation index and schema together.
type Snapshot struct {
	CurrentPageIndex int              `json:"currentPageIndex"`
	FormData         model.FormSchema `json:"formData"`
}

// Valid reports whether the index fits the schema.
func (s Snapshot) Valid() bool {
	pages := s.FormData.PageCount()
	if pages == 0 {
		return s.CurrentPageIndex == 0
	}
	return s.CurrentPageIndex >= 0 && s.CurrentPageIndex < pages
}

// Store reads and writes snapshots for a single session key.
type Store struct {
	storage Storage
	key     string
	logger  zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used for discarded entries.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore binds storage to key. An empty key falls back to DefaultSessionKey.
func NewStore(storage Storage, key string, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, ErrStorageRequired
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = DefaultSessionKey
	}
	s := &Store{
		storage: storage,
		key:     key,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Key returns the session key the store writes under.
func (s *Store) Key() string {
	return s.key
}

// Save serialises the snapshot and overwrites the session entry.
func (s *Store) Save(ctx context.Context, snapshot Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("progress: encode snapshot: %w", err)
	}
	if err := s.storage.Set(ctx, s.key, data); err != nil {
		return fmt.Errorf("progress: write %q: %w", s.key, err)
	}
	return nil
}

// Load returns the stored snapshot. Missing, unreadable or malformed entries
// all report false; the cause is logged, never returned.
func (s *Store) Load(ctx context.Context) (Snapshot, bool) {
	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", s.key).Msg("progress read failed")
		return Snapshot{}, false
	}
	if !ok {
		return Snapshot{}, false
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		s.logger.Warn().Err(err).Str("session", s.key).Msg("ignoring malformed progress entry")
		return Snapshot{}, false
	}
	return snapshot, true
}

// Clear removes the session entry.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("progress: delete %q: %w", s.key, err)
	}
	return nil
}

type rawSnapshot struct {
	CurrentPageIndex *int            `json:"currentPageIndex"`
	FormData         json.RawMessage `json:"formData"`
}

func decodeSnapshot(data []byte) (Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(data, &raw); err != nil {
		return Snapshot{}, fmt.Errorf("progress: decode snapshot: %w", err)
	}
	if raw.CurrentPageIndex == nil {
		return Snapshot{}, errors.New("progress: snapshot has no page index")
	}
	schema, err := model.Parse(raw.FormData)
	if err != nil {
		return Snapshot{}, fmt.Errorf("progress: snapshot form data: %w", err)
	}
	snapshot := Snapshot{CurrentPageIndex: *raw.CurrentPageIndex, FormData: schema}
	if !snapshot.Valid() {
		return Snapshot{}, fmt.Errorf("progress: page index %d outside %d pages", snapshot.CurrentPageIndex, schema.PageCount())
	}
	return snapshot, nil
}
