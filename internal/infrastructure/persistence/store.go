// Package persistence implements the Student Hub persistence store: named
// collections serialised as JSON documents on top of a small key-value port.
//
// Key components:
//   - KV: the device store port (Get/Set/Delete of raw values)
//   - CollectionStore: students and friend-links collections plus the theme
//     preference, implementing student.Store and social.LinkStore
//
// Backends live in sub-packages (memory, sqlite, redis, postgres, mongo) and
// are selected by Open.
package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ubaya-hub/student-hub/internal/domain/shared"
	"github.com/ubaya-hub/student-hub/internal/domain/social"
	"github.com/ubaya-hub/student-hub/internal/domain/student"
	"github.com/ubaya-hub/student-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// KV PORT
// ══════════════════════════════════════════════════════════════════════════════

// KV is a synchronous key-value device store. Each Set replaces the whole
// value, so a reader in the same process sees either the old or the new
// document, never a mix.
type KV interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTIONS
// ══════════════════════════════════════════════════════════════════════════════

// Collection names a logical collection owned by the store.
type Collection string

const (
	CollectionStudents    Collection = "students"
	CollectionFriendLinks Collection = "friend-links"
)

// Physical keys, named after the browser build's localStorage keys. The
// record fields inside are this package's JSON names, not the browser's.
const (
	KeyStudents    = "ubaya_students_db"
	KeyFriendLinks = "my_friends"
	KeyTheme       = "theme"
)

// Key returns the physical key of the collection.
func (c Collection) Key() (string, error) {
	switch c {
	case CollectionStudents:
		return KeyStudents, nil
	case CollectionFriendLinks:
		return KeyFriendLinks, nil
	default:
		return "", shared.NewDomainError("storage", "Key", shared.ErrInvalidInput, fmt.Sprintf("unknown collection %q", string(c)))
	}
}

// AllKeys lists every key the store writes. ClearAll removes all of them.
func AllKeys() []string {
	return []string{KeyStudents, KeyFriendLinks, KeyTheme}
}

// ══════════════════════════════════════════════════════════════════════════════
// COLLECTION STORE
// ══════════════════════════════════════════════════════════════════════════════

// CollectionStore implements student.Store and social.LinkStore over a KV.
// It holds no state of its own; every call goes to the backend.
type CollectionStore struct {
	kv  KV
	log *logger.Logger
}

var (
	_ student.Store    = (*CollectionStore)(nil)
	_ social.LinkStore = (*CollectionStore)(nil)
)

// NewCollectionStore creates a store over kv. A nil log discards output.
func NewCollectionStore(kv KV, log *logger.Logger) *CollectionStore {
	if log == nil {
		log = logger.Nop()
	}
	return &CollectionStore{kv: kv, log: log.With(logger.Component("persistence"))}
}

// KV returns the underlying backend.
func (s *CollectionStore) KV() KV {
	return s.kv
}

// ─────────────────────────────────────────────────────────────────────────────
// students
// ─────────────────────────────────────────────────────────────────────────────

// LoadStudents returns the students collection. An absent collection is
// seeded, persisted and returned.
func (s *CollectionStore) LoadStudents(ctx context.Context) ([]student.Student, error) {
	var students []student.Student
	found, err := s.load(ctx, CollectionStudents, &students)
	if err != nil {
		return nil, err
	}
	if !found {
		seed := student.SeedStudents()
		if err := s.save(ctx, CollectionStudents, seed); err != nil {
			return nil, err
		}
		s.log.Info("students collection seeded", logger.Int("count", len(seed)))
		return seed, nil
	}
	if students == nil {
		students = []student.Student{}
	}
	return students, nil
}

// SaveStudents overwrites the students collection.
func (s *CollectionStore) SaveStudents(ctx context.Context, students []student.Student) error {
	if students == nil {
		students = []student.Student{}
	}
	return s.save(ctx, CollectionStudents, students)
}

// ClearStudents removes the students collection.
func (s *CollectionStore) ClearStudents(ctx context.Context) error {
	return s.Clear(ctx, CollectionStudents)
}

// ─────────────────────────────────────────────────────────────────────────────
// friend-links
// ─────────────────────────────────────────────────────────────────────────────

// LoadLinks returns the friend-links collection, empty when absent.
func (s *CollectionStore) LoadLinks(ctx context.Context) ([]social.FriendLink, error) {
	var links []social.FriendLink
	if _, err := s.load(ctx, CollectionFriendLinks, &links); err != nil {
		return nil, err
	}
	if links == nil {
		links = []social.FriendLink{}
	}
	return links, nil
}

// SaveLinks overwrites the friend-links collection.
func (s *CollectionStore) SaveLinks(ctx context.Context, links []social.FriendLink) error {
	if links == nil {
		links = []social.FriendLink{}
	}
	return s.save(ctx, CollectionFriendLinks, links)
}

// ClearLinks removes the friend-links collection.
func (s *CollectionStore) ClearLinks(ctx context.Context) error {
	return s.Clear(ctx, CollectionFriendLinks)
}

// ─────────────────────────────────────────────────────────────────────────────
// theme
// ─────────────────────────────────────────────────────────────────────────────

// Theme reads the theme preference. A missing or unknown value reads as day.
func (s *CollectionStore) Theme(ctx context.Context) (shared.Theme, error) {
	raw, ok, err := s.kv.Get(ctx, KeyTheme)
	if err != nil {
		return "", fmt.Errorf("storage: read theme: %w", err)
	}
	if !ok {
		return shared.ThemeDay, nil
	}
	return shared.ParseTheme(string(raw)), nil
}

// SetTheme persists the theme preference as a bare string.
func (s *CollectionStore) SetTheme(ctx context.Context, theme shared.Theme) error {
	if !theme.IsValid() {
		return shared.NewDomainError("storage", "SetTheme", shared.ErrInvalidInput, "theme must be day or night")
	}
	if err := s.kv.Set(ctx, KeyTheme, []byte(theme)); err != nil {
		return fmt.Errorf("storage: write theme: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// clear
// ─────────────────────────────────────────────────────────────────────────────

// Clear removes one collection.
func (s *CollectionStore) Clear(ctx context.Context, c Collection) error {
	key, err := c.Key()
	if err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, key); err != nil {
		return fmt.Errorf("storage: clear %s: %w", c, err)
	}
	return nil
}

// ClearAll removes both collections and the theme preference. The next
// LoadStudents re-seeds.
func (s *CollectionStore) ClearAll(ctx context.Context) error {
	if err := s.kv.Delete(ctx, AllKeys()...); err != nil {
		return fmt.Errorf("storage: clear all: %w", err)
	}
	s.log.Info("all collections cleared")
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// codec
// ─────────────────────────────────────────────────────────────────────────────

func (s *CollectionStore) load(ctx context.Context, c Collection, dest any) (bool, error) {
	key, err := c.Key()
	if err != nil {
		return false, err
	}
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("storage: read %s: %w", c, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		s.log.Error("collection is unreadable", logger.Collection(string(c)), logger.Err(err))
		return false, shared.WrapError("storage", "Load", shared.ErrStorageCorrupt,
			fmt.Sprintf("collection %s is unreadable", c), err)
	}
	return true, nil
}

func (s *CollectionStore) save(ctx context.Context, c Collection, value any) error {
	key, err := c.Key()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("storage: encode %s: %w", c, err)
	}
	if err := s.kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("storage: write %s: %w", c, err)
	}
	s.log.Debug("collection saved", logger.Collection(string(c)), logger.Int("bytes", len(raw)))
	return nil
}
