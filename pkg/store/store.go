// Package store is the persistent side of the interpreter: SuperChip RPL
// flags and save-state slots, keyed by the CRC32 of the ROM they belong to.
// Entries live in memory and are flushed to a host directory on demand or by
// a background syncer.
package store

import (
	"errors"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gochip8/pkg/logger"
)

// MaxStoreBytes bounds the total size of all entries.
const MaxStoreBytes = 8 << 20

// NumSlots is the number of save-state slots per ROM.
const NumSlots = 10

// FlagsSize is the size of a persisted RPL bank.
const FlagsSize = 16

// validName accepts "<crc32>.rpl" and "<crc32>.st<slot>".
var validName = regexp.MustCompile(`^[0-9a-f]{8}\.(rpl|st[0-9])$`)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrInvalidName   = errors.New("invalid entry name")
	ErrQuotaExceeded = errors.New("store quota exceeded")
	ErrInvalidSlot   = errors.New("invalid save slot")
	ErrCorruptFlags  = errors.New("corrupt flags entry")
)

type Entry struct {
	Data     []byte
	Created  time.Time
	Modified time.Time
}

// Store is safe for concurrent use; the emulation loop writes while the
// syncer flushes.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*Entry
	dirty     map[string]bool
	usedBytes int
}

func New() *Store {
	return &Store{
		entries: make(map[string]*Entry),
		dirty:   make(map[string]bool),
	}
}

// ROMKey identifies a ROM image.
func ROMKey(rom []byte) string {
	return fmt.Sprintf("%08x", crc32.ChecksumIEEE(rom))
}

func flagsName(key string) string { return key + ".rpl" }

func slotName(key string, slot int) (string, error) {
	if slot < 0 || slot >= NumSlots {
		return "", fmt.Errorf("%w: %d", ErrInvalidSlot, slot)
	}
	return fmt.Sprintf("%s.st%d", key, slot), nil
}

// Write stores a copy of data under name, replacing any previous entry.
func (s *Store) Write(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	oldSize := 0
	entry, ok := s.entries[name]
	if ok {
		oldSize = len(entry.Data)
	}
	if s.usedBytes-oldSize+len(data) > MaxStoreBytes {
		return ErrQuotaExceeded
	}

	if entry == nil {
		entry = &Entry{Created: time.Now()}
		s.entries[name] = entry
	}
	entry.Data = append([]byte(nil), data...)
	entry.Modified = time.Now()

	s.dirty[name] = true
	s.usedBytes += len(data) - oldSize
	return nil
}

// Read returns a copy of the named entry.
func (s *Store) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !validName.MatchString(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return append([]byte(nil), entry.Data...), nil
}

func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	entry, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	s.usedBytes -= len(entry.Data)
	delete(s.entries, name)
	// flushing a dirty name that no longer exists removes the host file
	s.dirty[name] = true
	return nil
}

// List returns the sorted entry names.
func (s *Store) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.entries))
	for k := range s.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (s *Store) FreeSpace() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return MaxStoreBytes - s.usedBytes
}

// Dirty reports whether anything changed since the last flush.
func (s *Store) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.dirty) > 0
}

// SaveFlags persists the RPL bank for a ROM.
func (s *Store) SaveFlags(key string, flags [FlagsSize]byte) error {
	return s.Write(flagsName(key), flags[:])
}

// LoadFlags returns the RPL bank for a ROM. A ROM that never saved flags
// gets ErrNotFound.
func (s *Store) LoadFlags(key string) ([FlagsSize]byte, error) {
	var flags [FlagsSize]byte
	data, err := s.Read(flagsName(key))
	if err != nil {
		return flags, err
	}
	if len(data) != FlagsSize {
		return flags, fmt.Errorf("%w: %d bytes", ErrCorruptFlags, len(data))
	}
	copy(flags[:], data)
	return flags, nil
}

// SaveSlot stores a machine snapshot in one of the ROM's slots.
func (s *Store) SaveSlot(key string, slot int, snapshot []byte) error {
	name, err := slotName(key, slot)
	if err != nil {
		return err
	}
	return s.Write(name, snapshot)
}

func (s *Store) LoadSlot(key string, slot int) ([]byte, error) {
	name, err := slotName(key, slot)
	if err != nil {
		return nil, err
	}
	return s.Read(name)
}

// DeleteSlot removes the snapshot in one of the ROM's slots.
func (s *Store) DeleteSlot(key string, slot int) error {
	name, err := slotName(key, slot)
	if err != nil {
		return err
	}
	return s.Delete(name)
}

// Slots returns the ROM's occupied slot numbers in ascending order.
func (s *Store) Slots(key string) []int {
	var slots []int
	for _, name := range s.List() {
		var slot int
		if _, err := fmt.Sscanf(strings.TrimPrefix(name, key), ".st%d", &slot); err != nil {
			continue
		}
		if want, _ := slotName(key, slot); want == name {
			slots = append(slots, slot)
		}
	}
	return slots
}

// LoadFrom populates the store from a host directory. Files with names the
// store would not produce are skipped. A missing directory is not an error.
func (s *Store) LoadFrom(path string) error {
	dirEntries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !validName.MatchString(name) {
			continue
		}

		full := filepath.Join(path, name)
		raw, err := os.ReadFile(full)
		if err != nil {
			logger.Logf(logger.Allow, "store", "skipping %s: %v", name, err)
			continue
		}

		entry := &Entry{Data: raw, Created: time.Now(), Modified: time.Now()}
		if info, err := de.Info(); err == nil {
			entry.Created = info.ModTime()
			entry.Modified = info.ModTime()
		}

		if old, ok := s.entries[name]; ok {
			s.usedBytes -= len(old.Data)
		}
		s.entries[name] = entry
		s.usedBytes += len(raw)
	}

	logger.Logf(logger.Allow, "store", "loaded %d entries from %s", len(s.entries), path)
	return nil
}

// PersistTo writes every dirty entry to the host directory, creating it if
// needed, and removes files for deleted entries. It returns the first error;
// entries that failed stay dirty.
func (s *Store) PersistTo(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}

	s.mu.Lock()
	writes := make(map[string]Entry)
	deletes := make([]string, 0)
	for name := range s.dirty {
		if entry, ok := s.entries[name]; ok {
			writes[name] = Entry{
				Data:     append([]byte(nil), entry.Data...),
				Created:  entry.Created,
				Modified: entry.Modified,
			}
		} else {
			deletes = append(deletes, name)
		}
		delete(s.dirty, name)
	}
	s.mu.Unlock()

	var firstErr error
	fail := func(name string, err error) {
		s.mu.Lock()
		s.dirty[name] = true
		s.mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for _, name := range deletes {
		if err := os.Remove(filepath.Join(path, name)); err != nil && !os.IsNotExist(err) {
			fail(name, err)
		}
	}
	for name, entry := range writes {
		full := filepath.Join(path, name)
		if err := os.WriteFile(full, entry.Data, 0644); err != nil {
			fail(name, err)
			continue
		}
		_ = os.Chtimes(full, time.Now(), entry.Modified)
	}

	return firstErr
}

// Sync flushes the store to path every interval until stop is closed, then
// flushes one last time.
func (s *Store) Sync(path string, interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if s.Dirty() {
				if err := s.PersistTo(path); err != nil {
					logger.Logf(logger.Allow, "store", "sync: %v", err)
				}
			}
		case <-stop:
			if s.Dirty() {
				if err := s.PersistTo(path); err != nil {
					logger.Logf(logger.Allow, "store", "sync: %v", err)
				}
			}
			return
		}
	}
}
