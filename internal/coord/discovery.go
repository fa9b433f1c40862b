package coord

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DiscoveryBoard is the append-only log of artifact announcements. Entries
// are never deleted; verification is a one-way flag flip. A reverse index
// from export name to entry lets agents resolve imports for each other's
// work without polling a shared filesystem.
type DiscoveryBoard struct {
	mu       sync.Mutex
	entries  map[string]*DiscoveryEntry
	order    []string          // announcement order
	byExport map[string]string // export name -> entry id (first announcement wins)
}

// NewDiscoveryBoard creates an empty board.
func NewDiscoveryBoard() *DiscoveryBoard {
	return &DiscoveryBoard{
		entries:  make(map[string]*DiscoveryEntry),
		byExport: make(map[string]string),
	}
}

// Announce appends an entry to the board and returns the stored copy. A
// missing ID or timestamp is filled in.
func (b *DiscoveryBoard) Announce(entry DiscoveryEntry) DiscoveryEntry {
	b.mu.Lock()
	defer b.mu.Unlock()

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	entry.Verified = false

	stored := entry
	b.entries[stored.ID] = &stored
	b.order = append(b.order, stored.ID)
	for _, export := range stored.Exports {
		if _, taken := b.byExport[export]; !taken {
			b.byExport[export] = stored.ID
		}
	}
	return stored
}

// Verify flips the verified flag. Idempotent; false only when the entry does
// not exist.
func (b *DiscoveryBoard) Verify(id string) (DiscoveryEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.entries[id]
	if !ok {
		return DiscoveryEntry{}, false
	}
	entry.Verified = true
	return *entry, true
}

// Get returns the entry with the given id.
func (b *DiscoveryBoard) Get(id string) (DiscoveryEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.entries[id]
	if !ok {
		return DiscoveryEntry{}, false
	}
	return *entry, true
}

// FindByExport resolves an export name to the entry that announced it.
func (b *DiscoveryBoard) FindByExport(name string) (DiscoveryEntry, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.byExport[name]
	if !ok {
		return DiscoveryEntry{}, false
	}
	return *b.entries[id], true
}

// FindByKind returns all entries of the given kind in announcement order.
func (b *DiscoveryBoard) FindByKind(kind ArtifactKind) []DiscoveryEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []DiscoveryEntry
	for _, id := range b.order {
		if entry := b.entries[id]; entry.Kind == kind {
			out = append(out, *entry)
		}
	}
	return out
}

// All returns every entry in announcement order.
func (b *DiscoveryBoard) All() []DiscoveryEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]DiscoveryEntry, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.entries[id])
	}
	return out
}

// ImportSuggestions performs the reverse lookup for a set of export names.
// Names nobody has announced yet are simply absent from the result.
func (b *DiscoveryBoard) ImportSuggestions(exports []string) []ImportSuggestion {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []ImportSuggestion
	for _, export := range exports {
		id, ok := b.byExport[export]
		if !ok {
			continue
		}
		entry := b.entries[id]
		out = append(out, ImportSuggestion{
			Export:   export,
			FilePath: entry.FilePath,
			Agent:    entry.Agent,
		})
	}
	return out
}
