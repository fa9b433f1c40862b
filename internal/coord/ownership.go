package coord

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// OwnershipRegistry is the per-path exclusive claim state machine. It is the
// sole mutual-exclusion primitive agents have: a path has at most one
// non-released owner at any time. All mutations complete under one lock so
// two simultaneous claims on the same path can never both succeed.
type OwnershipRegistry struct {
	mu    sync.Mutex
	files map[string]*FileOwnership
}

// NewOwnershipRegistry creates an empty registry.
func NewOwnershipRegistry() *OwnershipRegistry {
	return &OwnershipRegistry{files: make(map[string]*FileOwnership)}
}

var statusRank = map[OwnershipStatus]int{
	OwnershipClaimed:   0,
	OwnershipWriting:   1,
	OwnershipCompleted: 2,
}

// Claim records agent as the exclusive owner of path. It fails without side
// effects when any other non-released ownership exists for the path.
func (r *OwnershipRegistry) Claim(path, agent string) (*FileOwnership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.files[path]; ok && existing.Status != OwnershipReleased {
		return nil, false
	}
	now := time.Now()
	ownership := &FileOwnership{
		Path:       path,
		OwnerAgent: agent,
		Status:     OwnershipClaimed,
		ClaimedAt:  now,
		UpdatedAt:  now,
	}
	r.files[path] = ownership
	return snapshotOwnership(ownership), true
}

// UpdateStatus advances the ownership through claimed -> writing ->
// completed. Only the owner may update; the sequence never moves backwards
// and a released ownership is inert. Supplying content recomputes the hash
// and a change summary against the previous content.
func (r *OwnershipRegistry) UpdateStatus(path, agent string, status OwnershipStatus, content string) (*FileOwnership, bool) {
	targetRank, validTarget := statusRank[status]
	if !validTarget {
		return nil, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ownership, ok := r.files[path]
	if !ok || ownership.OwnerAgent != agent || ownership.Status == OwnershipReleased {
		return nil, false
	}
	if targetRank < statusRank[ownership.Status] {
		return nil, false
	}

	if content != "" {
		if ownership.Content != "" && ownership.Content != content {
			ownership.LastChange = diffStat(ownership.Content, content)
		}
		ownership.Content = content
		ownership.ContentHash = hashContent(content)
	}
	ownership.Status = status
	ownership.UpdatedAt = time.Now()
	return snapshotOwnership(ownership), true
}

// Release ends the ownership. Only the owner may release; afterwards the
// path becomes claimable again. The record is retained for history.
func (r *OwnershipRegistry) Release(path, agent string) (*FileOwnership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ownership, ok := r.files[path]
	if !ok || ownership.OwnerAgent != agent || ownership.Status == OwnershipReleased {
		return nil, false
	}
	ownership.Status = OwnershipReleased
	ownership.UpdatedAt = time.Now()
	return snapshotOwnership(ownership), true
}

// Get returns the current ownership record for path, released or not.
func (r *OwnershipRegistry) Get(path string) (*FileOwnership, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ownership, ok := r.files[path]
	if !ok {
		return nil, false
	}
	return snapshotOwnership(ownership), true
}

// OwnedBy lists the paths agent currently holds (non-released).
func (r *OwnershipRegistry) OwnedBy(agent string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var paths []string
	for path, ownership := range r.files {
		if ownership.OwnerAgent == agent && ownership.Status != OwnershipReleased {
			paths = append(paths, path)
		}
	}
	return paths
}

func snapshotOwnership(o *FileOwnership) *FileOwnership {
	clone := *o
	if o.LastChange != nil {
		change := *o.LastChange
		clone.LastChange = &change
	}
	return &clone
}

func hashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// diffStat summarizes the character-level insertions and deletions between
// two content revisions.
func diffStat(before, after string) *ChangeStat {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	stat := &ChangeStat{}
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			stat.Insertions += len(d.Text)
		case diffmatchpatch.DiffDelete:
			stat.Deletions += len(d.Text)
		}
	}
	return stat
}
