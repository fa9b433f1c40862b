// Package coord implements the build coordination store: exclusive file
// ownership arbitration, a discovery board announcing created artifacts, and
// a contract registry letting one agent block until another agent's planned
// interface becomes available. All state is scoped to one build session and
// lives in memory for its lifetime.
package coord

import (
	"errors"
	"time"
)

// Structural misuse errors. Expected contention (double claim, wrong-owner
// release, already-resolved contract) is never an error; it is signaled via
// boolean or nil returns.
var (
	ErrSessionClosed = errors.New("coord: build session is closed")
	ErrUnknownAgent  = errors.New("coord: agent is not registered")
)

// OwnershipStatus tracks the lifecycle of a file claim.
type OwnershipStatus string

const (
	OwnershipClaimed   OwnershipStatus = "claimed"
	OwnershipWriting   OwnershipStatus = "writing"
	OwnershipCompleted OwnershipStatus = "completed"
	OwnershipReleased  OwnershipStatus = "released"
)

// ChangeStat summarizes how the claimed file's content moved between two
// status updates, for cheap change detection by other agents.
type ChangeStat struct {
	Insertions int `json:"insertions"`
	Deletions  int `json:"deletions"`
}

// FileOwnership is the per-path exclusive claim record. Only the owner may
// mutate it; once released it stays retained but inert and the path becomes
// claimable again.
type FileOwnership struct {
	Path        string          `json:"path"`
	OwnerAgent  string          `json:"owner_agent"`
	Status      OwnershipStatus `json:"status"`
	ClaimedAt   time.Time       `json:"claimed_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Content     string          `json:"content,omitempty"`
	ContentHash string          `json:"content_hash,omitempty"`
	LastChange  *ChangeStat     `json:"last_change,omitempty"`
}

// ArtifactKind classifies an announced artifact.
type ArtifactKind string

const (
	KindComponent ArtifactKind = "component"
	KindHook      ArtifactKind = "hook"
	KindService   ArtifactKind = "service"
	KindStore     ArtifactKind = "store"
	KindType      ArtifactKind = "type"
	KindRoute     ArtifactKind = "route"
	KindUtil      ArtifactKind = "util"
	KindConfig    ArtifactKind = "config"
)

// DiscoveryEntry is an agent's announcement that it created a named,
// importable artifact at a given path. Entries are permanent.
type DiscoveryEntry struct {
	ID        string       `json:"id"`
	Kind      ArtifactKind `json:"kind"`
	Name      string       `json:"name"`
	FilePath  string       `json:"file_path"`
	Exports   []string     `json:"exports,omitempty"`
	Imports   []string     `json:"imports,omitempty"`
	Agent     string       `json:"agent"`
	Timestamp time.Time    `json:"timestamp"`
	Verified  bool         `json:"verified"`
}

// ImportSuggestion resolves an export name to the file that provides it.
type ImportSuggestion struct {
	Export   string `json:"export"`
	FilePath string `json:"file_path"`
	Agent    string `json:"agent"`
}

// ContractStatus tracks the lifecycle of an interface contract.
type ContractStatus string

const (
	ContractPlanned      ContractStatus = "planned"
	ContractImplementing ContractStatus = "implementing"
	ContractReady        ContractStatus = "ready"
	ContractConsumed     ContractStatus = "consumed"
)

// InterfaceContract is a provider's advance declaration of an interface it
// will provide, resolvable by consumers waiting on it. It becomes ready at
// most once per registration: automatically when a matching discovery is
// announced, or manually via UpdateContractStatus.
type InterfaceContract struct {
	ID            string         `json:"id"`
	ProviderAgent string         `json:"provider_agent"`
	ConsumerAgent string         `json:"consumer_agent,omitempty"`
	InterfaceName string         `json:"interface_name"`
	FilePath      string         `json:"file_path"`
	Signature     string         `json:"signature,omitempty"`
	Status        ContractStatus `json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	ReadyAt       *time.Time     `json:"ready_at,omitempty"`
}

// AgentRecord is the per-agent bookkeeping mutated on every coordination
// call. Records live until the build session ends.
type AgentRecord struct {
	AgentID           string    `json:"agent_id"`
	Role              string    `json:"role"`
	CurrentTaskID     string    `json:"current_task_id,omitempty"`
	OwnedFiles        []string  `json:"owned_files,omitempty"`
	Discoveries       []string  `json:"discoveries,omitempty"`
	ProvidedContracts []string  `json:"provided_contracts,omitempty"`
	ConsumedContracts []string  `json:"consumed_contracts,omitempty"`
	LastActivityAt    time.Time `json:"last_activity_at"`
}

// SessionStatus tracks the build session lifecycle.
type SessionStatus string

const (
	SessionInitializing SessionStatus = "initializing"
	SessionRunning      SessionStatus = "running"
	SessionCompleting   SessionStatus = "completing"
	SessionCompleted    SessionStatus = "completed"
	SessionFailed       SessionStatus = "failed"
)

// PathLayout maps logical artifact locations for one build (where components,
// hooks, services etc. live in the generated project tree).
type PathLayout map[ArtifactKind]string

// SessionConfig carries build-wide settings supplied at session creation.
type SessionConfig struct {
	ProjectName string         `json:"project_name"`
	PathLayout  PathLayout     `json:"path_layout,omitempty"`
	Globals     map[string]any `json:"globals,omitempty"`
}
