package coord

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"swarm/internal/logging"
)

// Store is the coordination facade one build session hands to each of its
// agents. It composes the ownership registry, discovery board, contract
// registry and agent directory, and publishes typed events for observers.
//
// Contention (double claim, wrong-owner release, missed contract) is
// signaled via boolean or nil returns. Errors are reserved for structural
// misuse: calling into a closed session or on behalf of an unregistered
// agent.
type Store struct {
	buildID string
	config  SessionConfig

	ownership *OwnershipRegistry
	board     *DiscoveryBoard
	contracts *ContractRegistry
	agents    *AgentDirectory
	hub       *Hub
	logger    logging.Logger

	mu      sync.Mutex
	status  SessionStatus
	globals map[string]any
}

// NewStore creates the coordination store for one build session. The session
// starts in the initializing state; call Start once setup is done. A nil hub
// or logger is replaced by a no-op.
func NewStore(config SessionConfig, hub *Hub, logger logging.Logger) *Store {
	if hub == nil {
		hub = NewHub()
	}
	globals := make(map[string]any, len(config.Globals))
	for k, v := range config.Globals {
		globals[k] = v
	}
	s := &Store{
		buildID:   uuid.NewString(),
		config:    config,
		ownership: NewOwnershipRegistry(),
		board:     NewDiscoveryBoard(),
		contracts: NewContractRegistry(),
		agents:    NewAgentDirectory(),
		hub:       hub,
		logger:    logging.OrNop(logger),
		status:    SessionInitializing,
		globals:   globals,
	}
	s.hub.publishSession(SessionEvent{Kind: SessionInitialized, BuildID: s.buildID, Status: s.status})
	return s
}

// BuildID returns the session identifier.
func (s *Store) BuildID() string { return s.buildID }

// ProjectName returns the project this build generates.
func (s *Store) ProjectName() string { return s.config.ProjectName }

// Events returns the hub observers subscribe on.
func (s *Store) Events() *Hub { return s.hub }

// Status returns the current session status.
func (s *Store) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Start moves the session to running.
func (s *Store) Start() {
	s.setStatus(SessionRunning)
}

// Complete finishes the session, releasing any pending contract waits.
func (s *Store) Complete() {
	s.setStatus(SessionCompleting)
	s.contracts.Close()
	s.setStatus(SessionCompleted)
}

// Fail terminates the session, releasing any pending contract waits.
func (s *Store) Fail() {
	s.contracts.Close()
	s.setStatus(SessionFailed)
}

func (s *Store) setStatus(status SessionStatus) {
	s.mu.Lock()
	if s.status == status {
		s.mu.Unlock()
		return
	}
	s.status = status
	s.mu.Unlock()
	s.logger.Info("build %s status -> %s", s.buildID, status)
	s.hub.publishSession(SessionEvent{Kind: SessionStatusChanged, BuildID: s.buildID, Status: status})
}

func (s *Store) ensureOpen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == SessionCompleted || s.status == SessionFailed {
		return ErrSessionClosed
	}
	return nil
}

func (s *Store) ensureAgent(agentID string) error {
	if err := s.ensureOpen(); err != nil {
		return err
	}
	if !s.agents.Known(agentID) {
		return ErrUnknownAgent
	}
	return nil
}

// SetGlobal stores a build-wide value shared by all agents.
func (s *Store) SetGlobal(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.globals[key] = value
}

// Global reads a build-wide value.
func (s *Store) Global(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.globals[key]
	return v, ok
}

// PathFor returns the layout directory for an artifact kind.
func (s *Store) PathFor(kind ArtifactKind) (string, bool) {
	path, ok := s.config.PathLayout[kind]
	return path, ok
}

// RegisterAgent adds an agent to the session.
func (s *Store) RegisterAgent(agentID, role string) (AgentRecord, error) {
	if err := s.ensureOpen(); err != nil {
		return AgentRecord{}, err
	}
	record := s.agents.Register(agentID, role)
	s.logger.Debug("agent %s (%s) registered in build %s", agentID, role, s.buildID)
	return record, nil
}

// Agent returns the bookkeeping record for agentID.
func (s *Store) Agent(agentID string) (AgentRecord, bool) {
	return s.agents.Get(agentID)
}

// Agents returns every registered agent record.
func (s *Store) Agents() []AgentRecord {
	return s.agents.All()
}

// SetCurrentTask records which task the agent is working on.
func (s *Store) SetCurrentTask(agentID, taskID string) bool {
	return s.agents.SetCurrentTask(agentID, taskID)
}

// ClaimFile gives agentID exclusive ownership of path. It returns false,
// without side effects, when another agent holds a live claim.
func (s *Store) ClaimFile(path, agentID string) (bool, error) {
	if err := s.ensureAgent(agentID); err != nil {
		return false, err
	}
	ownership, ok := s.ownership.Claim(path, agentID)
	if !ok {
		s.logger.Debug("agent %s denied claim on %s", agentID, path)
		return false, nil
	}
	s.agents.addOwnedFile(agentID, path)
	s.hub.publishFile(FileEvent{Kind: FileClaimed, Path: path, Agent: agentID, Status: ownership.Status})
	return true, nil
}

// UpdateFileStatus advances the claim's status; only the owner succeeds.
// Supplying content refreshes the stored hash and change summary.
func (s *Store) UpdateFileStatus(path, agentID string, status OwnershipStatus, content string) (bool, error) {
	if err := s.ensureAgent(agentID); err != nil {
		return false, err
	}
	ownership, ok := s.ownership.UpdateStatus(path, agentID, status, content)
	if !ok {
		return false, nil
	}
	s.agents.touch(agentID, func(*AgentRecord) {})
	s.hub.publishFile(FileEvent{
		Kind:   FileStatusUpdated,
		Path:   path,
		Agent:  agentID,
		Status: ownership.Status,
		Change: ownership.LastChange,
	})
	return true, nil
}

// ReleaseFile ends the claim; only the owner succeeds. Afterwards the path
// is claimable again.
func (s *Store) ReleaseFile(path, agentID string) (bool, error) {
	if err := s.ensureAgent(agentID); err != nil {
		return false, err
	}
	ownership, ok := s.ownership.Release(path, agentID)
	if !ok {
		return false, nil
	}
	s.agents.removeOwnedFile(agentID, path)
	s.hub.publishFile(FileEvent{Kind: FileReleased, Path: path, Agent: agentID, Status: ownership.Status})
	return true, nil
}

// FileOwnership returns the current ownership record for path.
func (s *Store) FileOwnership(path string) (*FileOwnership, bool) {
	return s.ownership.Get(path)
}

// AnnounceDiscovery publishes an artifact announcement and resolves every
// contract whose (filePath, interfaceName) matches one of its exports.
func (s *Store) AnnounceDiscovery(entry DiscoveryEntry) (DiscoveryEntry, error) {
	if err := s.ensureAgent(entry.Agent); err != nil {
		return DiscoveryEntry{}, err
	}
	stored := s.board.Announce(entry)
	s.agents.addDiscovery(stored.Agent, stored.ID)
	s.hub.publishDiscovery(DiscoveryEvent{Kind: DiscoveryAnnounced, Entry: stored})

	for _, contract := range s.contracts.ResolveByDiscovery(stored) {
		s.logger.Debug("contract %s (%s) ready via discovery %s",
			contract.ID, contract.InterfaceName, stored.ID)
		s.hub.publishContract(ContractEvent{Kind: ContractAvailable, Contract: contract})
	}
	return stored, nil
}

// VerifyDiscovery flips the verified flag; idempotent.
func (s *Store) VerifyDiscovery(id string) bool {
	entry, ok := s.board.Verify(id)
	if !ok {
		return false
	}
	s.hub.publishDiscovery(DiscoveryEvent{Kind: DiscoveryVerified, Entry: entry})
	return true
}

// FindByExport resolves an export name to the discovery that provides it.
func (s *Store) FindByExport(name string) (DiscoveryEntry, bool) {
	return s.board.FindByExport(name)
}

// Discoveries returns every announcement in order.
func (s *Store) Discoveries() []DiscoveryEntry {
	return s.board.All()
}

// ImportSuggestions resolves export names to the files providing them,
// based purely on what has been announced so far.
func (s *Store) ImportSuggestions(exports []string) []ImportSuggestion {
	return s.board.ImportSuggestions(exports)
}

// RegisterContract records a planned contract for the provider agent.
func (s *Store) RegisterContract(contract InterfaceContract) (InterfaceContract, error) {
	if err := s.ensureAgent(contract.ProviderAgent); err != nil {
		return InterfaceContract{}, err
	}
	stored := s.contracts.Register(contract)
	s.agents.addProvidedContract(stored.ProviderAgent, stored.ID)
	s.hub.publishContract(ContractEvent{Kind: ContractRegistered, Contract: stored})
	return stored, nil
}

// UpdateContractStatus transitions a contract; moving to ready wakes every
// agent blocked on the interface name exactly once.
func (s *Store) UpdateContractStatus(id string, status ContractStatus) bool {
	contract, ok := s.contracts.UpdateStatus(id, status)
	if !ok {
		return false
	}
	kind := ContractStatusUpdated
	if contract.Status == ContractReady {
		kind = ContractAvailable
	}
	s.hub.publishContract(ContractEvent{Kind: kind, Contract: contract})
	return true
}

// ConsumeContract marks the contract consumed by agentID. An unknown agent
// or a closed session is an error; an unknown contract id is a plain false.
func (s *Store) ConsumeContract(id, agentID string) (bool, error) {
	if err := s.ensureAgent(agentID); err != nil {
		return false, err
	}
	contract, ok := s.contracts.UpdateStatus(id, ContractConsumed)
	if !ok {
		return false, nil
	}
	s.agents.addConsumedContract(agentID, id)
	s.hub.publishContract(ContractEvent{Kind: ContractStatusUpdated, Contract: contract})
	return true, nil
}

// Contract returns the contract with the given id.
func (s *Store) Contract(id string) (InterfaceContract, bool) {
	return s.contracts.Get(id)
}

// WaitForContract suspends the caller until a contract with the interface
// name is ready (returning it), or resolves nil when the timeout elapses,
// ctx is canceled, or the session closes. A contract that is already ready
// returns immediately.
func (s *Store) WaitForContract(ctx context.Context, name, agentID string, timeout time.Duration) (*InterfaceContract, error) {
	if err := s.ensureAgent(agentID); err != nil {
		return nil, err
	}
	contract := s.contracts.Wait(ctx, name, agentID, timeout)
	if contract == nil {
		s.logger.Debug("agent %s gave up waiting for contract %q", agentID, name)
	}
	return contract, nil
}
