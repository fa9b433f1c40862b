package coord

import (
	"sync"
	"time"
)

// AgentDirectory keeps the per-agent bookkeeping: owned files, announced
// discoveries, provided and consumed contracts. Records are mutated on every
// coordination call and live until the build session ends.
type AgentDirectory struct {
	mu     sync.Mutex
	agents map[string]*AgentRecord
}

// NewAgentDirectory creates an empty directory.
func NewAgentDirectory() *AgentDirectory {
	return &AgentDirectory{agents: make(map[string]*AgentRecord)}
}

// Register adds an agent. Re-registering an existing id refreshes the role
// and activity timestamp but keeps accumulated bookkeeping.
func (d *AgentDirectory) Register(agentID, role string) AgentRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	record, ok := d.agents[agentID]
	if !ok {
		record = &AgentRecord{AgentID: agentID}
		d.agents[agentID] = record
	}
	record.Role = role
	record.LastActivityAt = time.Now()
	return snapshotAgent(record)
}

// Get returns the record for agentID.
func (d *AgentDirectory) Get(agentID string) (AgentRecord, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.agents[agentID]
	if !ok {
		return AgentRecord{}, false
	}
	return snapshotAgent(record), true
}

// Known reports whether agentID is registered.
func (d *AgentDirectory) Known(agentID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.agents[agentID]
	return ok
}

// All returns every registered agent record.
func (d *AgentDirectory) All() []AgentRecord {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]AgentRecord, 0, len(d.agents))
	for _, record := range d.agents {
		out = append(out, snapshotAgent(record))
	}
	return out
}

// SetCurrentTask records what the agent is working on.
func (d *AgentDirectory) SetCurrentTask(agentID, taskID string) bool {
	return d.touch(agentID, func(record *AgentRecord) {
		record.CurrentTaskID = taskID
	})
}

func (d *AgentDirectory) addOwnedFile(agentID, path string) bool {
	return d.touch(agentID, func(record *AgentRecord) {
		for _, p := range record.OwnedFiles {
			if p == path {
				return
			}
		}
		record.OwnedFiles = append(record.OwnedFiles, path)
	})
}

func (d *AgentDirectory) removeOwnedFile(agentID, path string) bool {
	return d.touch(agentID, func(record *AgentRecord) {
		for i, p := range record.OwnedFiles {
			if p == path {
				record.OwnedFiles = append(record.OwnedFiles[:i], record.OwnedFiles[i+1:]...)
				return
			}
		}
	})
}

func (d *AgentDirectory) addDiscovery(agentID, discoveryID string) bool {
	return d.touch(agentID, func(record *AgentRecord) {
		record.Discoveries = append(record.Discoveries, discoveryID)
	})
}

func (d *AgentDirectory) addProvidedContract(agentID, contractID string) bool {
	return d.touch(agentID, func(record *AgentRecord) {
		record.ProvidedContracts = append(record.ProvidedContracts, contractID)
	})
}

func (d *AgentDirectory) addConsumedContract(agentID, contractID string) bool {
	return d.touch(agentID, func(record *AgentRecord) {
		record.ConsumedContracts = append(record.ConsumedContracts, contractID)
	})
}

// touch applies fn to the record and refreshes the activity timestamp.
func (d *AgentDirectory) touch(agentID string, fn func(*AgentRecord)) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.agents[agentID]
	if !ok {
		return false
	}
	fn(record)
	record.LastActivityAt = time.Now()
	return true
}

func snapshotAgent(r *AgentRecord) AgentRecord {
	clone := *r
	clone.OwnedFiles = append([]string(nil), r.OwnedFiles...)
	clone.Discoveries = append([]string(nil), r.Discoveries...)
	clone.ProvidedContracts = append([]string(nil), r.ProvidedContracts...)
	clone.ConsumedContracts = append([]string(nil), r.ConsumedContracts...)
	return clone
}
