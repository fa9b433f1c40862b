package coord

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultContractWait bounds WaitForContract when the caller passes no
// explicit timeout.
const DefaultContractWait = 30 * time.Second

type contractWaiter struct {
	agent string
	ch    chan InterfaceContract // buffered(1), receives at most one contract
}

// ContractRegistry is the producer/consumer rendezvous for planned
// interfaces. A provider registers a contract before implementing; consumers
// block in Wait until the contract becomes ready, either manually or
// automatically when a matching discovery is announced.
type ContractRegistry struct {
	mu        sync.Mutex
	contracts map[string]*InterfaceContract
	byName    map[string][]string          // interface name -> contract ids
	waiters   map[string][]*contractWaiter // interface name -> blocked consumers
	closed    chan struct{}
	closeOnce sync.Once
}

// NewContractRegistry creates an empty registry.
func NewContractRegistry() *ContractRegistry {
	return &ContractRegistry{
		contracts: make(map[string]*InterfaceContract),
		byName:    make(map[string][]string),
		waiters:   make(map[string][]*contractWaiter),
		closed:    make(chan struct{}),
	}
}

// Register records a planned contract and returns the stored copy.
func (r *ContractRegistry) Register(contract InterfaceContract) InterfaceContract {
	r.mu.Lock()
	defer r.mu.Unlock()

	if contract.ID == "" {
		contract.ID = uuid.NewString()
	}
	contract.Status = ContractPlanned
	contract.CreatedAt = time.Now()
	contract.ReadyAt = nil

	stored := contract
	r.contracts[stored.ID] = &stored
	r.byName[stored.InterfaceName] = append(r.byName[stored.InterfaceName], stored.ID)
	return stored
}

// Get returns the contract with the given id.
func (r *ContractRegistry) Get(id string) (InterfaceContract, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	contract, ok := r.contracts[id]
	if !ok {
		return InterfaceContract{}, false
	}
	return *contract, true
}

// UpdateStatus transitions a contract. Transitioning to ready wakes every
// consumer currently blocked on the interface name, exactly once; a contract
// that is already ready stays ready and notifies nobody again.
func (r *ContractRegistry) UpdateStatus(id string, status ContractStatus) (InterfaceContract, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contract, ok := r.contracts[id]
	if !ok {
		return InterfaceContract{}, false
	}
	if status == ContractReady {
		r.markReady(contract)
	} else {
		contract.Status = status
	}
	return *contract, true
}

// ResolveByDiscovery transitions every planned/implementing contract whose
// (filePath, interfaceName) matches the announced entry to ready. It returns
// the contracts that became ready by this announcement.
func (r *ContractRegistry) ResolveByDiscovery(entry DiscoveryEntry) []InterfaceContract {
	exported := make(map[string]bool, len(entry.Exports))
	for _, name := range entry.Exports {
		exported[name] = true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var readied []InterfaceContract
	for _, contract := range r.contracts {
		if contract.Status != ContractPlanned && contract.Status != ContractImplementing {
			continue
		}
		if contract.FilePath != entry.FilePath || !exported[contract.InterfaceName] {
			continue
		}
		r.markReady(contract)
		readied = append(readied, *contract)
	}
	return readied
}

// markReady must be called with r.mu held. It flips the contract to ready at
// most once and drains the wait list for its interface name.
func (r *ContractRegistry) markReady(contract *InterfaceContract) {
	if contract.ReadyAt != nil {
		return
	}
	now := time.Now()
	contract.Status = ContractReady
	contract.ReadyAt = &now

	waiters := r.waiters[contract.InterfaceName]
	delete(r.waiters, contract.InterfaceName)
	for _, w := range waiters {
		w.ch <- *contract // buffered(1), never blocks
	}
}

// readyByName must be called with r.mu held.
func (r *ContractRegistry) readyByName(name string) (InterfaceContract, bool) {
	for _, id := range r.byName[name] {
		if contract := r.contracts[id]; contract.Status == ContractReady {
			return *contract, true
		}
	}
	return InterfaceContract{}, false
}

// Wait blocks the calling agent until a contract with the given interface
// name is ready, the timeout elapses, ctx is canceled, or the registry is
// closed. A nil result with nil error means the wait resolved without the
// dependency; the caller decides what to do next.
func (r *ContractRegistry) Wait(ctx context.Context, name, agent string, timeout time.Duration) *InterfaceContract {
	if timeout <= 0 {
		timeout = DefaultContractWait
	}

	r.mu.Lock()
	select {
	case <-r.closed:
		r.mu.Unlock()
		return nil
	default:
	}
	if contract, ok := r.readyByName(name); ok {
		r.mu.Unlock()
		return &contract
	}
	waiter := &contractWaiter{agent: agent, ch: make(chan InterfaceContract, 1)}
	r.waiters[name] = append(r.waiters[name], waiter)
	r.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case contract := <-waiter.ch:
		return &contract
	case <-timer.C:
	case <-ctx.Done():
	case <-r.closed:
	}

	r.removeWaiter(name, waiter)
	// The contract may have become ready while we were deregistering.
	select {
	case contract := <-waiter.ch:
		return &contract
	default:
		return nil
	}
}

func (r *ContractRegistry) removeWaiter(name string, target *contractWaiter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	waiters := r.waiters[name]
	for i, w := range waiters {
		if w == target {
			r.waiters[name] = append(waiters[:i], waiters[i+1:]...)
			break
		}
	}
	if len(r.waiters[name]) == 0 {
		delete(r.waiters, name)
	}
}

// PendingWaiters reports how many consumers are blocked on the interface name.
func (r *ContractRegistry) PendingWaiters(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters[name])
}

// Close releases every pending waiter with a nil result. Used on session
// teardown so no agent stays blocked into a dead build.
func (r *ContractRegistry) Close() {
	r.closeOnce.Do(func() {
		close(r.closed)
	})
}
