package coord

import (
	"context"
	"sync"
)

const eventBuffer = 16

// FileEventKind enumerates file ownership notifications.
type FileEventKind string

const (
	FileClaimed       FileEventKind = "claimed"
	FileStatusUpdated FileEventKind = "status_updated"
	FileReleased      FileEventKind = "released"
)

// FileEvent notifies subscribers about ownership changes.
type FileEvent struct {
	Kind   FileEventKind
	Path   string
	Agent  string
	Status OwnershipStatus
	Change *ChangeStat
}

// DiscoveryEventKind enumerates discovery board notifications.
type DiscoveryEventKind string

const (
	DiscoveryAnnounced DiscoveryEventKind = "announced"
	DiscoveryVerified  DiscoveryEventKind = "verified"
)

// DiscoveryEvent notifies subscribers about board activity.
type DiscoveryEvent struct {
	Kind  DiscoveryEventKind
	Entry DiscoveryEntry
}

// ContractEventKind enumerates contract registry notifications.
type ContractEventKind string

const (
	ContractRegistered    ContractEventKind = "registered"
	ContractStatusUpdated ContractEventKind = "status_updated"
	ContractAvailable     ContractEventKind = "available"
)

// ContractEvent notifies subscribers about contract transitions.
type ContractEvent struct {
	Kind     ContractEventKind
	Contract InterfaceContract
}

// SessionEventKind enumerates session lifecycle notifications.
type SessionEventKind string

const (
	SessionInitialized   SessionEventKind = "initialized"
	SessionStatusChanged SessionEventKind = "status_changed"
)

// SessionEvent notifies subscribers about build lifecycle changes.
type SessionEvent struct {
	Kind    SessionEventKind
	BuildID string
	Status  SessionStatus
}

// feed is a single-category fanout: subscribers get their own buffered
// channel; slow subscribers drop events rather than block publishers.
type feed[T any] struct {
	mu     sync.RWMutex
	subs   map[uint64]chan T
	nextID uint64
}

func newFeed[T any]() *feed[T] {
	return &feed[T]{subs: make(map[uint64]chan T)}
}

func (f *feed[T]) subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, eventBuffer)

	f.mu.Lock()
	f.nextID++
	id := f.nextID
	f.subs[id] = ch
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		if sub, ok := f.subs[id]; ok {
			delete(f.subs, id)
			close(sub)
		}
		f.mu.Unlock()
	}()

	return ch
}

func (f *feed[T]) publish(event T) {
	f.mu.RLock()
	subs := make([]chan T, 0, len(f.subs))
	for _, ch := range f.subs {
		subs = append(subs, ch)
	}
	f.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Hub fans coordination events out to observers. Observability/UI glue
// subscribes here; coordination logic itself never depends on the hub.
type Hub struct {
	files     *feed[FileEvent]
	discovery *feed[DiscoveryEvent]
	contracts *feed[ContractEvent]
	sessions  *feed[SessionEvent]
}

// NewHub creates an event hub with no subscribers.
func NewHub() *Hub {
	return &Hub{
		files:     newFeed[FileEvent](),
		discovery: newFeed[DiscoveryEvent](),
		contracts: newFeed[ContractEvent](),
		sessions:  newFeed[SessionEvent](),
	}
}

// SubscribeFiles delivers file ownership events until ctx is done.
func (h *Hub) SubscribeFiles(ctx context.Context) <-chan FileEvent {
	return h.files.subscribe(ctx)
}

// SubscribeDiscoveries delivers discovery board events until ctx is done.
func (h *Hub) SubscribeDiscoveries(ctx context.Context) <-chan DiscoveryEvent {
	return h.discovery.subscribe(ctx)
}

// SubscribeContracts delivers contract events until ctx is done.
func (h *Hub) SubscribeContracts(ctx context.Context) <-chan ContractEvent {
	return h.contracts.subscribe(ctx)
}

// SubscribeSessions delivers session lifecycle events until ctx is done.
func (h *Hub) SubscribeSessions(ctx context.Context) <-chan SessionEvent {
	return h.sessions.subscribe(ctx)
}

func (h *Hub) publishFile(event FileEvent)           { h.files.publish(event) }
func (h *Hub) publishDiscovery(event DiscoveryEvent) { h.discovery.publish(event) }
func (h *Hub) publishContract(event ContractEvent)   { h.contracts.publish(event) }
func (h *Hub) publishSession(event SessionEvent)     { h.sessions.publish(event) }
