package syncx

import "sync"

// EventKind labels a sync status event.
type EventKind string

const (
	CycleStarted     EventKind = "cycle_started"
	StepCompleted    EventKind = "step_completed"
	StepFailed       EventKind = "step_failed"
	SubmissionSynced EventKind = "submission_synced"
	SubmissionFailed EventKind = "submission_failed"
	CycleFinished    EventKind = "cycle_finished"
)

// Event is one status notification from a sync cycle.
type Event struct {
	Kind     EventKind
	Step     string
	LocalID  int64
	ServerID int64
	Err      string
}

// broadcaster is an explicit publish/subscribe channel with unsubscribe
// handles, replacing ambient listener registries.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[int]chan Event)}
}

// subscribe returns a buffered event channel and an unsubscribe func.
func (b *broadcaster) subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan Event, 32)
	b.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
}

// publish never blocks; a full subscriber just misses the event.
func (b *broadcaster) publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}
