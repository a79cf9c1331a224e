package store

import (
	"log/slog"
	"sync"
	"time"
)

// Change operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

const defaultNotifyBuffer = 64

// Change describes a committed mutation of the expense store.
type Change struct {
	Op        string
	ExpenseID string
	At        time.Time
}

// ChangePublisher is what mutators need to announce a committed change.
type ChangePublisher interface {
	Publish(c Change)
}

// Notifier fans out store changes to subscribers. Each subscriber is fed by
// its own goroutine through a buffered channel, so Publish never blocks: if
// a subscriber falls behind its buffer, further changes for it are dropped.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Change
	next   uint64
	buffer int
	closed bool
}

func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = defaultNotifyBuffer
	}
	return &Notifier{
		subs:   make(map[uint64]chan Change),
		buffer: buffer,
	}
}

// Subscribe registers fn to be called for every published change, in
// publish order. The returned function unsubscribes; it is safe to call
// more than once.
func (n *Notifier) Subscribe(fn func(Change)) (unsubscribe func()) {
	ch := make(chan Change, n.buffer)

	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		close(ch)
		return func() {}
	}
	id := n.next
	n.next++
	n.subs[id] = ch
	n.mu.Unlock()

	go func() {
		for c := range ch {
			fn(c)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			if sub, ok := n.subs[id]; ok {
				delete(n.subs, id)
				close(sub)
			}
		})
	}
}

// Publish hands c to every subscriber without waiting for delivery.
func (n *Notifier) Publish(c Change) {
	if c.At.IsZero() {
		c.At = time.Now()
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- c:
		default:
			slog.Warn("Dropping store change for slow subscriber",
				"operation", c.Op,
				"expense_id", c.ExpenseID)
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (n *Notifier) Subscribers() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subs)
}

// Close unsubscribes everyone. Later Publish calls are no-ops.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	for id, ch := range n.subs {
		delete(n.subs, id)
		close(ch)
	}
}
