package auth

import (
	"sync"
)

type EventType string

const (
	SessionSignedIn  EventType = "signed-in"
	SessionSignedOut EventType = "signed-out"
)

// SessionEvent describes one session transition. A signed-out event
// carries empty UserID/Token.
type SessionEvent struct {
	Type   EventType
	UserID string
	Token  string
}

// Notifier is the session-change event channel. Subscribers get the
// current session state immediately at subscribe time, then every
// transition in the order it was published. A slow consumer builds a
// backlog instead of losing transitions. Subscriptions must be
// released via the returned unsubscribe func.
type Notifier struct {
	mu      sync.Mutex
	subs    map[int]*subscriber
	nextID  int
	current SessionEvent
}

// subscriber holds the events published to one subscription until its
// consumer drains them.
type subscriber struct {
	mu      sync.Mutex
	backlog []SessionEvent

	wake chan struct{}
	done chan struct{}
	out  chan SessionEvent
}

func NewNotifier() *Notifier {
	return &Notifier{
		subs:    make(map[int]*subscriber),
		current: SessionEvent{Type: SessionSignedOut},
	}
}

func (n *Notifier) Subscribe() (<-chan SessionEvent, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++

	sub := &subscriber{
		backlog: []SessionEvent{n.current},
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		out:     make(chan SessionEvent),
	}
	n.subs[id] = sub
	go sub.pump()

	unsubscribe := func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if s, ok := n.subs[id]; ok {
			delete(n.subs, id)
			close(s.done)
		}
	}
	return sub.out, unsubscribe
}

// Publish records the event and queues it for every subscriber. The
// backlog grows as needed, no transition is ever dropped.
func (n *Notifier) Publish(event SessionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.current = event
	for _, sub := range n.subs {
		sub.enqueue(event)
	}
}

// Current returns the last published session state.
func (n *Notifier) Current() SessionEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (s *subscriber) enqueue(event SessionEvent) {
	s.mu.Lock()
	s.backlog = append(s.backlog, event)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump moves events from the backlog to the out channel in publish
// order until the subscription is released.
func (s *subscriber) pump() {
	for {
		s.mu.Lock()
		var next SessionEvent
		hasNext := len(s.backlog) > 0
		if hasNext {
			next = s.backlog[0]
			s.backlog = s.backlog[1:]
		}
		s.mu.Unlock()

		if !hasNext {
			select {
			case <-s.done:
				close(s.out)
				return
			case <-s.wake:
			}
			continue
		}

		select {
		case s.out <- next:
		case <-s.done:
			close(s.out)
			return
		}
	}
}
