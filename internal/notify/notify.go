// Package notify provides a small publish/subscribe substrate for stateful
// objects that want to announce named change kinds to registered observers.
//
// A publisher declares a closed set of change kinds up front. Mutating code
// runs inside a scoped change operation; every kind raised during the scope
// is coalesced and delivered to interested observers as one event after the
// scope completes, so observers never see intermediate states and never
// receive more than one event per operation.
package notify

import (
	"fmt"
	"sync"
)

// Kind names a single change kind declared by a publisher.
type Kind string

// Event is delivered to observers after a scoped change operation. It names
// the publisher and carries the set of kinds that actually occurred.
type Event struct {
	Source string
	Kinds  []Kind
}

// Has reports whether the event includes the given kind.
func (e Event) Has(kind Kind) bool {
	for _, k := range e.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Observer receives change events from a publisher.
type Observer interface {
	Notify(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

// Notify calls the wrapped function.
func (f ObserverFunc) Notify(e Event) { f(e) }

type subscription struct {
	observer Observer
	kinds    map[Kind]bool // empty means all declared kinds
}

// Publisher manages observer registration and event delivery for one
// publishing object.
type Publisher struct {
	source   string
	declared map[Kind]bool
	subs     []subscription
	mx       sync.RWMutex
}

// NewPublisher creates a publisher for the given source name with the given
// closed set of change kinds.
func NewPublisher(source string, kinds ...Kind) *Publisher {
	declared := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		declared[k] = true
	}
	return &Publisher{source: source, declared: declared}
}

// SetSource updates the source name carried by delivered events.
func (p *Publisher) SetSource(source string) {
	p.mx.Lock()
	defer p.mx.Unlock()
	p.source = source
}

// Subscribe registers an observer for the given kinds. With no kinds the
// observer receives events for every declared kind. Subscribing an observer
// that is already registered replaces its interest set.
func (p *Publisher) Subscribe(o Observer, kinds ...Kind) {
	for _, k := range kinds {
		p.mustBeDeclared(k)
	}
	interest := make(map[Kind]bool, len(kinds))
	for _, k := range kinds {
		interest[k] = true
	}

	p.mx.Lock()
	defer p.mx.Unlock()
	for i, sub := range p.subs {
		if sub.observer == o {
			p.subs[i].kinds = interest
			return
		}
	}
	p.subs = append(p.subs, subscription{observer: o, kinds: interest})
}

// Unsubscribe removes an observer. Unknown observers are ignored.
func (p *Publisher) Unsubscribe(o Observer) {
	p.mx.Lock()
	defer p.mx.Unlock()
	for i, sub := range p.subs {
		if sub.observer == o {
			p.subs = append(p.subs[:i], p.subs[i+1:]...)
			return
		}
	}
}

// Changer collects the kinds raised during one scoped change operation.
// Code that wants nested operations to coalesce into the caller's event
// passes the Changer down instead of opening a new scope.
type Changer struct {
	publisher *Publisher
	raised    []Kind
}

// Raise records that a change of the given kind occurred. Raising a kind
// that was not declared by the publisher panics: the kind set is closed at
// construction time and an unknown kind is a programming error.
func (c *Changer) Raise(kinds ...Kind) {
	for _, k := range kinds {
		c.publisher.mustBeDeclared(k)
		if !c.has(k) {
			c.raised = append(c.raised, k)
		}
	}
}

func (c *Changer) has(kind Kind) bool {
	for _, k := range c.raised {
		if k == kind {
			return true
		}
	}
	return false
}

// Change runs fn as one scoped change operation. All kinds raised on the
// Changer are delivered as a single event after fn returns. If fn raises
// nothing, no event is delivered.
func (p *Publisher) Change(fn func(*Changer)) {
	c := &Changer{publisher: p}
	fn(c)
	if len(c.raised) == 0 {
		return
	}
	p.publish(c.raised)
}

func (p *Publisher) publish(kinds []Kind) {
	p.mx.RLock()
	source := p.source
	subs := make([]subscription, len(p.subs))
	copy(subs, p.subs)
	p.mx.RUnlock()

	event := Event{Source: source, Kinds: kinds}
	for _, sub := range subs {
		if sub.interested(kinds) {
			sub.observer.Notify(event)
		}
	}
}

func (s subscription) interested(kinds []Kind) bool {
	if len(s.kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if s.kinds[k] {
			return true
		}
	}
	return false
}

func (p *Publisher) mustBeDeclared(kind Kind) {
	if !p.declared[kind] {
		panic(fmt.Sprintf("notify: kind %q was not declared by %s", kind, p.source))
	}
}
