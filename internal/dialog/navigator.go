// Package dialog keeps modal dialog state and navigation history in sync:
// every open dialog is represented in the current history entry, so the
// platform back action closes the top dialog instead of leaving the page,
// and deep links restore the dialogs they name.
package dialog

import (
	"net/url"
	"sort"
	"sync"
)

// Entry is one navigation history entry.
type Entry struct {
	Path  string
	Query url.Values
}

// clone returns a deep copy so subscribers cannot mutate shared state.
func (e Entry) clone() Entry {
	out := Entry{Path: e.Path, Query: url.Values{}}
	for k, vs := range e.Query {
		out.Query[k] = append([]string(nil), vs...)
	}
	return out
}

// Navigator abstracts the host's history. The synchronizer drives it and
// listens to it; it never assumes a browser is on the other side.
type Navigator interface {
	// Current returns the active history entry.
	Current() Entry
	// Push appends a new entry, discarding any forward history.
	Push(e Entry)
	// Replace overwrites the active entry in place.
	Replace(e Entry)
	// Back moves one entry towards the start, if possible.
	Back()
	// CanGoBack reports whether Back would move.
	CanGoBack() bool
	// Subscribe registers a listener for entry changes and returns an
	// unsubscribe function.
	Subscribe(fn func(Entry)) (unsubscribe func())
	// Defer schedules fn to run after the in-flight dispatch completes,
	// or immediately when none is in flight.
	Defer(fn func())
}

// MemoryNavigator is an in-process Navigator used by tests and headless
// hosts. Its dispatch ordering is the behavioral contract hosts must meet:
// subscribers run synchronously per change, deferred callbacks run after
// the whole dispatch finishes.
type MemoryNavigator struct {
	mu          sync.Mutex
	entries     []Entry
	index       int
	subs        map[int]func(Entry)
	nextSub     int
	deferred    []func()
	dispatching bool
}

// NewMemoryNavigator creates a navigator positioned on the given entry.
func NewMemoryNavigator(initial Entry) *MemoryNavigator {
	return &MemoryNavigator{
		entries: []Entry{initial.clone()},
		subs:    map[int]func(Entry){},
	}
}

// Current implements Navigator.
func (n *MemoryNavigator) Current() Entry {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.entries[n.index].clone()
}

// Push implements Navigator.
func (n *MemoryNavigator) Push(e Entry) {
	n.mu.Lock()
	n.entries = append(n.entries[:n.index+1], e.clone())
	n.index = len(n.entries) - 1
	n.mu.Unlock()
	n.dispatch()
}

// Replace implements Navigator.
func (n *MemoryNavigator) Replace(e Entry) {
	n.mu.Lock()
	n.entries[n.index] = e.clone()
	n.mu.Unlock()
	n.dispatch()
}

// Back implements Navigator.
func (n *MemoryNavigator) Back() {
	n.mu.Lock()
	if n.index == 0 {
		n.mu.Unlock()
		return
	}
	n.index--
	n.mu.Unlock()
	n.dispatch()
}

// Forward moves one entry towards the end, if possible. Browsers expose
// this; the synchronizer only ever observes it.
func (n *MemoryNavigator) Forward() {
	n.mu.Lock()
	if n.index >= len(n.entries)-1 {
		n.mu.Unlock()
		return
	}
	n.index++
	n.mu.Unlock()
	n.dispatch()
}

// CanGoBack implements Navigator.
func (n *MemoryNavigator) CanGoBack() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.index > 0
}

// Subscribe implements Navigator.
func (n *MemoryNavigator) Subscribe(fn func(Entry)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextSub
	n.nextSub++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

// Defer implements Navigator.
func (n *MemoryNavigator) Defer(fn func()) {
	n.mu.Lock()
	if n.dispatching {
		n.deferred = append(n.deferred, fn)
		n.mu.Unlock()
		return
	}
	n.mu.Unlock()
	fn()
}

// dispatch notifies subscribers of the current entry, then drains the
// deferred queue. Subscribers may navigate reentrantly; nested changes
// dispatch in place and their deferred work joins the same queue.
func (n *MemoryNavigator) dispatch() {
	n.mu.Lock()
	nested := n.dispatching
	n.dispatching = true
	cur := n.entries[n.index].clone()
	ids := make([]int, 0, len(n.subs))
	for id := range n.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	subs := make([]func(Entry), 0, len(ids))
	for _, id := range ids {
		subs = append(subs, n.subs[id])
	}
	n.mu.Unlock()

	for _, fn := range subs {
		fn(cur.clone())
	}

	if nested {
		return
	}
	for {
		n.mu.Lock()
		if len(n.deferred) == 0 {
			n.dispatching = false
			n.mu.Unlock()
			return
		}
		fn := n.deferred[0]
		n.deferred = n.deferred[1:]
		n.mu.Unlock()
		fn()
	}
}
