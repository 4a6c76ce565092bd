// Package store holds the console's client-side state: the authenticated
// session and one normalized collection per entity kind. Stores are explicit
// containers passed by reference to whatever drives them; every transition
// is a synchronous in-memory mutation applied atomically under the store
// lock, and no store ever performs I/O. The gateway package is the only
// component that talks to the network and feeds results in.
package store

import "sync"

// ListState is a point-in-time copy of a collection store. Items and
// Selected are copies; callers never alias store-owned memory.
type ListState[E any] struct {
	Items    []E
	Selected *E
	Loading  bool
	Err      string
}

// List is the shared core of the agent and task stores: an ordered,
// id-unique slice of records, a single selected pointer for detail views,
// and the request-lifecycle flags for the last list fetch.
type List[E any] struct {
	mu       sync.RWMutex
	id       func(E) int
	items    []E
	selected *E
	loading  bool
	err      string
}

func newList[E any](id func(E) int) List[E] {
	return List[E]{id: id}
}

// FetchStart marks a list refresh as in flight and clears any prior error.
func (l *List[E]) FetchStart() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = true
	l.err = ""
}

// FetchSucceeded replaces the collection wholesale. The selected pointer is
// reconciled against the fresh list: re-linked by id when the record is
// still present, cleared when it is gone.
func (l *List[E]) FetchSucceeded(items []E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items = append([]E(nil), items...)
	l.loading = false
	if l.selected == nil {
		return
	}
	selID := l.id(*l.selected)
	for i := range l.items {
		if l.id(l.items[i]) == selID {
			fresh := l.items[i]
			l.selected = &fresh
			return
		}
	}
	l.selected = nil
}

// FetchFailed records the failure message for display. Items are untouched.
func (l *List[E]) FetchFailed(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loading = false
	l.err = msg
}

// Select sets the detail pointer. The entity need not be in the list yet;
// direct-link navigation selects before the list is fetched.
func (l *List[E]) Select(e E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = &e
}

func (l *List[E]) ClearSelected() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.selected = nil
}

// Add appends a record in creation order. If the id is already present the
// existing slot is overwritten instead, so the collection stays id-unique
// even when a create response races a list refresh.
func (l *List[E]) Add(e E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := l.id(e)
	for i := range l.items {
		if l.id(l.items[i]) == key {
			l.items[i] = e
			l.mirrorLocked(e)
			return
		}
	}
	l.items = append(l.items, e)
}

// Replace overwrites the record with a matching id, mirroring into the
// selected pointer. A miss is a silent no-op for both the collection and the
// selection: the server may answer an update for a record already removed
// locally.
func (l *List[E]) Replace(e E) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := l.id(e)
	for i := range l.items {
		if l.id(l.items[i]) == key {
			l.items[i] = e
			l.mirrorLocked(e)
			return
		}
	}
}

// Remove drops the record with the given id and clears the selected pointer
// when it referenced the removed record.
func (l *List[E]) Remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.items[:0]
	for _, e := range l.items {
		if l.id(e) != id {
			kept = append(kept, e)
		}
	}
	l.items = kept
	if l.selected != nil && l.id(*l.selected) == id {
		l.selected = nil
	}
}

// Get returns a copy of the record with the given id.
func (l *List[E]) Get(id int) (E, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.items {
		if l.id(l.items[i]) == id {
			return l.items[i], true
		}
	}
	var zero E
	return zero, false
}

// Len returns the number of records in the collection.
func (l *List[E]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// State returns a snapshot of the whole store.
func (l *List[E]) State() ListState[E] {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := ListState[E]{
		Items:   append([]E(nil), l.items...),
		Loading: l.loading,
		Err:     l.err,
	}
	if l.selected != nil {
		sel := *l.selected
		st.Selected = &sel
	}
	return st
}

// patch applies fn to the record with the given id and mirrors the change
// into the selected pointer when the ids match. A miss is a no-op.
func (l *List[E]) patch(id int, fn func(*E)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.items {
		if l.id(l.items[i]) == id {
			fn(&l.items[i])
			break
		}
	}
	if l.selected != nil && l.id(*l.selected) == id {
		sel := *l.selected
		fn(&sel)
		l.selected = &sel
	}
}

// mirrorLocked refreshes the selected pointer with e when the ids match.
// Callers hold the write lock.
func (l *List[E]) mirrorLocked(e E) {
	if l.selected != nil && l.id(*l.selected) == l.id(e) {
		l.selected = &e
	}
}
