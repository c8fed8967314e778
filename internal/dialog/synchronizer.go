package dialog

import (
	"log/slog"

	"github.com/google/uuid"
)

// Callbacks connects a synchronizer to the host's dialog model.
type Callbacks struct {
	// IsOpen reports the dialog's current visibility.
	IsOpen func() bool
	// SetOpen changes the dialog's visibility programmatically.
	SetOpen func(open bool)
	// CanClose may veto a history-driven close (unsaved work, running
	// operation). Nil means always closable.
	CanClose func() bool
	// OnBlockedClose is invoked when a history-driven close was vetoed,
	// so the host can explain why the dialog stayed up.
	OnBlockedClose func()
}

// Options bundles dependencies for NewSynchronizer.
type Options struct {
	Navigator Navigator
	Callbacks Callbacks

	// ID overrides the generated instance id, for tests.
	ID string

	Logger *slog.Logger
}

// Synchronizer ties one dialog instance to the navigation history. While
// the dialog is open its id appears in the history entry's stack
// parameter; the platform back action therefore closes the top dialog
// first, and a deep link carrying the id reopens it.
//
// A synchronizer is driven from the host's navigation goroutine and is not
// safe for concurrent use.
type Synchronizer struct {
	nav    Navigator
	id     string
	cb     Callbacks
	logger *slog.Logger

	unsubscribe func()

	// latch suppresses OnOpenChanged while the synchronizer itself is
	// changing the dialog's state; cleared via Navigator.Defer so the
	// host's synchronous reaction is still covered.
	latch bool

	// pushed records that the current open state owns a dedicated history
	// entry, making Back the right way to close it.
	pushed bool

	// path is the route the dialog opened on; an id is only reinstated
	// after a blocked close when the route has not changed underneath it.
	path string

	released bool
}

// NewSynchronizer registers a dialog with the navigator. When the dialog
// is already open and absent from the current entry's stack, the id is
// restored in place without growing history.
func NewSynchronizer(opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	id := opts.ID
	if id == "" {
		id = uuid.NewString()
	}
	s := &Synchronizer{
		nav:    opts.Navigator,
		id:     id,
		cb:     opts.Callbacks,
		logger: logger,
	}
	s.unsubscribe = s.nav.Subscribe(s.handleNavigation)

	cur := s.nav.Current()
	ids := readStack(cur.Query)
	switch {
	case s.isOpen() && !containsID(ids, s.id):
		s.path = cur.Path
		s.nav.Replace(withStack(cur, appendID(ids, s.id)))
	case !s.isOpen() && containsID(ids, s.id):
		// Deep link carrying our id: open without touching history.
		s.path = cur.Path
		s.setOpenLatched(true)
	}
	return s
}

// ID returns the instance id carried in the stack parameter.
func (s *Synchronizer) ID() string { return s.id }

// OnOpenChanged must be called by the host whenever the dialog's
// visibility changes. Host-driven opens push a history entry; host-driven
// closes pop it, or rewrite the current entry when popping would not be
// safe.
func (s *Synchronizer) OnOpenChanged(open bool) {
	if s.released || s.latch {
		return
	}
	cur := s.nav.Current()
	ids := readStack(cur.Query)

	if open {
		if containsID(ids, s.id) {
			return
		}
		s.path = cur.Path
		s.pushed = true
		s.nav.Push(withStack(cur, appendID(ids, s.id)))
		return
	}

	if !containsID(ids, s.id) {
		return
	}
	if topID(ids) == s.id && s.pushed && s.nav.CanGoBack() {
		s.pushed = false
		s.nav.Back()
		return
	}
	// Closed out of stack order, or there is nothing to go back to.
	s.pushed = false
	s.nav.Replace(withStack(cur, removeID(ids, s.id)))
}

// Release detaches the synchronizer, removing the id from the current
// entry so no orphan remains. Call it when the dialog host unmounts.
func (s *Synchronizer) Release() {
	if s.released {
		return
	}
	s.released = true
	s.unsubscribe()

	cur := s.nav.Current()
	ids := readStack(cur.Query)
	if containsID(ids, s.id) {
		s.nav.Replace(withStack(cur, removeID(ids, s.id)))
	}
}

// handleNavigation reconciles the dialog with an inbound history entry.
func (s *Synchronizer) handleNavigation(entry Entry) {
	if s.released {
		return
	}
	ids := readStack(entry.Query)
	has := containsID(ids, s.id)
	open := s.isOpen()

	switch {
	case has && !open:
		// Deep link or history forward: restore the dialog in place.
		s.path = entry.Path
		s.pushed = false
		s.setOpenLatched(true)

	case !has && open:
		if s.latch {
			return
		}
		if s.canClose() {
			s.pushed = false
			s.setOpenLatched(false)
			return
		}
		if s.cb.OnBlockedClose != nil {
			s.cb.OnBlockedClose()
		}
		// The dialog refused to close. Reinstate the id so the URL keeps
		// telling the truth, but only while still on the same route.
		if entry.Path == s.path {
			s.pushed = false
			s.nav.Replace(withStack(entry, appendID(ids, s.id)))
		}
	}
}

func (s *Synchronizer) isOpen() bool {
	return s.cb.IsOpen != nil && s.cb.IsOpen()
}

func (s *Synchronizer) canClose() bool {
	return s.cb.CanClose == nil || s.cb.CanClose()
}

// setOpenLatched drives the host's dialog state with the reentrancy latch
// held, so the host's own OnOpenChanged echo is ignored.
func (s *Synchronizer) setOpenLatched(open bool) {
	s.latch = true
	if s.cb.SetOpen != nil {
		s.cb.SetOpen(open)
	}
	s.nav.Defer(func() { s.latch = false })
}
