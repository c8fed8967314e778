package dialog

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDialog stands in for a host dialog component: it owns the open flag,
// echoes programmatic changes back through OnOpenChanged the way a UI
// watcher would, and records vetoed closes.
type fakeDialog struct {
	sync     *Synchronizer
	open     bool
	closable bool
	blocked  int
}

func newFakeDialog(nav Navigator, id string, initiallyOpen bool) *fakeDialog {
	d := &fakeDialog{open: initiallyOpen, closable: true}
	d.sync = NewSynchronizer(Options{
		Navigator: nav,
		ID:        id,
		Callbacks: Callbacks{
			IsOpen: func() bool { return d.open },
			SetOpen: func(open bool) {
				d.open = open
				if d.sync != nil {
					d.sync.OnOpenChanged(open)
				}
			},
			CanClose:       func() bool { return d.closable },
			OnBlockedClose: func() { d.blocked++ },
		},
	})
	return d
}

func (d *fakeDialog) openNow() {
	d.open = true
	d.sync.OnOpenChanged(true)
}

func (d *fakeDialog) closeNow() {
	d.open = false
	d.sync.OnOpenChanged(false)
}

func channelsEntry() Entry {
	return Entry{Path: "/channels", Query: url.Values{}}
}

func stackOf(nav Navigator) string {
	return nav.Current().Query.Get(StackQueryKey)
}

func TestOpenPushesStackEntry(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)

	a.openNow()

	assert.Equal(t, "dlg-a", stackOf(nav))
	assert.Equal(t, "/channels", nav.Current().Path, "opening a dialog never changes the route")
	assert.True(t, nav.CanGoBack())
}

func TestBackClosesDialog(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)
	a.openNow()

	nav.Back()

	assert.False(t, a.open)
	assert.Empty(t, stackOf(nav))
	assert.Equal(t, "/channels", nav.Current().Path)
}

func TestHostClosePopsHistory(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)
	a.openNow()

	a.closeNow()

	assert.Empty(t, stackOf(nav))
	assert.False(t, nav.CanGoBack(), "close consumes the entry the open pushed")
}

func TestTwoDialogsCloseInLIFOOrder(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)
	b := newFakeDialog(nav, "dlg-b", false)

	a.openNow()
	b.openNow()
	require.Equal(t, "dlg-a,dlg-b", stackOf(nav))

	nav.Back()
	assert.False(t, b.open, "back closes the top dialog first")
	assert.True(t, a.open, "the dialog underneath stays open")
	assert.Equal(t, "dlg-a", stackOf(nav))

	nav.Back()
	assert.False(t, a.open)
	assert.Empty(t, stackOf(nav))
}

func TestReopenDoesNotDuplicateID(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)

	a.openNow()
	a.sync.OnOpenChanged(true) // redundant host notification

	assert.Equal(t, "dlg-a", stackOf(nav))

	nav.Back()
	assert.False(t, a.open)
	assert.False(t, nav.CanGoBack(), "only one entry was pushed")
}

func TestMidStackCloseKeepsOrder(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)
	b := newFakeDialog(nav, "dlg-b", false)
	c := newFakeDialog(nav, "dlg-c", false)

	a.openNow()
	b.openNow()
	c.openNow()

	b.closeNow()

	assert.Equal(t, "dlg-a,dlg-c", stackOf(nav), "closing mid-stack rewrites in place")
	assert.True(t, a.open)
	assert.True(t, c.open)
}

func TestBlockedCloseReinstatesID(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)
	a.openNow()
	a.closable = false

	nav.Back()

	assert.True(t, a.open, "vetoed close keeps the dialog up")
	assert.Equal(t, 1, a.blocked)
	assert.Equal(t, "dlg-a", stackOf(nav), "the id is written back so the URL stays truthful")

	// Once the veto lifts, a host close rewrites in place; the pushed
	// entry was already consumed by the back navigation.
	a.closable = true
	a.closeNow()
	assert.Empty(t, stackOf(nav))
}

func TestMountedOpenRestoresWithoutPush(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())

	a := newFakeDialog(nav, "dlg-a", true)

	assert.True(t, a.open)
	assert.Equal(t, "dlg-a", stackOf(nav))
	assert.False(t, nav.CanGoBack(), "restore rewrites in place instead of pushing")
}

func TestDeepLinkOpensDialog(t *testing.T) {
	entry := channelsEntry()
	entry.Query.Set(StackQueryKey, "dlg-a")
	nav := NewMemoryNavigator(entry)

	a := newFakeDialog(nav, "dlg-a", false)

	assert.True(t, a.open, "an id arriving in the URL opens the dialog")
	assert.Equal(t, "dlg-a", stackOf(nav))
	assert.False(t, nav.CanGoBack())
}

func TestReleaseRemovesOrphanID(t *testing.T) {
	nav := NewMemoryNavigator(channelsEntry())
	a := newFakeDialog(nav, "dlg-a", false)
	a.openNow()

	a.sync.Release()

	assert.Empty(t, stackOf(nav))

	// A released synchronizer ignores later traffic.
	nav.Back()
	assert.Equal(t, "/channels", nav.Current().Path)
}

func TestReadStackCodec(t *testing.T) {
	q := url.Values{}
	q.Set(StackQueryKey, " a, ,b,a,c ")
	assert.Equal(t, []string{"a", "b", "c"}, readStack(q))

	assert.Nil(t, readStack(url.Values{}))

	e := withStack(Entry{Path: "/x", Query: q}, nil)
	assert.False(t, e.Query.Has(StackQueryKey), "empty stack removes the parameter")
}
