package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glabrego/postdeck/internal/content"
)

type fakeKeys struct {
	listeners map[string]func()
	added     int
	removed   int
}

func (f *fakeKeys) OnKey(key string, fn func()) func() {
	if f.listeners == nil {
		f.listeners = make(map[string]func())
	}
	f.listeners[key] = fn
	f.added++
	return func() {
		delete(f.listeners, key)
		f.removed++
	}
}

func (f *fakeKeys) press(key string) {
	if fn, ok := f.listeners[key]; ok {
		fn()
	}
}

type fakeScroll struct {
	held     int
	unlocked int
}

func (f *fakeScroll) Lock() func() {
	f.held++
	return func() {
		f.held--
		f.unlocked++
	}
}

func newTestController() (*Controller, *fakeKeys, *fakeScroll, *[]Selection) {
	keys := &fakeKeys{}
	scroll := &fakeScroll{}
	var seen []Selection
	c := NewController(Hooks{Keys: keys, Scroll: scroll}, func(s Selection) {
		seen = append(seen, s)
	})
	return c, keys, scroll, &seen
}

func TestController_SelectReplacesWithoutStacking(t *testing.T) {
	c, keys, scroll, _ := newTestController()

	c.Select(content.Post{ID: 1})
	sel := c.Select(content.Post{ID: 2})

	post, ok := PostOf(sel)
	require.True(t, ok)
	assert.Equal(t, int64(2), post.ID)
	assert.Equal(t, 1, keys.added, "re-selecting keeps the existing lease")
	assert.Equal(t, 1, scroll.held)
}

func TestController_ClearIsIdempotentAndReleasesOnce(t *testing.T) {
	c, keys, scroll, seen := newTestController()

	assert.Equal(t, Closed{}, c.Clear())
	assert.Empty(t, *seen, "clearing a closed selection is not a transition")

	c.Select(content.Post{ID: 1})
	assert.Equal(t, Closed{}, c.Clear())
	assert.Equal(t, Closed{}, c.Clear())

	assert.Equal(t, 1, keys.removed)
	assert.Equal(t, 1, scroll.unlocked)
	assert.Equal(t, 0, scroll.held)
	assert.Len(t, *seen, 2)
}

func TestController_AllCancellationPointsClose(t *testing.T) {
	c, keys, scroll, _ := newTestController()
	post := content.Post{ID: 5}

	closers := map[string]func(){
		"close":    func() { c.Close() },
		"escape":   func() { keys.press(KeyEscape) },
		"dismiss":  func() { c.Dismiss() },
		"escapefn": func() { c.Escape() },
	}
	for name, closeFn := range closers {
		c.Select(post)
		require.True(t, IsOpen(c.Current()), name)
		require.Equal(t, 1, scroll.held, name)

		closeFn()

		assert.False(t, IsOpen(c.Current()), name)
		assert.Equal(t, 0, scroll.held, name)
		assert.Empty(t, keys.listeners, name)
	}
}

func TestController_TeardownReleasesAndDisables(t *testing.T) {
	c, keys, scroll, seen := newTestController()
	c.Select(content.Post{ID: 1})
	notified := len(*seen)

	c.Teardown()
	c.Teardown()

	assert.Equal(t, 0, scroll.held)
	assert.Equal(t, 1, keys.removed)
	assert.Len(t, *seen, notified, "teardown does not notify")

	c.Select(content.Post{ID: 2})
	assert.False(t, IsOpen(c.Current()))
	assert.Equal(t, 0, scroll.held)
}

func TestController_NilHooks(t *testing.T) {
	c := NewController(Hooks{}, nil)
	c.Select(content.Post{ID: 1})
	assert.True(t, IsOpen(c.Current()))
	c.Dismiss()
	assert.False(t, IsOpen(c.Current()))
}

func TestPostOfClosed(t *testing.T) {
	_, ok := PostOf(Closed{})
	assert.False(t, ok)
}
