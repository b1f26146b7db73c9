// Package selection tracks the single post shown in the detail overlay.
package selection

import "github.com/glabrego/postdeck/internal/content"

// Selection is either Closed or Open.
type Selection interface {
	isSelection()
}

type Closed struct{}

type Open struct {
	Post content.Post
}

func (Closed) isSelection() {}
func (Open) isSelection()   {}

// PostOf returns the selected post, if any.
func PostOf(s Selection) (content.Post, bool) {
	if open, ok := s.(Open); ok {
		return open.Post, true
	}
	return content.Post{}, false
}

func IsOpen(s Selection) bool {
	_, ok := s.(Open)
	return ok
}

const KeyEscape = "esc"

// KeySource delivers process-wide key signals. The returned func removes the
// listener.
type KeySource interface {
	OnKey(key string, fn func()) (remove func())
}

// ScrollLocker freezes background scrolling while held.
type ScrollLocker interface {
	Lock() (unlock func())
}

// Hooks are the global UI utilities held while a post is open. Nil members
// are skipped.
type Hooks struct {
	Keys   KeySource
	Scroll ScrollLocker
}

type lease struct {
	releases []func()
	released bool
}

func (l *lease) release() {
	if l == nil || l.released {
		return
	}
	l.released = true
	for i := len(l.releases) - 1; i >= 0; i-- {
		l.releases[i]()
	}
}

// Controller owns the current selection and the hooks leased while it is
// open. It is not safe for concurrent use.
type Controller struct {
	current  Selection
	hooks    Hooks
	lease    *lease
	onChange func(Selection)
	torn     bool
}

// NewController returns a closed controller. onChange, if non-nil, is called
// after every transition.
func NewController(hooks Hooks, onChange func(Selection)) *Controller {
	return &Controller{current: Closed{}, hooks: hooks, onChange: onChange}
}

func (c *Controller) Current() Selection {
	return c.current
}

// Select opens post, replacing any prior selection.
func (c *Controller) Select(post content.Post) Selection {
	if c.torn {
		return c.current
	}
	if c.lease == nil {
		c.lease = c.acquire()
	}
	c.current = Open{Post: post}
	c.changed()
	return c.current
}

// Clear closes the selection. It is idempotent.
func (c *Controller) Clear() Selection {
	if _, open := c.current.(Open); !open {
		return c.current
	}
	c.lease.release()
	c.lease = nil
	c.current = Closed{}
	c.changed()
	return c.current
}

func (c *Controller) Close() Selection   { return c.Clear() }
func (c *Controller) Escape() Selection  { return c.Clear() }
func (c *Controller) Dismiss() Selection { return c.Clear() }

// Teardown releases held hooks without notifying and disables the controller.
func (c *Controller) Teardown() {
	c.lease.release()
	c.lease = nil
	c.current = Closed{}
	c.torn = true
}

func (c *Controller) acquire() *lease {
	l := &lease{}
	if c.hooks.Keys != nil {
		l.releases = append(l.releases, c.hooks.Keys.OnKey(KeyEscape, func() { c.Escape() }))
	}
	if c.hooks.Scroll != nil {
		l.releases = append(l.releases, c.hooks.Scroll.Lock())
	}
	return l
}

func (c *Controller) changed() {
	if c.onChange != nil {
		c.onChange(c.current)
	}
}
