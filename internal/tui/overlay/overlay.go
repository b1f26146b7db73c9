// Package overlay provides the process-wide key signal source and scroll
// lock held while the detail overlay is open. Both are driven from the
// Bubble Tea update loop and are not safe for concurrent use.
package overlay

import "github.com/glabrego/postdeck/internal/selection"

var (
	_ selection.KeySource    = (*Keys)(nil)
	_ selection.ScrollLocker = (*ScrollLock)(nil)
)

// Keys routes key presses to registered listeners. The most recent
// listener for a key wins.
type Keys struct {
	listeners map[string][]*listener
}

type listener struct {
	fn func()
}

func NewKeys() *Keys {
	return &Keys{listeners: make(map[string][]*listener)}
}

func (k *Keys) OnKey(key string, fn func()) func() {
	l := &listener{fn: fn}
	k.listeners[key] = append(k.listeners[key], l)
	removed := false
	return func() {
		if removed {
			return
		}
		removed = true
		stack := k.listeners[key]
		for i, cur := range stack {
			if cur == l {
				k.listeners[key] = append(stack[:i:i], stack[i+1:]...)
				break
			}
		}
		if len(k.listeners[key]) == 0 {
			delete(k.listeners, key)
		}
	}
}

// Dispatch delivers key to its newest listener and reports whether one
// handled it.
func (k *Keys) Dispatch(key string) bool {
	stack := k.listeners[key]
	if len(stack) == 0 {
		return false
	}
	stack[len(stack)-1].fn()
	return true
}

func (k *Keys) Listening(key string) bool {
	return len(k.listeners[key]) > 0
}

// ScrollLock is a counted lock over background scrolling.
type ScrollLock struct {
	holders int
}

func (s *ScrollLock) Lock() func() {
	s.holders++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		s.holders--
	}
}

func (s *ScrollLock) Locked() bool {
	return s.holders > 0
}
