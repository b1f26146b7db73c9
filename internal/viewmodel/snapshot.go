package viewmodel

import (
	"errors"

	"github.com/glabrego/postdeck/internal/catalog"
	"github.com/glabrego/postdeck/internal/content"
	"github.com/glabrego/postdeck/internal/selection"
)

var errNoFetcher = errors.New("no fetcher configured")

type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusLoading
	StatusReady
	StatusFailed
)

func (k StatusKind) String() string {
	switch k {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// LoadStatus is the lifecycle of the canonical collection. Reason is set
// only when Kind is StatusFailed.
type LoadStatus struct {
	Kind   StatusKind
	Reason string
}

// Snapshot is an immutable view of the state exposed to renderers.
type Snapshot struct {
	VisiblePosts   content.Collection
	Status         LoadStatus
	Selection      selection.Selection
	Filter         catalog.FilterState
	Vocabulary     []string
	Counts         map[string]int
	Total          int
	CanonicalCount int
}

func (s Snapshot) ErrorReason() string {
	if s.Status.Kind != StatusFailed {
		return ""
	}
	return s.Status.Reason
}

// NoMatches reports a loaded collection filtered down to nothing, as opposed
// to a collection that was empty to begin with.
func (s Snapshot) NoMatches() bool {
	return s.Status.Kind == StatusReady && s.CanonicalCount > 0 && len(s.VisiblePosts) == 0
}

// Empty reports a successful fetch that returned no posts.
func (s Snapshot) Empty() bool {
	return s.Status.Kind == StatusReady && s.CanonicalCount == 0
}

func (vm *ViewModel) Snapshot() Snapshot {
	return Snapshot{
		VisiblePosts:   append(content.Collection{}, vm.visible...),
		Status:         vm.status,
		Selection:      vm.selection.Current(),
		Filter:         vm.filter,
		Vocabulary:     append([]string(nil), vm.vocabulary...),
		Counts:         catalog.Counts(vm.canonical),
		Total:          vm.total,
		CanonicalCount: len(vm.canonical),
	}
}

func (vm *ViewModel) Status() LoadStatus             { return vm.status }
func (vm *ViewModel) Filter() catalog.FilterState    { return vm.filter }
func (vm *ViewModel) Visible() content.Collection    { return vm.visible }
func (vm *ViewModel) Canonical() content.Collection  { return vm.canonical }
func (vm *ViewModel) Selection() selection.Selection { return vm.selection.Current() }
func (vm *ViewModel) Vocabulary() []string           { return vm.vocabulary }
