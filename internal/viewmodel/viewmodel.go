// Package viewmodel coordinates the canonical post collection, the active
// filters, the derived visible collection, the load status and the current
// selection. A ViewModel has exactly one writer: every method must be called
// from the same goroutine (the UI update loop). Fetches run elsewhere via
// Request.Run and come back through Resolve.
package viewmodel

import (
	"context"
	"io"
	"log/slog"

	"github.com/glabrego/postdeck/internal/catalog"
	"github.com/glabrego/postdeck/internal/content"
	"github.com/glabrego/postdeck/internal/selection"
)

// Fetcher retrieves one bounded page of posts.
type Fetcher interface {
	Fetch(ctx context.Context, offset, limit int) (content.Page, error)
}

type ViewModel struct {
	fetcher Fetcher
	offset  int
	limit   int
	logger  *slog.Logger

	status     LoadStatus
	canonical  content.Collection
	vocabulary []string
	total      int
	filter     catalog.FilterState
	visible    content.Collection
	selection  *selection.Controller

	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	mounted    bool
	torn       bool

	observers map[int]func(Snapshot)
	nextObs   int
	muted     bool
}

type Option func(*ViewModel)

func WithPage(offset, limit int) Option {
	return func(vm *ViewModel) {
		vm.offset = offset
		vm.limit = limit
	}
}

func WithHooks(hooks selection.Hooks) Option {
	return func(vm *ViewModel) {
		vm.selection = selection.NewController(hooks, vm.selectionChanged)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(vm *ViewModel) {
		if logger != nil {
			vm.logger = logger
		}
	}
}

func New(fetcher Fetcher, opts ...Option) *ViewModel {
	vm := &ViewModel{
		fetcher:   fetcher,
		limit:     content.DefaultPageLimit,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		status:    LoadStatus{Kind: StatusIdle},
		visible:   content.Collection{},
		observers: make(map[int]func(Snapshot)),
	}
	vm.selection = selection.NewController(selection.Hooks{}, vm.selectionChanged)
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// Request is a pending fetch issued by Mount or Retry.
type Request struct {
	Generation uint64
	Offset     int
	Limit      int

	ctx     context.Context
	fetcher Fetcher
}

// Run performs the fetch. It blocks and must not touch the view model.
func (r Request) Run() Result {
	if r.fetcher == nil {
		return Result{Generation: r.Generation, Err: errNoFetcher}
	}
	page, err := r.fetcher.Fetch(r.ctx, r.Offset, r.Limit)
	return Result{Generation: r.Generation, Page: page, Err: err}
}

// Result is the outcome of a Request.
type Result struct {
	Generation uint64
	Page       content.Page
	Err        error
}

// Mount starts the initial fetch. It succeeds once per view model.
func (vm *ViewModel) Mount(ctx context.Context) (Request, bool) {
	if vm.mounted || vm.torn {
		return Request{}, false
	}
	vm.mounted = true
	vm.ctx, vm.cancel = context.WithCancel(ctx)
	return vm.startFetch(), true
}

// Retry re-enters Loading from Failed or Ready. It is a no-op while a fetch
// is in flight, before Mount and after Teardown.
func (vm *ViewModel) Retry() (Request, bool) {
	if !vm.mounted || vm.torn {
		return Request{}, false
	}
	switch vm.status.Kind {
	case StatusFailed, StatusReady:
		return vm.startFetch(), true
	default:
		return Request{}, false
	}
}

func (vm *ViewModel) startFetch() Request {
	vm.generation++
	vm.status = LoadStatus{Kind: StatusLoading}
	vm.logger.Debug("fetch started", "generation", vm.generation, "offset", vm.offset, "limit", vm.limit)
	vm.notify()
	return Request{
		Generation: vm.generation,
		Offset:     vm.offset,
		Limit:      vm.limit,
		ctx:        vm.ctx,
		fetcher:    vm.fetcher,
	}
}

// Resolve applies a fetch result. Results arriving after Teardown or for a
// superseded request are dropped and Resolve reports false.
func (vm *ViewModel) Resolve(res Result) bool {
	if vm.torn {
		vm.logger.Debug("fetch result discarded after teardown", "generation", res.Generation)
		return false
	}
	if vm.status.Kind != StatusLoading || res.Generation != vm.generation {
		vm.logger.Debug("stale fetch result discarded", "generation", res.Generation, "current", vm.generation)
		return false
	}

	vm.muted = true
	if res.Err != nil {
		vm.status = LoadStatus{Kind: StatusFailed, Reason: res.Err.Error()}
		vm.canonical = nil
		vm.total = 0
		vm.logger.Warn("fetch failed", "generation", res.Generation, "error", res.Err)
	} else {
		vm.status = LoadStatus{Kind: StatusReady}
		vm.canonical = append(content.Collection(nil), res.Page.Posts...)
		vm.total = res.Page.Total
		vm.logger.Info("fetch completed", "generation", res.Generation, "posts", len(vm.canonical), "total", vm.total)
	}
	vm.vocabulary = catalog.Vocabulary(vm.canonical)
	vm.recompute()
	vm.reconcileSelection()
	vm.muted = false
	vm.notify()
	return true
}

// reconcileSelection rebinds an open selection to the refreshed record with
// the same id, or closes it when that id is gone.
func (vm *ViewModel) reconcileSelection() {
	post, open := selection.PostOf(vm.selection.Current())
	if !open {
		return
	}
	if fresh, ok := vm.canonical.Find(post.ID); ok {
		vm.selection.Select(fresh)
		return
	}
	vm.logger.Debug("selected post vanished from collection", "post_id", post.ID)
	vm.selection.Clear()
}

func (vm *ViewModel) SetSearchText(text string) {
	if vm.filter.SearchText == text {
		return
	}
	vm.filter.SearchText = text
	vm.recompute()
	vm.notify()
}

// SetTag selects tag. Tags outside the current vocabulary are accepted and
// match nothing.
func (vm *ViewModel) SetTag(tag string) {
	if vm.filter.Tag == tag {
		return
	}
	vm.filter.Tag = tag
	vm.recompute()
	vm.notify()
}

func (vm *ViewModel) ClearTag() {
	vm.SetTag("")
}

// CycleTag moves the tag selection step places through "no tag" and the
// vocabulary.
func (vm *ViewModel) CycleTag(step int) {
	vm.SetTag(catalog.CycleTag(vm.vocabulary, vm.filter.Tag, step))
}

// ClearFilters resets every filter input with a single recomputation.
func (vm *ViewModel) ClearFilters() {
	if vm.filter == (catalog.FilterState{}) {
		return
	}
	vm.filter = catalog.FilterState{}
	vm.recompute()
	vm.notify()
}

// SelectPost opens the post with id from the canonical collection. Unknown
// ids are ignored.
func (vm *ViewModel) SelectPost(id int64) bool {
	post, ok := vm.canonical.Find(id)
	if !ok || vm.torn {
		return false
	}
	vm.selection.Select(post)
	return true
}

func (vm *ViewModel) CloseSelection()   { vm.selection.Close() }
func (vm *ViewModel) EscapeSelection()  { vm.selection.Escape() }
func (vm *ViewModel) DismissSelection() { vm.selection.Dismiss() }

// Teardown cancels any in-flight fetch and releases held hooks. Later
// results are discarded.
func (vm *ViewModel) Teardown() {
	if vm.torn {
		return
	}
	vm.torn = true
	if vm.cancel != nil {
		vm.cancel()
	}
	vm.selection.Teardown()
	vm.observers = make(map[int]func(Snapshot))
	vm.logger.Debug("view model torn down", "generation", vm.generation)
}

func (vm *ViewModel) Mounted() bool  { return vm.mounted }
func (vm *ViewModel) TornDown() bool { return vm.torn }

// Subscribe registers fn to receive a snapshot after every state change.
func (vm *ViewModel) Subscribe(fn func(Snapshot)) (cancel func()) {
	id := vm.nextObs
	vm.nextObs++
	vm.observers[id] = fn
	return func() { delete(vm.observers, id) }
}

func (vm *ViewModel) recompute() {
	vm.visible = catalog.Apply(vm.canonical, vm.filter)
}

func (vm *ViewModel) selectionChanged(selection.Selection) {
	vm.notify()
}

func (vm *ViewModel) notify() {
	if vm.muted || vm.torn || len(vm.observers) == 0 {
		return
	}
	snap := vm.Snapshot()
	for _, fn := range vm.observers {
		fn(snap)
	}
}
