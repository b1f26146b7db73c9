package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/glabrego/postdeck/internal/content"
	article "github.com/glabrego/postdeck/internal/render/article"
	"github.com/glabrego/postdeck/internal/selection"
	tuiactions "github.com/glabrego/postdeck/internal/tui/actions"
	"github.com/glabrego/postdeck/internal/tui/overlay"
	tuiplatform "github.com/glabrego/postdeck/internal/tui/platform"
	tuistate "github.com/glabrego/postdeck/internal/tui/state"
	tuitheme "github.com/glabrego/postdeck/internal/tui/theme"
	tuiview "github.com/glabrego/postdeck/internal/tui/view"
	"github.com/glabrego/postdeck/internal/viewmodel"
)

const (
	detailCacheSize   = 64
	statusTTL         = 3 * time.Second
	wheelStep         = 3
	overlayMaxWidth   = 96
	overlayMargin     = 2
	detailBodyPadding = 1
	excerptLength     = 120
)

type Options struct {
	Offset       int
	Limit        int
	ShareBaseURL string
	Pill         string
	RelativeTime bool
	ShowExcerpts bool
	Logger       *slog.Logger
}

type Model struct {
	vm     *viewmodel.ViewModel
	keys   *overlay.Keys
	scroll *overlay.ScrollLock
	ctx    context.Context
	logger *slog.Logger
	theme  tuitheme.Theme

	search  textinput.Model
	detail  viewport.Model
	spinner spinner.Model
	cache   *lru.Cache[string, []string]

	offset       int
	limit        int
	shareBase    string
	pill         string
	relativeTime bool
	excerpts     bool

	cursor   int
	detailID int64
	width    int
	height   int
	status   string
	statusID int
	lastLoad time.Duration

	openURLFn func(string) error
	copyURLFn func(string) error
	nowFn     func() time.Time
}

func NewModel(fetcher viewmodel.Fetcher, opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = content.DefaultPageLimit
	}

	keys := overlay.NewKeys()
	scroll := &overlay.ScrollLock{}
	vm := viewmodel.New(fetcher,
		viewmodel.WithPage(opts.Offset, limit),
		viewmodel.WithHooks(selection.Hooks{Keys: keys, Scroll: scroll}),
		viewmodel.WithLogger(logger),
	)

	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search titles and bodies"
	search.CharLimit = 120

	spin := spinner.New(spinner.WithSpinner(spinner.Dot))

	// Only fails for a non-positive size.
	cache, _ := lru.New[string, []string](detailCacheSize)

	th := tuitheme.Default()
	search.PromptStyle = th.SearchPrompt

	return Model{
		vm:           vm,
		keys:         keys,
		scroll:       scroll,
		ctx:          context.Background(),
		logger:       logger,
		theme:        th,
		search:       search,
		detail:       viewport.New(0, 0),
		spinner:      spin,
		cache:        cache,
		offset:       opts.Offset,
		limit:        limit,
		shareBase:    opts.ShareBaseURL,
		pill:         opts.Pill,
		relativeTime: opts.RelativeTime,
		excerpts:     opts.ShowExcerpts,
		openURLFn:    tuiplatform.OpenURLInBrowser,
		copyURLFn:    tuiplatform.CopyToClipboard,
		nowFn:        time.Now,
	}
}

// WithContext sets the parent context for fetches started by Init.
func (m Model) WithContext(ctx context.Context) Model {
	if ctx != nil {
		m.ctx = ctx
	}
	return m
}

// Close tears the view model down. Results of fetches still in flight are
// discarded.
func (m Model) Close() {
	m.vm.Teardown()
}

func (m Model) ViewModel() *viewmodel.ViewModel {
	return m.vm
}

func (m Model) Init() tea.Cmd {
	req, ok := m.vm.Mount(m.ctx)
	if !ok {
		return nil
	}
	m.logger.Info("initial fetch", "offset", req.Offset, "limit", req.Limit)
	return tea.Batch(tuiactions.FetchCmd(req), m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.search.Width = max(10, msg.Width-4)
		m.syncDetail(true)
		return m, nil
	case tuiactions.FetchDoneMsg:
		return m.resolveFetch(msg)
	case spinner.TickMsg:
		if m.vm.Status().Kind != viewmodel.StatusLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tuiactions.URLActionMsg:
		return m.setStatus(msg.Status)
	case tuiactions.URLActionErrorMsg:
		m.logger.Warn("link action failed", "err", msg.Err)
		return m.setStatus("Link action failed: " + msg.Err.Error())
	case tuiactions.ClearStatusMsg:
		if msg.ID == m.statusID {
			m.status = ""
		}
		return m, nil
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.search.Focused() {
		switch key {
		case "enter":
			m.search.Blur()
			return m, nil
		case "esc":
			m.search.Blur()
			return m, nil
		}
		anchor := m.anchorID()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if m.search.Value() != m.vm.Filter().SearchText {
			m.vm.SetSearchText(m.search.Value())
			m.restoreCursor(anchor)
		}
		return m, cmd
	}

	// The scroll lock is held for as long as a post is open; list navigation
	// only runs without it.
	if m.scroll.Locked() {
		return m.handleDetailKey(msg)
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "esc":
		m.keys.Dispatch(selection.KeyEscape)
		return m, nil
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "pgdown":
		m.moveCursor(tuistate.PageStep(m.height, m.status != ""))
	case "pgup":
		m.moveCursor(-tuistate.PageStep(m.height, m.status != ""))
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = max(0, len(m.vm.Visible())-1)
	case "/":
		cmd := m.search.Focus()
		return m, cmd
	case "ctrl+l":
		anchor := m.anchorID()
		m.search.SetValue("")
		m.vm.SetSearchText("")
		m.restoreCursor(anchor)
	case "e":
		m.excerpts = !m.excerpts
	case "t":
		m.cycleTag(1)
	case "T":
		m.cycleTag(-1)
	case "x":
		anchor := m.anchorID()
		m.search.SetValue("")
		m.vm.ClearFilters()
		m.restoreCursor(anchor)
	case "r":
		return m.retry()
	case "enter":
		return m.openCurrent()
	case "y":
		if post, ok := m.currentPost(); ok {
			return m.copyLink(post)
		}
	case "o":
		if post, ok := m.currentPost(); ok {
			return m.openLink(post)
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	post, _ := selection.PostOf(m.vm.Selection())
	switch msg.String() {
	case "esc":
		m.keys.Dispatch(selection.KeyEscape)
		m.syncDetail(false)
		return m, nil
	case "q", "backspace":
		m.vm.CloseSelection()
		m.syncDetail(false)
		return m, nil
	case "y":
		return m.copyLink(post)
	case "o":
		return m.openLink(post)
	case "r":
		return m.retry()
	case "g", "home":
		m.detail.GotoTop()
		return m, nil
	case "G", "end":
		m.detail.GotoBottom()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail, cmd = m.detail.Update(msg)
	return m, cmd
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.scroll.Locked() {
		if m.detailOpen() && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			x0, y0, x1, y1 := m.overlayBounds()
			if msg.X < x0 || msg.X >= x1 || msg.Y < y0 || msg.Y >= y1 {
				m.vm.DismissSelection()
				m.syncDetail(false)
				return m, nil
			}
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd
	}
	switch msg.Button {
	case tea.MouseButtonWheelDown:
		m.moveCursor(wheelStep)
	case tea.MouseButtonWheelUp:
		m.moveCursor(-wheelStep)
	}
	return m, nil
}

func (m Model) resolveFetch(msg tuiactions.FetchDoneMsg) (tea.Model, tea.Cmd) {
	anchor := m.anchorID()
	if !m.vm.Resolve(msg.Result) {
		m.logger.Debug("discarded fetch result", "generation", msg.Result.Generation)
		return m, nil
	}
	m.lastLoad = msg.Duration
	m.cache.Purge()
	m.logger.Debug("fetch resolved", "generation", msg.Result.Generation, "duration", msg.Duration)
	m.restoreCursor(anchor)
	m.syncDetail(true)
	return m, nil
}

func (m Model) retry() (tea.Model, tea.Cmd) {
	req, ok := m.vm.Retry()
	if !ok {
		return m, nil
	}
	m.logger.Info("retry fetch", "generation", req.Generation)
	return m, tea.Batch(tuiactions.FetchCmd(req), m.spinner.Tick)
}

func (m Model) openCurrent() (tea.Model, tea.Cmd) {
	post, ok := m.currentPost()
	if !ok {
		return m, nil
	}
	if m.vm.SelectPost(post.ID) {
		m.syncDetail(true)
	}
	return m, nil
}

func (m Model) copyLink(post content.Post) (tea.Model, tea.Cmd) {
	url, err := tuiplatform.ValidateURL(tuiplatform.ShareURL(m.shareBase, post.ID))
	if err != nil {
		return m.setStatus("No share link: " + err.Error())
	}
	return m, tuiactions.CopyURLCmd(url, m.copyURLFn)
}

func (m Model) openLink(post content.Post) (tea.Model, tea.Cmd) {
	url, err := tuiplatform.ValidateURL(tuiplatform.ShareURL(m.shareBase, post.ID))
	if err != nil {
		return m.setStatus("No share link: " + err.Error())
	}
	return m, tuiactions.OpenURLCmd(url, m.openURLFn, m.copyURLFn)
}

func (m Model) setStatus(status string) (tea.Model, tea.Cmd) {
	m.statusID++
	m.status = status
	return m, tuiactions.ClearStatusCmd(m.statusID, statusTTL)
}

func (m *Model) cycleTag(step int) {
	anchor := m.anchorID()
	m.vm.CycleTag(step)
	m.restoreCursor(anchor)
}

func (m *Model) moveCursor(delta int) {
	m.cursor = tuistate.ClampCursor(m.cursor+delta, len(m.vm.Visible()))
}

func (m Model) anchorID() int64 {
	return tuistate.AnchorID(m.vm.Visible(), m.cursor)
}

func (m *Model) restoreCursor(anchorID int64) {
	m.cursor = tuistate.CursorAfterFilter(m.vm.Visible(), anchorID, m.cursor)
}

func (m Model) currentPost() (content.Post, bool) {
	visible := m.vm.Visible()
	if len(visible) == 0 {
		return content.Post{}, false
	}
	return visible[tuistate.ClampCursor(m.cursor, len(visible))], true
}

func (m Model) detailOpen() bool {
	return selection.IsOpen(m.vm.Selection())
}

// syncDetail refreshes the viewport after the selection or the terminal size
// changed. The scroll position is kept while the same post stays open.
func (m *Model) syncDetail(resized bool) {
	post, ok := selection.PostOf(m.vm.Selection())
	if !ok {
		m.detailID = 0
		m.detail.SetContent("")
		return
	}
	w, h := m.overlaySize()
	m.detail.Width = max(1, w-m.theme.Overlay.GetHorizontalFrameSize())
	m.detail.Height = max(1, h-m.theme.Overlay.GetVerticalFrameSize())
	same := m.detailID == post.ID
	if same && !resized {
		return
	}
	m.detail.SetContent(strings.Join(m.detailLines(post, m.detail.Width), "\n"))
	if !same {
		m.detail.GotoTop()
	}
	m.detailID = post.ID
}

func (m Model) detailLines(post content.Post, width int) []string {
	key := fmt.Sprintf("%d:%d", post.ID, width)
	if lines, ok := m.cache.Get(key); ok {
		return lines
	}
	contentWidth := max(1, width-2*detailBodyPadding)
	meta := tuiview.DetailMeta{
		ShareURL: tuiplatform.ShareURL(m.shareBase, post.ID),
		Minutes:  article.ReadingMinutes(post),
	}
	lines := tuiview.DetailLines(post, meta, contentWidth, detailBodyPadding, article.DefaultOptions, wrapText)
	m.cache.Add(key, lines)
	return lines
}

func (m Model) overlaySize() (int, int) {
	width := m.width
	if width <= 0 {
		width = 80
	}
	height := m.height
	if height <= 0 {
		height = 24
	}
	return max(20, min(overlayMaxWidth, width-2*overlayMargin)), max(6, height-2*overlayMargin)
}

func (m Model) overlayBounds() (int, int, int, int) {
	w, h := m.overlaySize()
	return tuiview.OverlayBounds(w, h, m.width, m.height)
}

func (m Model) View() string {
	if m.detailOpen() {
		w, h := m.overlaySize()
		box := m.theme.Overlay.
			Width(w - m.theme.Overlay.GetHorizontalBorderSize()).
			Height(h - m.theme.Overlay.GetVerticalBorderSize()).
			Render(m.detail.View())
		return tuiview.Overlay(box, m.width, m.height)
	}
	return m.listView()
}

func (m Model) listView() string {
	snap := m.vm.Snapshot()
	var b strings.Builder

	summary := ""
	if snap.Status.Kind == viewmodel.StatusReady {
		summary = tuiview.ShowingSummary(len(snap.VisiblePosts), snap.CanonicalCount)
	}
	b.WriteString(tuiview.Header(m.pill, summary, m.theme))
	b.WriteString("\n")
	b.WriteString(m.theme.MetaLabel.Render(tuiview.Toolbar(false, m.search.Focused())))
	b.WriteString("\n\n")
	b.WriteString(m.search.View())
	b.WriteString("\n")
	b.WriteString(tuiview.TagBar(snap.Vocabulary, snap.Counts, snap.Filter.Tag, m.width, m.theme))
	b.WriteString("\n\n")

	switch {
	case snap.Status.Kind == viewmodel.StatusFailed:
		b.WriteString(tuiview.FailurePanel(snap.ErrorReason(), m.width, m.theme))
		b.WriteString("\n")
	case snap.Status.Kind == viewmodel.StatusLoading && snap.CanonicalCount == 0:
		b.WriteString(tuiview.LoadingPanel(m.spinner.View(), m.width, m.theme))
		b.WriteString("\n")
	case snap.Status.Kind == viewmodel.StatusIdle:
	case snap.Empty():
		b.WriteString(tuiview.EmptyPanel(m.width, m.theme))
		b.WriteString("\n")
	case snap.NoMatches():
		b.WriteString(tuiview.NoMatchesPanel(m.width, m.theme))
		b.WriteString("\n")
	default:
		b.WriteString(m.listBody(snap.VisiblePosts))
	}

	b.WriteString("\n")
	b.WriteString(tuiview.StateMessage(m.stateLabel(snap.Status), m.statusLine(), m.theme))
	b.WriteString("\n")
	b.WriteString(tuiview.Footer(m.offset, m.limit, snap.Filter.SearchText, snap.Filter.Tag, m.theme))
	b.WriteString("\n")
	return b.String()
}

func (m Model) listBody(posts content.Collection) string {
	cursor := tuistate.ClampCursor(m.cursor, len(posts))
	start, end := tuistate.CenteredWindow(len(posts), cursor, m.listHeight()/m.rowsPerPost())
	width := m.width
	if width <= 0 {
		width = 80
	}
	now := m.nowFn()
	return tuiview.RenderListBody(posts, start, end, func(i int) string {
		p := tuiview.PostLineParams{
			Post:         posts[i],
			Now:          now,
			RelativeTime: m.relativeTime,
			Active:       i == cursor,
			Width:        width,
		}
		if m.excerpts {
			p.Excerpt = article.Excerpt(posts[i], excerptLength)
		}
		return tuiview.RenderPostLine(p, m.theme)
	})
}

func (m Model) rowsPerPost() int {
	if m.excerpts {
		return 2
	}
	return 1
}

// listHeight is the rows left for posts after the fixed chrome.
func (m Model) listHeight() int {
	if m.height <= 0 {
		return 0
	}
	chrome := lipgloss.Height(m.search.View()) + 9
	return max(3, m.height-chrome)
}

func (m Model) stateLabel(status viewmodel.LoadStatus) string {
	return strings.ToLower(status.Kind.String())
}

func (m Model) statusLine() string {
	if m.status != "" {
		return m.status
	}
	if m.vm.Status().Kind == viewmodel.StatusLoading {
		return m.spinner.View() + " Loading posts..."
	}
	if m.vm.Status().Kind == viewmodel.StatusFailed {
		return m.vm.Status().Reason
	}
	if m.lastLoad > 0 {
		return fmt.Sprintf("Loaded in %s", m.lastLoad.Round(time.Millisecond))
	}
	return ""
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}
	lines := make([]string, 0, len(words)/4+1)
	line := words[0]
	for _, w := range words[1:] {
		if len([]rune(line))+1+len([]rune(w)) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
