package actions

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/glabrego/postdeck/internal/viewmodel"
)

type FetchDoneMsg struct {
	Result   viewmodel.Result
	Duration time.Duration
}

type URLActionMsg struct {
	Status string
	Opened bool
}

type URLActionErrorMsg struct {
	Err error
}

type ClearStatusMsg struct {
	ID int
}

// FetchCmd runs req off the update loop and reports back with FetchDoneMsg.
func FetchCmd(req viewmodel.Request) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		res := req.Run()
		return FetchDoneMsg{Result: res, Duration: time.Since(start)}
	}
}

func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return URLActionMsg{Status: "Opened link in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return URLActionMsg{Status: "Could not open browser, link copied to clipboard"}
			}
		}
		return URLActionErrorMsg{Err: fmt.Errorf("could not open link or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return URLActionMsg{Status: "Link copied to clipboard"}
			}
		}
		return URLActionErrorMsg{Err: fmt.Errorf("could not copy link to clipboard")}
	}
}

func ClearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return ClearStatusMsg{ID: id}
	})
}
