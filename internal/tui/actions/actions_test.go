package actions

import (
	"context"
	"errors"
	"testing"

	"github.com/glabrego/postdeck/internal/content"
	"github.com/glabrego/postdeck/internal/viewmodel"
)

type fakeFetcher struct {
	posts content.Collection
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(context.Context, int, int) (content.Page, error) {
	f.calls++
	if f.err != nil {
		return content.Page{}, f.err
	}
	return content.Page{Posts: f.posts}, nil
}

func TestFetchCmd_CarriesGeneration(t *testing.T) {
	fetcher := &fakeFetcher{posts: content.Collection{{ID: 1, Title: "One"}}}
	vm := viewmodel.New(fetcher)
	req, ok := vm.Mount(context.Background())
	if !ok {
		t.Fatal("expected mount to issue a request")
	}

	msg, ok := FetchCmd(req)().(FetchDoneMsg)
	if !ok {
		t.Fatalf("expected FetchDoneMsg")
	}
	if msg.Result.Generation != req.Generation {
		t.Fatalf("expected generation %d, got %d", req.Generation, msg.Result.Generation)
	}
	if msg.Result.Err != nil || len(msg.Result.Page.Posts) != 1 {
		t.Fatalf("unexpected result: %+v", msg.Result)
	}
	if !vm.Resolve(msg.Result) {
		t.Fatal("expected result to be applied")
	}
}

func TestFetchCmd_Error(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("offline")}
	vm := viewmodel.New(fetcher)
	req, _ := vm.Mount(context.Background())

	msg := FetchCmd(req)().(FetchDoneMsg)
	if msg.Result.Err == nil {
		t.Fatal("expected fetch error in result")
	}
}

func TestOpenURLCmd_FallsBackToCopy(t *testing.T) {
	var copied string
	open := func(string) error { return errors.New("no browser") }
	copyFn := func(u string) error {
		copied = u
		return nil
	}

	msg, ok := OpenURLCmd("https://example.com/article/1", open, copyFn)().(URLActionMsg)
	if !ok {
		t.Fatal("expected URLActionMsg")
	}
	if msg.Opened {
		t.Fatal("expected fallback to copy")
	}
	if copied != "https://example.com/article/1" {
		t.Fatalf("unexpected copied URL: %q", copied)
	}
}

func TestOpenURLCmd_Opens(t *testing.T) {
	msg := OpenURLCmd("https://example.com", func(string) error { return nil }, nil)().(URLActionMsg)
	if !msg.Opened {
		t.Fatal("expected browser open")
	}
}

func TestOpenURLCmd_BothFail(t *testing.T) {
	fail := func(string) error { return errors.New("nope") }
	if _, ok := OpenURLCmd("https://example.com", fail, fail)().(URLActionErrorMsg); !ok {
		t.Fatal("expected URLActionErrorMsg")
	}
}

func TestCopyURLCmd(t *testing.T) {
	if _, ok := CopyURLCmd("https://example.com", nil)().(URLActionErrorMsg); !ok {
		t.Fatal("expected error without clipboard")
	}
	msg := CopyURLCmd("https://example.com", func(string) error { return nil })().(URLActionMsg)
	if msg.Status == "" {
		t.Fatal("expected status text")
	}
}
