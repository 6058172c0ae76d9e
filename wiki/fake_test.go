package wiki

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"testing"
)

// apiCall is one recorded Get or Post
type apiCall struct {
	action string
	params url.Values
}

// tokenCall is one recorded Token request
type tokenCall struct {
	kind  string
	force bool
	title string
}

// fakeSession is an in-memory Session. Responses come from the get and post
// hooks; every call is recorded for assertions.
type fakeSession struct {
	mu sync.Mutex

	loggedIn   bool
	forceLogin bool
	writeAPI   bool
	blocked    *BlockInfo
	rights     []string
	version    Version
	cookies    []*http.Cookie
	logger     *slog.Logger

	get    func(action string, params url.Values) (map[string]interface{}, error)
	post   func(action string, params url.Values) (map[string]interface{}, error)
	expand func(text, title string) (string, error)

	tokenErr error

	gets       []apiCall
	posts      []apiCall
	tokenCalls []tokenCall
	setCookies [][]*http.Cookie
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		loggedIn: true,
		writeAPI: true,
		rights:   []string{"read", "edit", "move", "delete"},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func (f *fakeSession) Get(_ context.Context, action string, params url.Values) (map[string]interface{}, error) {
	f.mu.Lock()
	f.gets = append(f.gets, apiCall{action: action, params: params})
	f.mu.Unlock()
	if f.get == nil {
		return nil, fmt.Errorf("unexpected GET %s", action)
	}
	return f.get(action, params)
}

func (f *fakeSession) Post(_ context.Context, action string, params url.Values) (map[string]interface{}, error) {
	f.mu.Lock()
	f.posts = append(f.posts, apiCall{action: action, params: params})
	f.mu.Unlock()
	if f.post == nil {
		return nil, fmt.Errorf("unexpected POST %s", action)
	}
	return f.post(action, params)
}

// Token hands out "cached-token" normally and "fresh-token" when forced
func (f *fakeSession) Token(_ context.Context, kind string, force bool, title string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokenCalls = append(f.tokenCalls, tokenCall{kind: kind, force: force, title: title})
	if f.tokenErr != nil {
		return "", f.tokenErr
	}
	if force {
		return "fresh-token", nil
	}
	return "cached-token", nil
}

func (f *fakeSession) ExpandTemplates(_ context.Context, text, title string) (string, error) {
	if f.expand == nil {
		return "", fmt.Errorf("unexpected expandtemplates")
	}
	return f.expand(text, title)
}

func (f *fakeSession) LoggedIn() bool { return f.loggedIn }
func (f *fakeSession) ForceLogin() bool { return f.forceLogin }
func (f *fakeSession) Blocked() *BlockInfo { return f.blocked }
func (f *fakeSession) WriteAPI() bool { return f.writeAPI }
func (f *fakeSession) Rights() []string { return f.rights }
func (f *fakeSession) Version() Version { return f.version }
func (f *fakeSession) Logger() *slog.Logger { return f.logger }

func (f *fakeSession) Cookies() []*http.Cookie {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cookies
}

func (f *fakeSession) SetCookies(cookies []*http.Cookie) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCookies = append(f.setCookies, cookies)
}

func (f *fakeSession) postCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts)
}

func (f *fakeSession) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gets)
}

// pagesResponse wraps page records the way prop=info and prop=revisions do
func pagesResponse(pages ...map[string]interface{}) map[string]interface{} {
	byID := make(map[string]interface{}, len(pages))
	for i, p := range pages {
		id := fmt.Sprintf("%d", i+1)
		if pid, ok := p["pageid"].(float64); ok {
			id = fmt.Sprintf("%d", int(pid))
		}
		byID[id] = p
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"pages": byID},
	}
}

// revisionResponse is a prop=revisions response with one main-slot revision
func revisionResponse(content, timestamp string) map[string]interface{} {
	return pagesResponse(map[string]interface{}{
		"pageid": float64(42),
		"title":  "Sandbox",
		"revisions": []interface{}{
			map[string]interface{}{
				"timestamp": timestamp,
				"slots": map[string]interface{}{
					"main": map[string]interface{}{"*": content},
				},
			},
		},
	})
}

// successEdit is an edit response reporting a new revision
func successEdit(newTimestamp string) map[string]interface{} {
	return map[string]interface{}{
		"edit": map[string]interface{}{
			"result":       "Success",
			"pageid":       float64(42),
			"title":        "Sandbox",
			"oldrevid":     float64(100),
			"newrevid":     float64(101),
			"newtimestamp": newTimestamp,
		},
	}
}

// existingInfo is the info record of an unprotected existing page
func existingInfo(title string) map[string]interface{} {
	return map[string]interface{}{
		"pageid":     float64(42),
		"ns":         float64(0),
		"title":      title,
		"touched":    "2023-06-01T10:00:00Z",
		"lastrevid":  float64(100),
		"length":     float64(120),
		"protection": []interface{}{},
	}
}

// newTestPage builds a Page from info without touching the fake's call log
func newTestPage(t *testing.T, site Session, info map[string]interface{}) *Page {
	t.Helper()
	p, err := PageFromInfo(site, info)
	if err != nil {
		t.Fatalf("PageFromInfo() error = %v", err)
	}
	return p
}
