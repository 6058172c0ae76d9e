package wiki

import (
	"context"
	"fmt"
	"net/url"

	"github.com/olgasafonova/wikipage-mcp-server/metrics"
	"github.com/olgasafonova/wikipage-mcp-server/tracing"
)

// MoveOptions configures Move
type MoveOptions struct {
	Reason     string
	LeaveTalk  bool // do not move the talk page along with the page
	NoRedirect bool // do not leave a redirect behind
}

// MoveResult is the "move" object of a move response
type MoveResult struct {
	From            string                 `json:"from"`
	To              string                 `json:"to"`
	Reason          string                 `json:"reason,omitempty"`
	TalkFrom        string                 `json:"talkfrom,omitempty"`
	TalkTo          string                 `json:"talkto,omitempty"`
	RedirectCreated bool                   `json:"redirect_created"`
	Raw             map[string]interface{} `json:"-"`
}

// DeleteOptions configures Delete
type DeleteOptions struct {
	Reason   string
	Watch    bool
	Unwatch  bool
	OldImage string // archive name of an old file version to delete instead of the page
}

// DeleteResult is the "delete" object of a delete response
type DeleteResult struct {
	Title  string                 `json:"title"`
	Reason string                 `json:"reason,omitempty"`
	LogID  int                    `json:"logid,omitempty"`
	Raw    map[string]interface{} `json:"-"`
}

// Touch makes a null edit so the wiki re-renders the page and refreshes its
// link tables. A page that does not exist is left alone.
func (p *Page) Touch(ctx context.Context) error {
	if !p.exists {
		return nil
	}
	_, err := p.Append(ctx, "", nil)
	return err
}

// Move renames the page to newTitle. The permission and write API checks run
// before any token is requested.
func (p *Page) Move(ctx context.Context, newTitle string, opts *MoveOptions) (*MoveResult, error) {
	if opts == nil {
		opts = &MoveOptions{}
	}
	if !p.Can("move") {
		return nil, &InsufficientPermissionError{Title: p.name, Action: "move"}
	}
	if !p.site.WriteAPI() {
		return nil, &NoWriteAPIError{Title: p.name}
	}

	ctx, span := tracing.StartSpan(ctx, "wiki.page.move")
	defer span.End()
	tracing.AddWikiAttributes(span, "move", p.name)

	token, err := p.site.Token(ctx, "move", false, p.name)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordEdit("move", false)
		return nil, fmt.Errorf("failed to get move token: %w", err)
	}

	params := url.Values{}
	params.Set("from", p.name)
	params.Set("to", newTitle)
	params.Set("reason", opts.Reason)
	params.Set("token", token)
	if !opts.LeaveTalk {
		params.Set("movetalk", "1")
	}
	if opts.NoRedirect {
		params.Set("noredirect", "1")
	}

	resp, err := p.site.Post(ctx, "move", params)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordEdit("move", false)
		return nil, err
	}

	mv := getMap(resp, "move")
	result := &MoveResult{
		From:            getString(mv, "from"),
		To:              getString(mv, "to"),
		Reason:          getString(mv, "reason"),
		TalkFrom:        getString(mv, "talkfrom"),
		TalkTo:          getString(mv, "talkto"),
		RedirectCreated: hasKey(mv, "redirectcreated"),
		Raw:             mv,
	}
	metrics.RecordEdit("move", true)
	p.site.Logger().Info("Page moved", "from", result.From, "to", result.To)
	return result, nil
}

// Delete removes the page, or a single old file version when opts.OldImage is
// set. The permission and write API checks run before any token is requested.
func (p *Page) Delete(ctx context.Context, opts *DeleteOptions) (*DeleteResult, error) {
	if opts == nil {
		opts = &DeleteOptions{}
	}
	if !p.Can("delete") {
		return nil, &InsufficientPermissionError{Title: p.name, Action: "delete"}
	}
	if !p.site.WriteAPI() {
		return nil, &NoWriteAPIError{Title: p.name}
	}

	ctx, span := tracing.StartSpan(ctx, "wiki.page.delete")
	defer span.End()
	tracing.AddWikiAttributes(span, "delete", p.name)

	token, err := p.site.Token(ctx, "delete", false, p.name)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordEdit("delete", false)
		return nil, fmt.Errorf("failed to get delete token: %w", err)
	}

	params := url.Values{}
	params.Set("title", p.name)
	params.Set("reason", opts.Reason)
	params.Set("token", token)
	if opts.Watch {
		params.Set("watch", "1")
	}
	if opts.Unwatch {
		params.Set("unwatch", "1")
	}
	if opts.OldImage != "" {
		params.Set("oldimage", opts.OldImage)
	}

	resp, err := p.site.Post(ctx, "delete", params)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordEdit("delete", false)
		return nil, err
	}

	del := getMap(resp, "delete")
	result := &DeleteResult{
		Title:  getString(del, "title"),
		Reason: getString(del, "reason"),
		LogID:  getInt(del, "logid"),
		Raw:    del,
	}
	metrics.RecordEdit("delete", true)
	p.site.Logger().Info("Page deleted", "title", p.name, "logid", result.LogID)
	return result, nil
}

// Purge asks the wiki to discard its rendered cache of the page. It needs no
// token and does not touch the local text cache.
func (p *Page) Purge(ctx context.Context) error {
	params := url.Values{}
	params.Set("titles", p.name)

	if _, err := p.site.Post(ctx, "purge", params); err != nil {
		metrics.RecordEdit("purge", false)
		return fmt.Errorf("failed to purge %q: %w", p.name, err)
	}
	metrics.RecordEdit("purge", true)
	p.site.Logger().Debug("Page purged", "title", p.name)
	return nil
}
