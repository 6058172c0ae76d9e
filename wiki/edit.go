package wiki

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/olgasafonova/wikipage-mcp-server/metrics"
	"github.com/olgasafonova/wikipage-mcp-server/tracing"
	"go.opentelemetry.io/otel/trace"
)

// EditOptions configures Edit, Append, and Prepend. The zero value makes a
// non-minor bot edit of the whole page with an empty summary.
type EditOptions struct {
	Summary string
	Minor   bool
	NoBot   bool       // do not flag the edit as a bot edit
	Section string     // section number, "new" for a new section; empty for the whole page
	Params  url.Values // extra edit parameters; applied after the built payload and win on conflict
}

// EditResult is the "edit" object of a successful edit response
type EditResult struct {
	Result       string                 `json:"result"`
	PageID       int                    `json:"pageid,omitempty"`
	Title        string                 `json:"title"`
	ContentModel string                 `json:"contentmodel,omitempty"`
	OldRevID     int                    `json:"oldrevid,omitempty"`
	NewRevID     int                    `json:"newrevid,omitempty"`
	NewTimestamp string                 `json:"newtimestamp,omitempty"`
	NoChange     bool                   `json:"nochange,omitempty"`
	New          bool                   `json:"new,omitempty"`
	Raw          map[string]interface{} `json:"-"`
}

func decodeEditResult(edit map[string]interface{}) *EditResult {
	return &EditResult{
		Result:       getString(edit, "result"),
		PageID:       getInt(edit, "pageid"),
		Title:        getString(edit, "title"),
		ContentModel: getString(edit, "contentmodel"),
		OldRevID:     getInt(edit, "oldrevid"),
		NewRevID:     getInt(edit, "newrevid"),
		NewTimestamp: getString(edit, "newtimestamp"),
		NoChange:     hasKey(edit, "nochange"),
		New:          hasKey(edit, "new"),
		Raw:          edit,
	}
}

// Edit replaces the page (or opts.Section) with text
func (p *Page) Edit(ctx context.Context, text string, opts *EditOptions) (*EditResult, error) {
	return p.edit(ctx, "edit", opts, url.Values{"text": {text}})
}

// Save is Edit under the name older callers use
func (p *Page) Save(ctx context.Context, text string, opts *EditOptions) (*EditResult, error) {
	return p.Edit(ctx, text, opts)
}

// Append adds text to the end of the page (or opts.Section)
func (p *Page) Append(ctx context.Context, text string, opts *EditOptions) (*EditResult, error) {
	return p.edit(ctx, "append", opts, url.Values{"appendtext": {text}})
}

// Prepend adds text to the start of the page (or opts.Section)
func (p *Page) Prepend(ctx context.Context, text string, opts *EditOptions) (*EditResult, error) {
	return p.edit(ctx, "prepend", opts, url.Values{"prependtext": {text}})
}

// edit runs the write pipeline shared by Edit, Append, and Prepend: local
// preconditions, payload, token, POST, one retry on badtoken, then the
// post-edit refresh of the page state.
func (p *Page) edit(ctx context.Context, op string, opts *EditOptions, content url.Values) (*EditResult, error) {
	if opts == nil {
		opts = &EditOptions{}
	}
	logger := p.site.Logger()

	if err := p.checkEditable(); err != nil {
		metrics.RecordEdit(op, false)
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "wiki.page."+op)
	defer span.End()
	tracing.AddWikiAttributes(span, "edit", p.name)

	data := p.editPayload(opts, content)
	for _, vs := range content {
		for _, v := range vs {
			metrics.ContentSize.WithLabelValues(op).Observe(float64(len(v)))
		}
	}

	resp, err := p.postEdit(ctx, data, opts.Summary, false)
	if IsAPIError(err, "badtoken") {
		logger.Warn("Edit token rejected, retrying with a fresh token", "title", p.name, "operation", op)
		tracing.AddRetryAttributes(span, 2, "badtoken")
		resp, err = p.postEdit(ctx, data, opts.Summary, true)
		metrics.RecordBadTokenRetry(err == nil)
	}
	if err != nil {
		err = p.editFailure(span, err, opts.Summary)
		metrics.RecordEdit(op, false)
		return nil, err
	}

	edit := getMap(resp, "edit")
	if strings.EqualFold(getString(edit, "result"), "failure") {
		err := &EditError{Title: p.name, Summary: opts.Summary, Result: edit}
		tracing.RecordError(span, err)
		metrics.RecordEdit(op, false)
		return nil, err
	}

	result := decodeEditResult(edit)
	p.afterWrite(result)
	metrics.RecordEdit(op, true)
	logger.Info("Page edited",
		"title", p.name,
		"operation", op,
		"newrevid", result.NewRevID,
		"nochange", result.NoChange)

	return result, nil
}

// checkEditable applies the local preconditions of a write in order. None of
// them touch the network.
func (p *Page) checkEditable() error {
	if !p.site.LoggedIn() && p.site.ForceLogin() {
		return &AssertUserFailedError{}
	}
	if block := p.site.Blocked(); block != nil {
		return &UserBlockedError{Block: block}
	}
	if !p.Can("edit") {
		return &ProtectedPageError{Title: p.name}
	}
	if !p.site.WriteAPI() {
		return &NoWriteAPIError{Title: p.name}
	}
	return nil
}

// editPayload builds the edit parameters other than title, summary and token
func (p *Page) editPayload(opts *EditOptions, content url.Values) url.Values {
	data := url.Values{}
	if opts.Minor {
		data.Set("minor", "1")
	} else {
		data.Set("notminor", "1")
	}
	// Concurrency markers; a write with neither is sent unguarded
	if !p.lastRevTime.IsZero() {
		data.Set("basetimestamp", formatTimestamp(p.lastRevTime))
	}
	if !p.editTime.IsZero() {
		data.Set("starttimestamp", formatTimestamp(p.editTime))
	}
	if !opts.NoBot {
		data.Set("bot", "1")
	}
	if opts.Section != "" {
		data.Set("section", opts.Section)
	}
	for k, vs := range content {
		data[k] = append([]string(nil), vs...)
	}
	for k, vs := range opts.Params {
		data[k] = append([]string(nil), vs...)
	}
	if p.site.ForceLogin() {
		data.Set("assert", "user")
	}
	return data
}

// postEdit sends one edit attempt with a token fetched for it
func (p *Page) postEdit(ctx context.Context, data url.Values, summary string, forceToken bool) (map[string]interface{}, error) {
	token, err := p.site.Token(ctx, "edit", forceToken, p.name)
	if err != nil {
		return nil, err
	}

	params := make(url.Values, len(data)+3)
	for k, vs := range data {
		params[k] = vs
	}
	params.Set("title", p.name)
	params.Set("summary", summary)
	params.Set("token", token)

	return p.site.Post(ctx, "edit", params)
}

// editFailure classifies a failed edit attempt; non-API errors pass through
func (p *Page) editFailure(span trace.Span, err error, summary string) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		err = classifyEditError(apiErr, p.name, summary)
	}
	tracing.RecordError(span, err)
	p.site.Logger().Warn("Edit failed", "title", p.name, "error", err)
	return err
}

// afterWrite refreshes page state after a confirmed edit
func (p *Page) afterWrite(result *EditResult) {
	// A null edit reports no newtimestamp and leaves the marker alone
	if result.NewTimestamp != "" {
		p.lastRevTime = parseTimestamp(result.NewTimestamp)
	}
	if result.NewRevID > 0 {
		p.revision = result.NewRevID
	}
	if result.New {
		p.exists = true
	}
	p.expirePostEditCookies()
	clear(p.textCache)
}

// expirePostEditCookies expires every PostEditRevision cookie. The wiki sets
// one after each edit and serves stale cached content while it is present.
// Path and Domain stay empty so the session removes the cookie wherever the
// wiki scoped it.
func (p *Page) expirePostEditCookies() {
	var expired []*http.Cookie
	for _, c := range p.site.Cookies() {
		if !strings.Contains(c.Name, "PostEditRevision") {
			continue
		}
		expired = append(expired, &http.Cookie{Name: c.Name, MaxAge: -1})
	}
	if len(expired) > 0 {
		p.site.SetCookies(expired)
	}
}
