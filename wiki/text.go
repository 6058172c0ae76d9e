package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/olgasafonova/wikipage-mcp-server/metrics"
)

// DefaultSlot is the revision slot holding a page's main content
const DefaultSlot = "main"

// TextOptions selects what Text returns. A nil *TextOptions means the whole
// page from the main slot, unexpanded, through the cache.
type TextOptions struct {
	Section         *int   // section number; nil for the whole page
	ExpandTemplates bool   // expand templates with a second API call
	NoCache         bool   // bypass and do not fill the text cache
	Slot            string // revision slot, "main" when empty
}

// textCacheKey identifies one shape of text request
type textCacheKey struct {
	section    int
	hasSection bool
	expand     bool
}

func (o *TextOptions) cacheKey() textCacheKey {
	k := textCacheKey{expand: o.ExpandTemplates}
	if o.Section != nil {
		k.section = *o.Section
		k.hasSection = true
	}
	return k
}

// Text returns the page's current wikitext. Reading unexpanded text stamps
// EditTime, making it the start marker for the next edit; every fetch records
// the revision timestamp in LastRevTime.
func (p *Page) Text(ctx context.Context, opts *TextOptions) (string, error) {
	if opts == nil {
		opts = &TextOptions{}
	}
	if !p.Can("read") {
		return "", &InsufficientPermissionError{Title: p.name, Action: "read"}
	}
	if !p.exists {
		return "", nil
	}

	key := opts.cacheKey()
	if !opts.NoCache {
		if text, ok := p.textCache[key]; ok {
			metrics.RecordCacheAccess(metrics.CacheText, true)
			p.site.Logger().Debug("Text cache hit", "title", p.name, "section", key.section, "expand", key.expand)
			return text, nil
		}
		metrics.RecordCacheAccess(metrics.CacheText, false)
	}

	text, err := p.fetchRevisionText(ctx, opts)
	if err != nil {
		return "", err
	}

	if opts.ExpandTemplates {
		text, err = p.site.ExpandTemplates(ctx, text, p.name)
		if err != nil {
			return "", fmt.Errorf("failed to expand templates on %q: %w", p.name, err)
		}
	} else {
		p.editTime = time.Now().UTC()
	}

	if !opts.NoCache {
		p.textCache[key] = text
	}
	return text, nil
}

// fetchRevisionText requests the latest revision's content and timestamp
func (p *Page) fetchRevisionText(ctx context.Context, opts *TextOptions) (string, error) {
	slot := opts.Slot
	if slot == "" {
		slot = DefaultSlot
	}

	params := url.Values{}
	params.Set("prop", "revisions")
	params.Set("titles", p.name)
	params.Set("rvprop", "content|timestamp")
	params.Set("rvlimit", "1")
	params.Set("rvdir", "older")
	if opts.Section != nil {
		params.Set("rvsection", strconv.Itoa(*opts.Section))
	}
	// Slots arrived in 1.32; older wikis reject the parameter
	if p.site.Version().AtLeast(1, 32) {
		params.Set("rvslots", slot)
	}

	resp, err := p.site.Get(ctx, "query", params)
	if err != nil {
		return "", fmt.Errorf("failed to fetch text of %q: %w", p.name, err)
	}

	rev := firstRevision(resp)
	if rev == nil {
		p.lastRevTime = time.Time{}
		return "", nil
	}

	p.lastRevTime = parseTimestamp(getString(rev, "timestamp"))
	return revisionContent(rev, slot), nil
}

// firstRevision returns the first revision of the first page in a
// prop=revisions response
func firstRevision(resp map[string]interface{}) map[string]interface{} {
	for _, v := range getMap(getMap(resp, "query"), "pages") {
		page, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		revs := getSlice(page, "revisions")
		if len(revs) == 0 {
			return nil
		}
		rev, _ := revs[0].(map[string]interface{})
		return rev
	}
	return nil
}

// revisionContent reads content from the slot structure when present and
// falls back to the flat "*" field older wikis return
func revisionContent(rev map[string]interface{}, slot string) string {
	if s := getMap(getMap(rev, "slots"), slot); s != nil {
		if hasKey(s, "*") {
			return getString(s, "*")
		}
		return getString(s, "content")
	}
	return getString(rev, "*")
}
