package wiki

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strconv"
	"time"
)

// Protection is one entry of a page's protection record
type Protection struct {
	Level  string `json:"level"`
	Expiry string `json:"expiry"`
}

// PropertyGroup asks for an extra prop module alongside "info" when a page is
// constructed. Params are sent in order.
type PropertyGroup struct {
	Name   string  // prop module, e.g. "categories"
	Params []Param // module parameters, e.g. {"clshow", "!hidden"}
}

// Param is a single query parameter
type Param struct {
	Key   string
	Value string
}

// Page is the client-side state of one wiki page: its identity, metadata,
// protection, and the timestamps used to guard edits against conflicts.
//
// A Page is not safe for concurrent mutation. Run at most one write at a time
// per Page; concurrent Text calls are safe only once the text is cached.
type Page struct {
	site Session
	info map[string]interface{}

	name      string
	namespace int
	pageTitle string
	baseTitle string
	baseName  string

	touched          time.Time
	revision         int
	exists           bool
	length           *int
	protection       map[string]Protection
	redirect         bool
	pageID           int
	contentModel     string
	pageLanguage     string
	restrictionTypes []string

	// Optimistic concurrency markers; zero means unset
	lastRevTime time.Time
	editTime    time.Time

	textCache map[textCacheKey]string
}

// NewPage fetches page info for title and builds a Page from it
func NewPage(ctx context.Context, site Session, title string, props ...PropertyGroup) (*Page, error) {
	info, err := fetchInfo(ctx, site, "titles", title, props)
	if err != nil {
		return nil, err
	}
	if !hasKey(info, "title") {
		info["title"] = title
	}
	return PageFromInfo(site, info)
}

// NewPageByID fetches page info for a page ID and builds a Page from it
func NewPageByID(ctx context.Context, site Session, id int, props ...PropertyGroup) (*Page, error) {
	info, err := fetchInfo(ctx, site, "pageids", strconv.Itoa(id), props)
	if err != nil {
		return nil, err
	}
	return PageFromInfo(site, info)
}

// fetchInfo runs the prop=info query and unwraps the single page entry
func fetchInfo(ctx context.Context, site Session, selector, value string, props []PropertyGroup) (map[string]interface{}, error) {
	prop := "info"
	for _, g := range props {
		prop += "|" + g.Name
	}

	params := url.Values{}
	params.Set("prop", prop)
	params.Set(selector, value)
	params.Set("inprop", "protection")
	for _, g := range props {
		for _, p := range g.Params {
			params.Add(p.Key, p.Value)
		}
	}

	resp, err := site.Get(ctx, "query", params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page info for %s=%s: %w", selector, value, err)
	}

	pages := getMap(getMap(resp, "query"), "pages")
	for _, v := range pages {
		if info, ok := v.(map[string]interface{}); ok {
			return info, nil
		}
	}
	return nil, fmt.Errorf("no page returned for %s=%s", selector, value)
}

// PageFromInfo builds a Page from an already fetched info record without any
// network call
func PageFromInfo(site Session, info map[string]interface{}) (*Page, error) {
	if hasKey(info, "invalid") {
		return nil, &InvalidPageTitleError{
			Title:  getString(info, "title"),
			Reason: getString(info, "invalidreason"),
		}
	}

	p := &Page{
		site:      site,
		info:      info,
		textCache: make(map[textCacheKey]string),
	}

	p.namespace = getInt(info, "ns")
	p.name = getString(info, "title")
	if p.namespace != 0 {
		p.pageTitle = StripNamespace(p.name)
	} else {
		p.pageTitle = p.name
	}
	p.baseTitle = baseSegment(p.pageTitle)
	p.baseName = baseSegment(p.name)

	p.touched = parseTimestamp(getString(info, "touched"))
	p.revision = getInt(info, "lastrevid")
	p.exists = !hasKey(info, "missing")
	if v, ok := info["length"].(float64); ok {
		n := int(v)
		p.length = &n
	}
	p.protection = parseProtection(getSlice(info, "protection"))
	p.redirect = hasKey(info, "redirect")
	p.pageID = getInt(info, "pageid")
	p.contentModel = getString(info, "contentmodel")
	p.pageLanguage = getString(info, "pagelanguage")
	p.restrictionTypes = getStrings(info, "restrictiontypes")

	return p, nil
}

func parseProtection(entries []interface{}) map[string]Protection {
	protection := make(map[string]Protection, len(entries))
	for _, e := range entries {
		m, ok := e.(map[string]interface{})
		if !ok || len(m) == 0 {
			continue
		}
		protection[getString(m, "type")] = Protection{
			Level:  getString(m, "level"),
			Expiry: getString(m, "expiry"),
		}
	}
	return protection
}

// Clone returns an independent copy of the page without any network call.
// The copy shares the Session but not the cache or protection map.
func (p *Page) Clone() *Page {
	c := *p
	c.info = maps.Clone(p.info)
	c.protection = maps.Clone(p.protection)
	c.restrictionTypes = slices.Clone(p.restrictionTypes)
	c.textCache = maps.Clone(p.textCache)
	if c.textCache == nil {
		c.textCache = make(map[textCacheKey]string)
	}
	if p.length != nil {
		n := *p.length
		c.length = &n
	}
	return &c
}

// Name returns the full page title including namespace
func (p *Page) Name() string { return p.name }

// String returns the full page title
func (p *Page) String() string { return p.name }

// Namespace returns the namespace ID; 0 is the main namespace
func (p *Page) Namespace() int { return p.namespace }

// PageTitle returns the title without its namespace prefix
func (p *Page) PageTitle() string { return p.pageTitle }

// BaseTitle returns PageTitle up to the first "/"
func (p *Page) BaseTitle() string { return p.baseTitle }

// BaseName returns Name up to the first "/"
func (p *Page) BaseName() string { return p.baseName }

func (p *Page) Touched() time.Time { return p.touched }
func (p *Page) Revision() int { return p.revision }
func (p *Page) Exists() bool { return p.exists }
func (p *Page) IsRedirect() bool { return p.redirect }
func (p *Page) PageID() int { return p.pageID }
func (p *Page) ContentModel() string { return p.contentModel }
func (p *Page) PageLanguage() string { return p.pageLanguage }
func (p *Page) RestrictionTypes() []string { return slices.Clone(p.restrictionTypes) }
func (p *Page) Session() Session { return p.site }
func (p *Page) Info() map[string]interface{} { return p.info }

// Length returns the content length in bytes, if the wiki reported one
func (p *Page) Length() (int, bool) {
	if p.length == nil {
		return 0, false
	}
	return *p.length, true
}

// Protection returns a copy of the page's protection record
func (p *Page) Protection() map[string]Protection {
	return maps.Clone(p.protection)
}

// LastRevTime is the timestamp of the last revision read or written, sent
// as basetimestamp on the next edit. Zero when unknown.
func (p *Page) LastRevTime() time.Time { return p.lastRevTime }

// EditTime is when the text was last read for editing, sent as
// starttimestamp on the next edit. Zero when unknown.
func (p *Page) EditTime() time.Time { return p.editTime }

// Can reports whether the session may perform action on this page
func (p *Page) Can(action string) bool {
	return Permits(p.protection, action, p.site.Rights())
}

// RequiredRight returns the user right needed for action under the given
// protection record. With no entry for the action the right is named after
// the action itself, so "move" needs "move". The "sysop" level maps to
// "editprotected".
func RequiredRight(protection map[string]Protection, action string) string {
	level := action
	if entry, ok := protection[action]; ok {
		level = entry.Level
	}
	if level == "sysop" {
		return "editprotected"
	}
	return level
}

// Permits reports whether rights include the right action requires
func Permits(protection map[string]Protection, action string, rights []string) bool {
	return slices.Contains(rights, RequiredRight(protection, action))
}
