package wiki

import (
	"context"
	"fmt"
	"net/url"
)

// RedirectsTo returns the page this one redirects to, or nil when it is not a
// redirect. Only a redirect whose source is exactly this page's title counts.
func (p *Page) RedirectsTo(ctx context.Context) (*Page, error) {
	params := url.Values{}
	params.Set("prop", "pageprops")
	params.Set("titles", p.name)
	params.Set("redirects", "1")

	resp, err := p.site.Get(ctx, "query", params)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve redirect of %q: %w", p.name, err)
	}

	for _, r := range getSlice(getMap(resp, "query"), "redirects") {
		m, ok := r.(map[string]interface{})
		if !ok || getString(m, "from") != p.name {
			continue
		}
		return NewPage(ctx, p.site, getString(m, "to"))
	}
	return nil, nil
}

// ResolveRedirect returns the redirect target, or the page itself when it is
// not a redirect
func (p *Page) ResolveRedirect(ctx context.Context) (*Page, error) {
	target, err := p.RedirectsTo(ctx)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return p, nil
	}
	return target, nil
}
