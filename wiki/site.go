package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/olgasafonova/wikipage-mcp-server/internal/base"
	"github.com/olgasafonova/wikipage-mcp-server/internal/infra"
	"github.com/olgasafonova/wikipage-mcp-server/metrics"
	"github.com/olgasafonova/wikipage-mcp-server/tracing"
)

// tokenTTL bounds how long a token is reused before it is fetched again. The
// badtoken retry covers tokens that die earlier.
const tokenTTL = 60 * time.Minute

// Site is a MediaWiki API session: HTTP transport, cookies, login state,
// user rights, and a token cache. It implements Session and is safe for
// concurrent use by many Pages.
type Site struct {
	*base.Client

	config *Config
	apiURL *url.URL

	mu       sync.RWMutex
	jar      http.CookieJar
	loggedIn bool
	user     string
	rights   []string
	blocked  *BlockInfo
	writeAPI bool
	version  Version

	tokens *infra.Cache[string]
	dedup  *infra.Deduplicator[string]
}

var _ Session = (*Site)(nil)

// NewSite creates a session for the wiki at cfg.BaseURL. Call Init before
// building pages so rights and the wiki version are known.
func NewSite(cfg *Config, logger *slog.Logger, opts ...base.ClientOption) (*Site, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	apiURL, err := url.Parse(cfg.BaseURL)
	if err != nil || apiURL.Scheme == "" || apiURL.Host == "" {
		return nil, fmt.Errorf("invalid wiki API URL %q", cfg.BaseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = base.DefaultTimeout
	}
	httpClient := base.NewHTTPClient(timeout)
	httpClient.Jar = jar

	breaker := infra.NewCircuitBreaker(
		infra.WithFailureThreshold(cfg.CircuitFailureThreshold),
		infra.WithResetTimeout(cfg.CircuitResetTimeout),
		infra.WithHalfOpenMax(cfg.CircuitHalfOpenMax),
		infra.WithStateChange(func(from, to infra.CircuitState) {
			logger.Warn("Wiki circuit breaker changed state", "from", from.String(), "to", to.String())
			metrics.RecordCircuitTransition(from.String(), to.String(), int(to))
		}),
	)

	baseOpts := []base.ClientOption{
		base.WithHTTPClient(httpClient),
		base.WithLogger(logger),
		base.WithCircuitBreaker(breaker),
		base.WithUserAgent(cfg.UserAgent),
		base.WithMaxConcurrent(cfg.MaxConcurrent),
	}

	s := &Site{
		Client:   base.NewClient(append(baseOpts, opts...)...),
		config:   cfg,
		apiURL:   apiURL,
		writeAPI: true,
		tokens:   infra.NewCache[string](64),
		dedup:    infra.NewDeduplicator[string](),
	}

	// A caller-supplied HTTP client still needs somewhere to keep cookies
	if s.HTTPClient.Jar == nil {
		s.HTTPClient.Jar = jar
	}
	s.jar = s.HTTPClient.Jar

	return s, nil
}

// Close releases the token cache
func (s *Site) Close() {
	s.tokens.Close()
}

// Config returns the settings the site was created with
func (s *Site) Config() *Config {
	return s.config
}

// Get performs a read-only API call
func (s *Site) Get(ctx context.Context, action string, params url.Values) (map[string]interface{}, error) {
	return s.call(ctx, http.MethodGet, action, params)
}

// Post performs a state-changing API call. Posts are never retried here.
func (s *Site) Post(ctx context.Context, action string, params url.Values) (map[string]interface{}, error) {
	return s.call(ctx, http.MethodPost, action, params)
}

func (s *Site) call(ctx context.Context, method, action string, params url.Values) (map[string]interface{}, error) {
	ctx, span := tracing.StartSpan(ctx, "wiki.api."+action)
	defer span.End()
	tracing.AddWikiAttributes(span, action, firstNonEmpty(params.Get("title"), params.Get("titles")))

	form := make(url.Values, len(params)+3)
	for k, vs := range params {
		form[k] = vs
	}
	form.Set("action", action)
	form.Set("format", "json")
	form.Set("formatversion", "1")

	reqCfg := base.RequestConfig{
		Method: method,
		URL:    s.config.BaseURL,
		Form:   form,
	}
	if method == http.MethodGet && s.config.MaxRetries > 0 {
		reqCfg.MaxRetry = s.config.MaxRetries
	}

	start := time.Now()
	result, err := s.do(ctx, reqCfg)
	duration := time.Since(start).Seconds()

	if err != nil {
		code := "transport"
		if apiErr, ok := err.(*APIError); ok {
			code = apiErr.Code
		}
		metrics.RecordAPICall(action, duration, false, code)
		tracing.RecordError(span, err)
		return nil, err
	}

	metrics.RecordAPICall(action, duration, true, "")
	return result, nil
}

func (s *Site) do(ctx context.Context, reqCfg base.RequestConfig) (map[string]interface{}, error) {
	resp, err := s.DoRequest(ctx, reqCfg)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if errObj := getMap(result, "error"); errObj != nil {
		return nil, &APIError{
			Code: getString(errObj, "code"),
			Info: getString(errObj, "info"),
		}
	}
	if warnings := getMap(result, "warnings"); warnings != nil {
		s.Logger().Debug("API returned warnings", "action", reqCfg.Form.Get("action"), "warnings", warnings)
	}

	return result, nil
}

// Init loads the wiki version, write API availability, and the current
// user's rights and block state
func (s *Site) Init(ctx context.Context) error {
	params := url.Values{}
	params.Set("meta", "siteinfo|userinfo")
	params.Set("siprop", "general")
	params.Set("uiprop", "rights|blockinfo")

	resp, err := s.Get(ctx, "query", params)
	if err != nil {
		return fmt.Errorf("failed to load site info: %w", err)
	}

	query := getMap(resp, "query")
	general := getMap(query, "general")

	version, err := ParseVersion(getString(general, "generator"))
	if err != nil {
		s.Logger().Warn("Could not determine MediaWiki version", "error", err)
	}

	s.mu.Lock()
	s.version = version
	s.writeAPI = hasKey(general, "writeapi")
	s.mu.Unlock()

	s.applyUserInfo(getMap(query, "userinfo"))

	s.Logger().Info("Connected to wiki",
		"site", getString(general, "sitename"),
		"version", version.String(),
		"user", s.User(),
		"logged_in", s.LoggedIn())
	return nil
}

// refreshUserInfo reloads rights and block state after a login
func (s *Site) refreshUserInfo(ctx context.Context) error {
	params := url.Values{}
	params.Set("meta", "userinfo")
	params.Set("uiprop", "rights|blockinfo")

	resp, err := s.Get(ctx, "query", params)
	if err != nil {
		return fmt.Errorf("failed to load user info: %w", err)
	}
	s.applyUserInfo(getMap(getMap(resp, "query"), "userinfo"))
	return nil
}

func (s *Site) applyUserInfo(ui map[string]interface{}) {
	var block *BlockInfo
	if hasKey(ui, "blockid") {
		block = &BlockInfo{
			ID:     getInt(ui, "blockid"),
			By:     getString(ui, "blockedby"),
			Reason: getString(ui, "blockreason"),
			Expiry: getString(ui, "blockexpiry"),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Anonymous users have id 0 and an "anon" key
	s.loggedIn = getInt(ui, "id") > 0 && !hasKey(ui, "anon")
	s.user = getString(ui, "name")
	s.rights = getStrings(ui, "rights")
	s.blocked = block
}

// Login authenticates with a bot password from the config and reloads the
// user's rights
func (s *Site) Login(ctx context.Context) error {
	if !s.config.HasCredentials() {
		return fmt.Errorf("no credentials configured. Set MEDIAWIKI_USERNAME and MEDIAWIKI_PASSWORD environment variables")
	}

	err := s.login(ctx)
	// A stale bot password session in the jar blocks a new login
	if err != nil && strings.Contains(err.Error(), "BotPasswordSessionProvider") {
		s.Logger().Warn("BotPasswordSessionProvider conflict detected, resetting cookies")
		if resetErr := s.resetCookies(); resetErr != nil {
			return resetErr
		}
		err = s.login(ctx)
	}
	if err != nil {
		return err
	}

	// Tokens issued to the anonymous session are useless now
	s.tokens.DeletePrefix("")

	if err := s.refreshUserInfo(ctx); err != nil {
		return err
	}
	s.Logger().Info("Successfully logged in", "username", s.config.Username)
	return nil
}

func (s *Site) login(ctx context.Context) error {
	loginToken, err := s.fetchToken(ctx, "login", "")
	if err != nil {
		return fmt.Errorf("failed to get login token: %w", err)
	}

	params := url.Values{}
	params.Set("lgname", s.config.Username)
	params.Set("lgpassword", s.config.Password)
	params.Set("lgtoken", loginToken)

	resp, err := s.Post(ctx, "login", params)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("api_error").Inc()
		return fmt.Errorf("login failed: %w", err)
	}

	login := getMap(resp, "login")
	if result := getString(login, "result"); result != "Success" {
		metrics.AuthFailures.WithLabelValues(strings.ToLower(result)).Inc()
		if reason := getString(login, "reason"); reason != "" {
			return fmt.Errorf("login failed: %s - %s", result, reason)
		}
		return fmt.Errorf("login failed: %s", result)
	}
	return nil
}

// resetCookies swaps in an empty cookie jar and forgets the login
func (s *Site) resetCookies() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("failed to create cookie jar: %w", err)
	}

	s.mu.Lock()
	s.jar = jar
	s.HTTPClient.Jar = jar
	s.loggedIn = false
	s.mu.Unlock()

	s.tokens.DeletePrefix("")
	s.Logger().Debug("Cookies reset for fresh login")
	return nil
}

// tokenType maps a write action onto the token the wiki issues for it.
// Since 1.24 edit, move, delete, and protect all use the csrf token.
func tokenType(kind string) string {
	switch kind {
	case "edit", "move", "delete", "protect", "unprotect", "block", "unblock", "import", "email", "options", "csrf":
		return "csrf"
	default:
		return kind
	}
}

// Token returns a token for kind, from the cache unless force is set.
// Concurrent requests for the same token share a single fetch.
func (s *Site) Token(ctx context.Context, kind string, force bool, title string) (string, error) {
	legacy := s.legacyTokens()
	key := tokenType(kind)
	if legacy {
		key = kind + "|" + title
	}

	if !force {
		if token, ok := s.tokens.Get(key); ok {
			metrics.RecordCacheAccess(metrics.CacheToken, true)
			return token, nil
		}
		metrics.RecordCacheAccess(metrics.CacheToken, false)
	}

	token, shared, err := s.dedup.Do(ctx, key, func() (string, error) {
		var token string
		var err error
		if legacy {
			token, err = s.fetchLegacyToken(ctx, kind, title)
		} else {
			token, err = s.fetchToken(ctx, key, title)
		}
		if err != nil {
			return "", err
		}
		s.tokens.Set(key, token, tokenTTL)
		metrics.SetCacheSize(metrics.CacheToken, s.tokens.Size())
		metrics.RecordTokenRefresh(tokenType(kind), force)
		return token, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to get %s token: %w", kind, err)
	}
	if force && !shared {
		s.Logger().Warn("Token refreshed", "type", tokenType(kind), "title", title)
	}
	if shared {
		s.Logger().Debug("Token fetch coalesced", "type", tokenType(kind), "in_flight", s.dedup.InFlight())
	}
	return token, nil
}

// legacyTokens reports whether the wiki predates meta=tokens
func (s *Site) legacyTokens() bool {
	v := s.Version()
	return !v.IsZero() && !v.AtLeast(1, 24)
}

func (s *Site) fetchToken(ctx context.Context, typ, title string) (string, error) {
	params := url.Values{}
	params.Set("meta", "tokens")
	params.Set("type", typ)

	resp, err := s.Get(ctx, "query", params)
	if err != nil {
		return "", err
	}

	token := getString(getMap(getMap(resp, "query"), "tokens"), typ+"token")
	if token == "" {
		return "", fmt.Errorf("no %s token in response", typ)
	}
	return token, nil
}

// fetchLegacyToken asks a pre-1.24 wiki for a per-page token
func (s *Site) fetchLegacyToken(ctx context.Context, kind, title string) (string, error) {
	params := url.Values{}
	params.Set("prop", "info")
	params.Set("intoken", kind)
	params.Set("titles", title)

	resp, err := s.Get(ctx, "query", params)
	if err != nil {
		return "", err
	}

	for _, v := range getMap(getMap(resp, "query"), "pages") {
		if page, ok := v.(map[string]interface{}); ok {
			if token := getString(page, kind+"token"); token != "" {
				return token, nil
			}
		}
	}
	return "", fmt.Errorf("no %s token in response", kind)
}

// ExpandTemplates expands all templates in text as if it were on page title
func (s *Site) ExpandTemplates(ctx context.Context, text, title string) (string, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("title", title)
	params.Set("prop", "wikitext")

	resp, err := s.Post(ctx, "expandtemplates", params)
	if err != nil {
		return "", err
	}

	expanded := getMap(resp, "expandtemplates")
	if hasKey(expanded, "wikitext") {
		return getString(expanded, "wikitext"), nil
	}
	return getString(expanded, "*"), nil
}

// Cookies returns the cookies the jar holds for the API URL
func (s *Site) Cookies() []*http.Cookie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.jar.Cookies(s.apiURL)
}

// SetCookies stores cookies for the API URL; MaxAge < 0 removes one. The jar
// only removes an entry whose domain and path match, and Cookies reports
// neither, so a removal without Path and Domain is sent for every path prefix
// of the API URL and every parent domain of its host.
func (s *Site) SetCookies(cookies []*http.Cookie) {
	var out []*http.Cookie
	for _, c := range cookies {
		if c.MaxAge >= 0 || c.Path != "" || c.Domain != "" {
			out = append(out, c)
			continue
		}
		for _, domain := range cookieDomains(s.apiURL.Hostname()) {
			for _, path := range cookiePaths(s.apiURL.Path) {
				e := *c
				e.Domain = domain
				e.Path = path
				out = append(out, &e)
			}
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	s.jar.SetCookies(s.apiURL, out)
}

// cookiePaths lists "/" and each path prefix of p, shortest first
func cookiePaths(p string) []string {
	paths := []string{"/"}
	for i := 1; i < len(p); i++ {
		if p[i] == '/' {
			paths = append(paths, p[:i])
		}
	}
	if p != "" && p != "/" && !strings.HasSuffix(p, "/") {
		paths = append(paths, p)
	}
	return paths
}

// cookieDomains lists the host itself ("" for a host-only cookie) and each
// parent domain with at least two labels. IP hosts have no parents.
func cookieDomains(host string) []string {
	domains := []string{""}
	if host == "" || net.ParseIP(host) != nil {
		return domains
	}
	labels := strings.Split(host, ".")
	for i := 1; i < len(labels)-1; i++ {
		domains = append(domains, strings.Join(labels[i:], "."))
	}
	return domains
}

func (s *Site) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loggedIn
}

func (s *Site) ForceLogin() bool { return s.config.ForceLogin }

func (s *Site) Blocked() *BlockInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocked
}

func (s *Site) WriteAPI() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writeAPI
}

// Rights returns a copy of the current user's rights
func (s *Site) Rights() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.rights...)
}

func (s *Site) Version() Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// User returns the current user name; anonymous sessions report their IP
func (s *Site) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Logger returns the site's structured logger. It shadows the embedded
// base.Client field so *Site satisfies Session.
func (s *Site) Logger() *slog.Logger {
	return s.Client.Logger
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
