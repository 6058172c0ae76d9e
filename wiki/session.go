package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
)

// Session is the authenticated transport a Page talks through. *Site is the
// production implementation; it is shared by every Page built from it.
//
// Get and Post return the decoded JSON body of a formatversion=1 response.
// A response carrying an "error" object is returned as *APIError.
type Session interface {
	Get(ctx context.Context, action string, params url.Values) (map[string]interface{}, error)
	Post(ctx context.Context, action string, params url.Values) (map[string]interface{}, error)

	// Token returns a token of the given kind (edit, move, delete, csrf).
	// force skips any cached value. title scopes the request for wikis that
	// still issue per-page tokens.
	Token(ctx context.Context, kind string, force bool, title string) (string, error)

	// ExpandTemplates expands all templates in text as if it were the content
	// of the page title.
	ExpandTemplates(ctx context.Context, text, title string) (string, error)

	LoggedIn() bool
	ForceLogin() bool
	Blocked() *BlockInfo
	WriteAPI() bool
	Rights() []string
	Version() Version

	Cookies() []*http.Cookie
	SetCookies(cookies []*http.Cookie)

	Logger() *slog.Logger
}

// BlockInfo describes an active block on the session's user
type BlockInfo struct {
	ID     int    `json:"id"`
	By     string `json:"by"`
	Reason string `json:"reason"`
	Expiry string `json:"expiry,omitempty"`
}

// Version is a MediaWiki release number
type Version struct {
	Major int
	Minor int
	Patch int
}

var versionRegex = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion extracts the release from a siteinfo generator string such as
// "MediaWiki 1.39.3" or "MediaWiki 1.42.0-wmf.5".
func ParseVersion(generator string) (Version, error) {
	m := versionRegex.FindStringSubmatch(generator)
	if m == nil {
		return Version{}, fmt.Errorf("no version number in generator %q", generator)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch := 0
	if m[3] != "" {
		patch, _ = strconv.Atoi(m[3])
	}
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// AtLeast reports whether v is major.minor or newer. The zero Version is
// older than every release.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

// IsZero reports whether the version is unknown
func (v Version) IsZero() bool {
	return v == Version{}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
