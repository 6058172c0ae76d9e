package wiki

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// mwTimestampLayout is the compact form MediaWiki accepts for basetimestamp
// and starttimestamp.
const mwTimestampLayout = "20060102150405"

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key].(float64); ok {
		return int(v)
	}
	return 0
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return nil
}

func getSlice(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key].([]interface{}); ok {
		return v
	}
	return nil
}

func getStrings(m map[string]interface{}, key string) []string {
	raw := getSlice(m, key)
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func hasKey(m map[string]interface{}, key string) bool {
	_, ok := m[key]
	return ok
}

// parseTimestamp parses an ISO-8601 API timestamp. Empty or malformed input
// yields the zero time.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// formatTimestamp renders t as YYYYMMDDHHMMSS in UTC
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(mwTimestampLayout)
}

// StripNamespace removes the namespace prefix from a title: "Talk:Foo/Bar"
// becomes "Foo/Bar". A leading colon is dropped first.
func StripNamespace(title string) string {
	title = strings.TrimPrefix(title, ":")
	if i := strings.Index(title, ":"); i >= 0 {
		return title[i+1:]
	}
	return title
}

// NormalizeTitle converts a title to its canonical URL form: trimmed, no
// leading colon, first letter upper-cased, spaces replaced by underscores.
func NormalizeTitle(title string) string {
	title = strings.TrimSpace(title)
	title = strings.TrimPrefix(title, ":")
	if title == "" {
		return title
	}
	r, size := utf8.DecodeRuneInString(title)
	title = string(unicode.ToUpper(r)) + title[size:]
	return strings.ReplaceAll(title, " ", "_")
}

// baseSegment returns the part of a title before the first "/"
func baseSegment(title string) string {
	if i := strings.Index(title, "/"); i >= 0 {
		return title[:i]
	}
	return title
}
