package wiki

import (
	"errors"
	"fmt"
	"strings"
)

// APIError is an error object returned by the MediaWiki API
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error [%s]: %s", e.Code, e.Info)
}

// IsAPIError reports whether err is an *APIError with the given code
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// InvalidPageTitleError means the wiki rejected a title as malformed
type InvalidPageTitleError struct {
	Title  string
	Reason string
}

func (e *InvalidPageTitleError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid page title %q", e.Title)
	}
	return fmt.Sprintf("invalid page title %q: %s", e.Title, e.Reason)
}

// InsufficientPermissionError means the session lacks the right an action needs
type InsufficientPermissionError struct {
	Title  string
	Action string
}

func (e *InsufficientPermissionError) Error() string {
	return fmt.Sprintf(`Insufficient permission to %s "%s"

The logged-in user does not hold the right this action requires on this page.
Check the page protection with wiki_get_page_info, or use an account with
more rights (Special:BotPasswords controls bot grants).`, e.Action, e.Title)
}

// AssertUserFailedError means the wiki requires a logged-in user and the
// session is anonymous or its login has lapsed
type AssertUserFailedError struct {
	Info string
}

func (e *AssertUserFailedError) Error() string {
	msg := "Assertion that the user is logged in failed"
	if e.Info != "" {
		msg += ": " + e.Info
	}
	return msg + `

To fix this:
1. Set MEDIAWIKI_USERNAME and MEDIAWIKI_PASSWORD to a bot password
2. Check that the bot password has not been revoked`
}

// UserBlockedError means the session's user is blocked from editing
type UserBlockedError struct {
	Block *BlockInfo
}

func (e *UserBlockedError) Error() string {
	if e.Block == nil {
		return "user is blocked"
	}
	var sb strings.Builder
	sb.WriteString("User is blocked")
	if e.Block.By != "" {
		sb.WriteString(" by " + e.Block.By)
	}
	if e.Block.Reason != "" {
		sb.WriteString(": " + e.Block.Reason)
	}
	if e.Block.Expiry != "" {
		sb.WriteString(fmt.Sprintf("\nExpiry: %s", e.Block.Expiry))
	}
	return sb.String()
}

// ProtectedPageError means the page cannot be edited by this session. Code and
// Info are set when the wiki reported the refusal; they are empty when the
// refusal came from the local protection check.
type ProtectedPageError struct {
	Title string
	Code  string
	Info  string
}

func (e *ProtectedPageError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("page %q is protected against editing by this user", e.Title)
	}
	return fmt.Sprintf("page %q is protected [%s]: %s", e.Title, e.Code, e.Info)
}

// NoWriteAPIError means the wiki has its write API disabled
type NoWriteAPIError struct {
	Title string
}

func (e *NoWriteAPIError) Error() string {
	return fmt.Sprintf("cannot modify %q: the wiki's write API is disabled", e.Title)
}

// EditError is an edit the wiki refused: an edit conflict or a result of "Failure"
type EditError struct {
	Title   string
	Summary string
	Code    string // "editconflict" for conflicts, empty for a failed result
	Info    string
	Result  map[string]interface{}
}

func (e *EditError) Error() string {
	detail := e.Info
	if detail == "" && e.Result != nil {
		detail = fmt.Sprintf("%v", e.Result)
	}
	return fmt.Sprintf("edit of %q (summary %q) failed: %s", e.Title, e.Summary, detail)
}

// Conflict reports whether the wiki rejected the edit because the page changed
// after the edit's base revision
func (e *EditError) Conflict() bool {
	return e.Code == "editconflict"
}

// ContentTooLargeError indicates content exceeds the configured size limit
type ContentTooLargeError struct {
	ContentType string // "edit content", "append content", ...
	ActualSize  int
	MaxSize     int
	PageTitle   string
}

func (e *ContentTooLargeError) Error() string {
	return fmt.Sprintf(`Content too large: %s is %d bytes (max: %d bytes)

Page: %s
Size: %s / %s

To fix this:
1. Edit a single section with the 'section' parameter
2. Split the content into sub-pages (e.g., "Page/Part1", "Page/Part2")
3. Append the content in several smaller calls`,
		e.ContentType,
		e.ActualSize,
		e.MaxSize,
		e.PageTitle,
		formatBytes(e.ActualSize),
		formatBytes(e.MaxSize),
	)
}

// ValidateContentSize checks if content is within size limits. A maxSize of
// zero or less disables the check.
func ValidateContentSize(content, title, contentType string, maxSize int) error {
	if maxSize > 0 && len(content) > maxSize {
		return &ContentTooLargeError{
			ContentType: contentType,
			ActualSize:  len(content),
			MaxSize:     maxSize,
			PageTitle:   title,
		}
	}
	return nil
}

// formatBytes formats byte count as human-readable string
func formatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

// protectionCodes are API error codes that mean the page is protected
// against this edit
var protectionCodes = map[string]bool{
	"protectedtitle":               true,
	"cantcreate":                   true,
	"cantcreate-anon":              true,
	"noimageredirect-anon":         true,
	"noimageredirect":              true,
	"noedit-anon":                  true,
	"noedit":                       true,
	"protectedpage":                true,
	"cascadeprotected":             true,
	"customcssjsprotected":         true,
	"protectednamespace-interface": true,
	"protectednamespace":           true,
}

// classifyEditError maps a failed edit's API error onto the typed taxonomy.
// Codes it does not know are returned unchanged.
func classifyEditError(apiErr *APIError, title, summary string) error {
	switch {
	case apiErr.Code == "editconflict":
		return &EditError{Title: title, Summary: summary, Code: apiErr.Code, Info: apiErr.Info}
	case protectionCodes[apiErr.Code]:
		return &ProtectedPageError{Title: title, Code: apiErr.Code, Info: apiErr.Info}
	case apiErr.Code == "assertuserfailed":
		return &AssertUserFailedError{Info: apiErr.Info}
	default:
		return apiErr
	}
}
