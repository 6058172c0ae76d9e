package wiki

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClassifyEditError(t *testing.T) {
	tests := []struct {
		code string
		want string // concrete error type
	}{
		{"editconflict", "*wiki.EditError"},
		{"protectedpage", "*wiki.ProtectedPageError"},
		{"cascadeprotected", "*wiki.ProtectedPageError"},
		{"protectedtitle", "*wiki.ProtectedPageError"},
		{"cantcreate-anon", "*wiki.ProtectedPageError"},
		{"noedit", "*wiki.ProtectedPageError"},
		{"protectednamespace-interface", "*wiki.ProtectedPageError"},
		{"customcssjsprotected", "*wiki.ProtectedPageError"},
		{"assertuserfailed", "*wiki.AssertUserFailedError"},
		{"badtoken", "*wiki.APIError"},
		{"spamblacklist", "*wiki.APIError"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := classifyEditError(&APIError{Code: tt.code, Info: "info"}, "Sandbox", "summary")
			if got := fmt.Sprintf("%T", err); got != tt.want {
				t.Errorf("classifyEditError(%s) = %s, want %s", tt.code, got, tt.want)
			}
		})
	}
}

func TestClassifyEditError_CarriesContext(t *testing.T) {
	err := classifyEditError(&APIError{Code: "editconflict", Info: "Edit conflict."}, "Sandbox", "fix typo")

	var editErr *EditError
	if !errors.As(err, &editErr) {
		t.Fatalf("error = %T, want *EditError", err)
	}
	if editErr.Title != "Sandbox" || editErr.Summary != "fix typo" || !editErr.Conflict() {
		t.Errorf("EditError = %+v", editErr)
	}

	err = classifyEditError(&APIError{Code: "protectedpage", Info: "Protected."}, "Main Page", "")
	var prot *ProtectedPageError
	if !errors.As(err, &prot) || prot.Title != "Main Page" || prot.Info != "Protected." {
		t.Errorf("ProtectedPageError = %+v", prot)
	}
}

func TestIsAPIError(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &APIError{Code: "badtoken", Info: "x"})
	if !IsAPIError(err, "badtoken") {
		t.Error("IsAPIError should see through wrapping")
	}
	if IsAPIError(err, "editconflict") {
		t.Error("IsAPIError matched the wrong code")
	}
	if IsAPIError(errors.New("plain"), "badtoken") {
		t.Error("IsAPIError matched a non-API error")
	}
	if IsAPIError(nil, "badtoken") {
		t.Error("IsAPIError matched nil")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains []string
	}{
		{"api", &APIError{Code: "badtoken", Info: "Invalid token"}, []string{"badtoken", "Invalid token"}},
		{"invalid title", &InvalidPageTitleError{Title: "A|B", Reason: "bad char"}, []string{"A|B", "bad char"}},
		{"permission", &InsufficientPermissionError{Title: "Sandbox", Action: "move"}, []string{"move", "Sandbox"}},
		{"assert", &AssertUserFailedError{Info: "not logged in"}, []string{"not logged in", "MEDIAWIKI_USERNAME"}},
		{"blocked", &UserBlockedError{Block: &BlockInfo{By: "Admin", Reason: "vandalism", Expiry: "infinity"}}, []string{"Admin", "vandalism", "infinity"}},
		{"blocked without details", &UserBlockedError{}, []string{"blocked"}},
		{"protected local", &ProtectedPageError{Title: "Main Page"}, []string{"Main Page", "protected"}},
		{"protected remote", &ProtectedPageError{Title: "Main Page", Code: "cascadeprotected", Info: "cascading"}, []string{"cascadeprotected", "cascading"}},
		{"no write api", &NoWriteAPIError{Title: "Sandbox"}, []string{"Sandbox", "write API"}},
		{"edit error info", &EditError{Title: "Sandbox", Summary: "s", Info: "Edit conflict."}, []string{"Sandbox", "Edit conflict."}},
		{"edit error result", &EditError{Title: "Sandbox", Result: map[string]interface{}{"result": "Failure"}}, []string{"Failure"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				if !strings.Contains(msg, want) {
					t.Errorf("Error() = %q, missing %q", msg, want)
				}
			}
		})
	}
}

func TestValidateContentSize(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		max     int
		wantErr bool
	}{
		{"under limit", 100, 1024, false},
		{"at limit", 1024, 1024, false},
		{"over limit", 1025, 1024, true},
		{"disabled", 5 << 20, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContentSize(strings.Repeat("a", tt.size), "Sandbox", "edit content", tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateContentSize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil {
				return
			}
			var tooLarge *ContentTooLargeError
			if !errors.As(err, &tooLarge) {
				t.Fatalf("error = %T, want *ContentTooLargeError", err)
			}
			if tooLarge.ActualSize != tt.size || tooLarge.MaxSize != tt.max || tooLarge.PageTitle != "Sandbox" {
				t.Errorf("ContentTooLargeError = %+v", tooLarge)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{512, "512 bytes"},
		{2048, "2.0 KB"},
		{3 * 1024 * 1024, "3.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
