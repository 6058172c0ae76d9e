package wiki

// PageInfoArgs contains parameters for reading page metadata
type PageInfoArgs struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Page title including namespace, e.g. 'Help:Contents'"`
}

// PageInfoResult is the metadata of a page plus what this session may do to it
type PageInfoResult struct {
	Title        string                `json:"title"`
	PageID       int                   `json:"page_id,omitempty"`
	Namespace    int                   `json:"namespace"`
	Exists       bool                  `json:"exists"`
	Redirect     bool                  `json:"redirect,omitempty"`
	Revision     int                   `json:"revision,omitempty"`
	Touched      string                `json:"touched,omitempty"`
	Length       int                   `json:"length,omitempty"`
	ContentModel string                `json:"content_model,omitempty"`
	Language     string                `json:"language,omitempty"`
	Protection   map[string]Protection `json:"protection,omitempty"`
	CanEdit      bool                  `json:"can_edit"`
	CanMove      bool                  `json:"can_move"`
	CanDelete    bool                  `json:"can_delete"`
}

// PageTextArgs contains parameters for reading page wikitext
type PageTextArgs struct {
	Title           string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
	Section         *int   `json:"section,omitempty" jsonschema_description:"Section number to read (0 is the lead section); omit for the whole page"`
	ExpandTemplates bool   `json:"expand_templates,omitempty" jsonschema_description:"Expand templates in the returned text (default: false)"`
	Slot            string `json:"slot,omitempty" jsonschema_description:"Revision slot (default: main)"`
}

// PageTextResult is the wikitext of a page
type PageTextResult struct {
	Title     string `json:"title"`
	Exists    bool   `json:"exists"`
	Text      string `json:"text"`
	Revision  int    `json:"revision,omitempty"`
	Timestamp string `json:"timestamp,omitempty"` // of the revision read, RFC 3339
}

// EditPageArgs contains parameters for replacing page content
type EditPageArgs struct {
	Title           string `json:"title" jsonschema:"required" jsonschema_description:"Page title; the page is created when it does not exist"`
	Text            string `json:"text" jsonschema:"required" jsonschema_description:"New wikitext for the page or section"`
	Summary         string `json:"summary,omitempty" jsonschema_description:"Edit summary"`
	Minor           bool   `json:"minor,omitempty" jsonschema_description:"Mark as a minor edit"`
	Section         string `json:"section,omitempty" jsonschema_description:"Section number to replace, or 'new' to add a section"`
	DetectConflicts bool   `json:"detect_conflicts,omitempty" jsonschema_description:"Read the page first so the edit fails if someone else changed it in between (default: false)"`
	NoBot           bool   `json:"no_bot,omitempty" jsonschema_description:"Do not flag the edit as a bot edit"`
}

// AppendPageArgs contains parameters for appending to a page
type AppendPageArgs struct {
	Title   string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
	Text    string `json:"text" jsonschema:"required" jsonschema_description:"Wikitext to add to the end of the page or section"`
	Summary string `json:"summary,omitempty" jsonschema_description:"Edit summary"`
	Minor   bool   `json:"minor,omitempty" jsonschema_description:"Mark as a minor edit"`
	Section string `json:"section,omitempty" jsonschema_description:"Section number to append to"`
	NoBot   bool   `json:"no_bot,omitempty" jsonschema_description:"Do not flag the edit as a bot edit"`
}

// PrependPageArgs contains parameters for prepending to a page
type PrependPageArgs struct {
	Title   string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
	Text    string `json:"text" jsonschema:"required" jsonschema_description:"Wikitext to add to the start of the page or section"`
	Summary string `json:"summary,omitempty" jsonschema_description:"Edit summary"`
	Minor   bool   `json:"minor,omitempty" jsonschema_description:"Mark as a minor edit"`
	Section string `json:"section,omitempty" jsonschema_description:"Section number to prepend to"`
	NoBot   bool   `json:"no_bot,omitempty" jsonschema_description:"Do not flag the edit as a bot edit"`
}

// WriteResult is the outcome of an edit, append, or prepend
type WriteResult struct {
	Title        string `json:"title"`
	Result       string `json:"result"`
	PageID       int    `json:"page_id,omitempty"`
	OldRevID     int    `json:"old_revision,omitempty"`
	NewRevID     int    `json:"new_revision,omitempty"`
	NewTimestamp string `json:"new_timestamp,omitempty"`
	NoChange     bool   `json:"no_change,omitempty"`
	Created      bool   `json:"created,omitempty"`
	Message      string `json:"message"`
}

// TouchPageArgs contains parameters for a null edit
type TouchPageArgs struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
}

// TouchPageResult reports whether a null edit was made
type TouchPageResult struct {
	Title   string `json:"title"`
	Exists  bool   `json:"exists"`
	Touched bool   `json:"touched"`
}

// PurgePageArgs contains parameters for purging a page's rendered cache
type PurgePageArgs struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
}

// PurgePageResult reports a purge
type PurgePageResult struct {
	Title  string `json:"title"`
	Purged bool   `json:"purged"`
}

// MovePageArgs contains parameters for renaming a page
type MovePageArgs struct {
	Title      string `json:"title" jsonschema:"required" jsonschema_description:"Current page title"`
	NewTitle   string `json:"new_title" jsonschema:"required" jsonschema_description:"Target page title"`
	Reason     string `json:"reason,omitempty" jsonschema_description:"Reason shown in the move log"`
	LeaveTalk  bool   `json:"leave_talk,omitempty" jsonschema_description:"Do not move the talk page (default: move it)"`
	NoRedirect bool   `json:"no_redirect,omitempty" jsonschema_description:"Do not leave a redirect at the old title"`
}

// MovePageResult is the outcome of a move
type MovePageResult struct {
	From            string `json:"from"`
	To              string `json:"to"`
	TalkFrom        string `json:"talk_from,omitempty"`
	TalkTo          string `json:"talk_to,omitempty"`
	RedirectCreated bool   `json:"redirect_created"`
}

// DeletePageArgs contains parameters for deleting a page
type DeletePageArgs struct {
	Title  string `json:"title" jsonschema:"required" jsonschema_description:"Page title"`
	Reason string `json:"reason,omitempty" jsonschema_description:"Reason shown in the deletion log"`
}

// DeletePageResult is the outcome of a deletion
type DeletePageResult struct {
	Title string `json:"title"`
	LogID int    `json:"log_id,omitempty"`
}

// ResolveRedirectArgs contains parameters for following a redirect
type ResolveRedirectArgs struct {
	Title string `json:"title" jsonschema:"required" jsonschema_description:"Page title that may be a redirect"`
}

// ResolveRedirectResult is where a title leads after one redirect hop
type ResolveRedirectResult struct {
	Title        string `json:"title"`
	Redirect     bool   `json:"redirect"`
	Target       string `json:"target"`
	TargetExists bool   `json:"target_exists"`
}
