package tools

// AllTools contains all tool specifications for the wiki page server.
// Tool descriptions follow a structured format for optimal LLM tool selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// READ TOOLS
	// ==========================================================================
	{
		Name:     "wiki_get_page_info",
		Method:   "PageInfo",
		Title:    "Get Page Info",
		Category: "read",
		Description: `Get metadata about a wiki page and what the current session may do to it.

USE WHEN: User asks "does page X exist", "is X protected", "can I edit X", "when was X last touched".

NOT FOR: Reading the page text (use wiki_get_page_text).

PARAMETERS:
- title: Page title including namespace (required)

RETURNS: Existence, page ID, namespace, latest revision, length, content model, protection levels, and can_edit/can_move/can_delete for this session.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_get_page_text",
		Method:   "PageText",
		Title:    "Get Page Text",
		Category: "read",
		Description: `Read the wikitext of a page or one of its sections.

USE WHEN: User says "show me page X", "what does section 2 of X say", "read X with templates expanded".

NOT FOR: Metadata or permissions (use wiki_get_page_info).

PARAMETERS:
- title: Page title (required)
- section: Section number, 0 is the lead (optional, default whole page)
- expand_templates: Expand templates in the returned text (default false)
- slot: Revision slot (default main)

RETURNS: The wikitext, the revision it came from, and its timestamp. A missing page returns empty text with exists=false.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_resolve_redirect",
		Method:   "ResolveRedirect",
		Title:    "Resolve Redirect",
		Category: "read",
		Description: `Follow a redirect one hop to the page it points at.

USE WHEN: User asks "where does X redirect to", "is X a redirect", or before editing a title that may be a redirect.

NOT FOR: Renaming pages (use wiki_move_page).

PARAMETERS:
- title: Page title (required)

RETURNS: Whether the title is a redirect, the target title (the title itself when not a redirect), and whether the target exists.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// WRITE TOOLS
	// ==========================================================================
	{
		Name:     "wiki_edit_page",
		Method:   "EditPage",
		Title:    "Edit Page",
		Category: "write",
		Description: `Replace the content of a page or section, creating the page when it does not exist.

USE WHEN: User says "write X to page Y", "replace section 3 of Y", "create page Y".

NOT FOR: Adding to the end or start of a page (use wiki_append_to_page or wiki_prepend_to_page).

PARAMETERS:
- title: Page title (required)
- text: New wikitext (required)
- summary: Edit summary (optional)
- minor: Mark as minor (default false)
- section: Section number or "new" (optional)
- detect_conflicts: Read first and fail on a concurrent edit (default false)
- no_bot: Do not flag as a bot edit (default false)

RETURNS: New revision ID and timestamp, or no_change for a null edit.

NOTE: Requires write rights. Protected pages fail before any request is sent.`,
		Destructive: true,
		OpenWorld:   true,
	},
	{
		Name:     "wiki_append_to_page",
		Method:   "AppendPage",
		Title:    "Append to Page",
		Category: "write",
		Description: `Add wikitext to the end of a page or section.

USE WHEN: User says "add X to the bottom of Y", "log X on page Y", "append a line to Y".

NOT FOR: Replacing content (use wiki_edit_page).

PARAMETERS:
- title: Page title (required)
- text: Wikitext to append, include a leading newline if needed (required)
- summary: Edit summary (optional)
- minor: Mark as minor (default false)
- section: Section number (optional)
- no_bot: Do not flag as a bot edit (default false)

RETURNS: New revision ID and timestamp.`,
		OpenWorld: true,
	},
	{
		Name:     "wiki_prepend_to_page",
		Method:   "PrependPage",
		Title:    "Prepend to Page",
		Category: "write",
		Description: `Add wikitext to the start of a page or section.

USE WHEN: User says "put X at the top of Y", "add a notice template to Y".

NOT FOR: Replacing content (use wiki_edit_page).

PARAMETERS:
- title: Page title (required)
- text: Wikitext to prepend (required)
- summary: Edit summary (optional)
- minor: Mark as minor (default false)
- section: Section number (optional)
- no_bot: Do not flag as a bot edit (default false)

RETURNS: New revision ID and timestamp.`,
		OpenWorld: true,
	},
	{
		Name:     "wiki_touch_page",
		Method:   "TouchPage",
		Title:    "Touch Page",
		Category: "write",
		Description: `Make a null edit so the wiki re-parses the page and refreshes its links and categories.

USE WHEN: User says "touch X", "null edit X", "X still shows an old category".

NOT FOR: Clearing the rendered cache only (use wiki_purge_page).

PARAMETERS:
- title: Page title (required)

RETURNS: Whether the page exists and whether it was touched. Missing pages are left alone.`,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_purge_page",
		Method:   "PurgePage",
		Title:    "Purge Page",
		Category: "write",
		Description: `Purge the rendered cache of a page.

USE WHEN: User says "purge X", "X shows stale content", "refresh the rendering of X".

NOT FOR: Updating link tables (use wiki_touch_page).

PARAMETERS:
- title: Page title (required)

RETURNS: Whether the purge was accepted.`,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// ADMIN TOOLS
	// ==========================================================================
	{
		Name:     "wiki_move_page",
		Method:   "MovePage",
		Title:    "Move Page",
		Category: "admin",
		Description: `Rename a page, moving its talk page along by default.

USE WHEN: User says "rename X to Y", "move X to Y".

NOT FOR: Finding where a redirect points (use wiki_resolve_redirect).

PARAMETERS:
- title: Current title (required)
- new_title: Target title (required)
- reason: Move log reason (optional)
- leave_talk: Do not move the talk page (default false)
- no_redirect: Do not leave a redirect behind (default false)

RETURNS: Old and new titles, talk page titles when moved, and whether a redirect was left.

NOTE: Requires the move right.`,
		Destructive: true,
		OpenWorld:   true,
	},
	{
		Name:     "wiki_delete_page",
		Method:   "DeletePage",
		Title:    "Delete Page",
		Category: "admin",
		Description: `Delete a page.

USE WHEN: User says "delete X", "remove page X".

NOT FOR: Blanking a page (use wiki_edit_page with empty text).

PARAMETERS:
- title: Page title (required)
- reason: Deletion log reason (optional)

RETURNS: The deleted title and the deletion log ID.

NOTE: Requires the delete right. Cannot be undone through this server.`,
		Destructive: true,
		OpenWorld:   true,
	},
}
