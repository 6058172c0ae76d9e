package wiki

import (
	"context"
	"strings"
	"time"

	apierrors "github.com/olgasafonova/wikipage-mcp-server/internal/errors"
)

// MCP Tool wrapper methods
// Each wrapper builds a fresh Page from the live wiki and runs one operation on it.

// page validates a title argument and loads the page
func (s *Site) page(ctx context.Context, title string) (*Page, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierrors.Required("title")
	}
	return NewPage(ctx, s, title)
}

// PageInfoMCP is the MCP wrapper for NewPage
func (s *Site) PageInfoMCP(ctx context.Context, args PageInfoArgs) (PageInfoResult, error) {
	p, err := s.page(ctx, args.Title)
	if err != nil {
		return PageInfoResult{}, err
	}

	result := PageInfoResult{
		Title:        p.Name(),
		PageID:       p.PageID(),
		Namespace:    p.Namespace(),
		Exists:       p.Exists(),
		Redirect:     p.IsRedirect(),
		Revision:     p.Revision(),
		ContentModel: p.ContentModel(),
		Language:     p.PageLanguage(),
		Protection:   p.Protection(),
		CanEdit:      p.Can("edit"),
		CanMove:      p.Can("move"),
		CanDelete:    p.Can("delete"),
	}
	if !p.Touched().IsZero() {
		result.Touched = p.Touched().Format(time.RFC3339)
	}
	if n, ok := p.Length(); ok {
		result.Length = n
	}
	return result, nil
}

// PageTextMCP is the MCP wrapper for Text
func (s *Site) PageTextMCP(ctx context.Context, args PageTextArgs) (PageTextResult, error) {
	if args.Section != nil && *args.Section < 0 {
		return PageTextResult{}, apierrors.NewValidationError("section", "", "must not be negative")
	}

	p, err := s.page(ctx, args.Title)
	if err != nil {
		return PageTextResult{}, err
	}

	text, err := p.Text(ctx, &TextOptions{
		Section:         args.Section,
		ExpandTemplates: args.ExpandTemplates,
		Slot:            args.Slot,
	})
	if err != nil {
		return PageTextResult{}, err
	}

	result := PageTextResult{
		Title:    p.Name(),
		Exists:   p.Exists(),
		Text:     text,
		Revision: p.Revision(),
	}
	if !p.LastRevTime().IsZero() {
		result.Timestamp = p.LastRevTime().Format(time.RFC3339)
	}
	return result, nil
}

// EditPageMCP is the MCP wrapper for Edit. With DetectConflicts the page is
// read first so the edit carries base and start timestamps.
func (s *Site) EditPageMCP(ctx context.Context, args EditPageArgs) (WriteResult, error) {
	if err := ValidateContentSize(args.Text, args.Title, "edit content", s.config.MaxEditSize); err != nil {
		return WriteResult{}, err
	}

	p, err := s.page(ctx, args.Title)
	if err != nil {
		return WriteResult{}, err
	}

	if args.DetectConflicts {
		if _, err := p.Text(ctx, &TextOptions{NoCache: true}); err != nil {
			return WriteResult{}, err
		}
	}

	res, err := p.Edit(ctx, args.Text, &EditOptions{
		Summary: args.Summary,
		Minor:   args.Minor,
		NoBot:   args.NoBot,
		Section: args.Section,
	})
	if err != nil {
		return WriteResult{}, err
	}
	return toWriteResult(p, res), nil
}

// AppendPageMCP is the MCP wrapper for Append
func (s *Site) AppendPageMCP(ctx context.Context, args AppendPageArgs) (WriteResult, error) {
	if err := ValidateContentSize(args.Text, args.Title, "append content", s.config.MaxEditSize); err != nil {
		return WriteResult{}, err
	}

	p, err := s.page(ctx, args.Title)
	if err != nil {
		return WriteResult{}, err
	}

	res, err := p.Append(ctx, args.Text, &EditOptions{
		Summary: args.Summary,
		Minor:   args.Minor,
		NoBot:   args.NoBot,
		Section: args.Section,
	})
	if err != nil {
		return WriteResult{}, err
	}
	return toWriteResult(p, res), nil
}

// PrependPageMCP is the MCP wrapper for Prepend
func (s *Site) PrependPageMCP(ctx context.Context, args PrependPageArgs) (WriteResult, error) {
	if err := ValidateContentSize(args.Text, args.Title, "prepend content", s.config.MaxEditSize); err != nil {
		return WriteResult{}, err
	}

	p, err := s.page(ctx, args.Title)
	if err != nil {
		return WriteResult{}, err
	}

	res, err := p.Prepend(ctx, args.Text, &EditOptions{
		Summary: args.Summary,
		Minor:   args.Minor,
		NoBot:   args.NoBot,
		Section: args.Section,
	})
	if err != nil {
		return WriteResult{}, err
	}
	return toWriteResult(p, res), nil
}

func toWriteResult(p *Page, res *EditResult) WriteResult {
	msg := "Page edited"
	switch {
	case res.New:
		msg = "Page created"
	case res.NoChange:
		msg = "No change: the content was identical"
	}
	return WriteResult{
		Title:        p.Name(),
		Result:       res.Result,
		PageID:       res.PageID,
		OldRevID:     res.OldRevID,
		NewRevID:     res.NewRevID,
		NewTimestamp: res.NewTimestamp,
		NoChange:     res.NoChange,
		Created:      res.New,
		Message:      msg,
	}
}

// TouchPageMCP is the MCP wrapper for Touch
func (s *Site) TouchPageMCP(ctx context.Context, args TouchPageArgs) (TouchPageResult, error) {
	p, err := s.page(ctx, args.Title)
	if err != nil {
		return TouchPageResult{}, err
	}
	if err := p.Touch(ctx); err != nil {
		return TouchPageResult{}, err
	}
	return TouchPageResult{
		Title:   p.Name(),
		Exists:  p.Exists(),
		Touched: p.Exists(),
	}, nil
}

// PurgePageMCP is the MCP wrapper for Purge
func (s *Site) PurgePageMCP(ctx context.Context, args PurgePageArgs) (PurgePageResult, error) {
	p, err := s.page(ctx, args.Title)
	if err != nil {
		return PurgePageResult{}, err
	}
	if err := p.Purge(ctx); err != nil {
		return PurgePageResult{}, err
	}
	return PurgePageResult{Title: p.Name(), Purged: true}, nil
}

// MovePageMCP is the MCP wrapper for Move
func (s *Site) MovePageMCP(ctx context.Context, args MovePageArgs) (MovePageResult, error) {
	newTitle := strings.TrimSpace(args.NewTitle)
	if newTitle == "" {
		return MovePageResult{}, apierrors.Required("new_title")
	}
	if NormalizeTitle(newTitle) == NormalizeTitle(args.Title) {
		return MovePageResult{}, apierrors.NewValidationError("new_title", newTitle, "must differ from title")
	}

	p, err := s.page(ctx, args.Title)
	if err != nil {
		return MovePageResult{}, err
	}
	if !p.Exists() {
		return MovePageResult{}, apierrors.NewPageNotFoundError(p.Name())
	}

	res, err := p.Move(ctx, newTitle, &MoveOptions{
		Reason:     args.Reason,
		LeaveTalk:  args.LeaveTalk,
		NoRedirect: args.NoRedirect,
	})
	if err != nil {
		return MovePageResult{}, err
	}
	return MovePageResult{
		From:            res.From,
		To:              res.To,
		TalkFrom:        res.TalkFrom,
		TalkTo:          res.TalkTo,
		RedirectCreated: res.RedirectCreated,
	}, nil
}

// DeletePageMCP is the MCP wrapper for Delete
func (s *Site) DeletePageMCP(ctx context.Context, args DeletePageArgs) (DeletePageResult, error) {
	p, err := s.page(ctx, args.Title)
	if err != nil {
		return DeletePageResult{}, err
	}
	if !p.Exists() {
		return DeletePageResult{}, apierrors.NewPageNotFoundError(p.Name())
	}

	res, err := p.Delete(ctx, &DeleteOptions{Reason: args.Reason})
	if err != nil {
		return DeletePageResult{}, err
	}
	return DeletePageResult{Title: p.Name(), LogID: res.LogID}, nil
}

// ResolveRedirectMCP is the MCP wrapper for ResolveRedirect
func (s *Site) ResolveRedirectMCP(ctx context.Context, args ResolveRedirectArgs) (ResolveRedirectResult, error) {
	p, err := s.page(ctx, args.Title)
	if err != nil {
		return ResolveRedirectResult{}, err
	}

	target, err := p.ResolveRedirect(ctx)
	if err != nil {
		return ResolveRedirectResult{}, err
	}
	return ResolveRedirectResult{
		Title:        p.Name(),
		Redirect:     target != p,
		Target:       target.Name(),
		TargetExists: target.Exists(),
	}, nil
}
