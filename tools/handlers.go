package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/oklog/ulid/v2"
	apierrors "github.com/olgasafonova/wikipage-mcp-server/internal/errors"
	"github.com/olgasafonova/wikipage-mcp-server/metrics"
	"github.com/olgasafonova/wikipage-mcp-server/tracing"
	"github.com/olgasafonova/wikipage-mcp-server/wiki"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// HandlerRegistry provides type-safe tool registration by mapping
// tool names to their concrete handler implementations.
type HandlerRegistry struct {
	site   *wiki.Site
	logger *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(site *wiki.Site, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		site:   site,
		logger: logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	for _, spec := range AllTools {
		h.registerByName(server, spec)
	}
	h.logger.Info("Registered all tools", "count", len(AllTools))
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "PageInfo":
		h.register(server, tool, spec, h.site.PageInfoMCP)
	case "PageText":
		h.register(server, tool, spec, h.site.PageTextMCP)
	case "ResolveRedirect":
		h.register(server, tool, spec, h.site.ResolveRedirectMCP)
	case "EditPage":
		h.register(server, tool, spec, h.site.EditPageMCP)
	case "AppendPage":
		h.register(server, tool, spec, h.site.AppendPageMCP)
	case "PrependPage":
		h.register(server, tool, spec, h.site.PrependPageMCP)
	case "TouchPage":
		h.register(server, tool, spec, h.site.TouchPageMCP)
	case "PurgePage":
		h.register(server, tool, spec, h.site.PurgePageMCP)
	case "MovePage":
		h.register(server, tool, spec, h.site.MovePageMCP)
	case "DeletePage":
		h.register(server, tool, spec, h.site.DeletePageMCP)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
	}
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the site method with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Result, error) {
		defer h.recoverPanic(spec.Name)

		requestID := ulid.Make().String()

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		tracing.AddToolAttributes(span, spec.Name, spec.Category, requestID)
		span.SetAttributes(attribute.Bool("mcp.tool.readonly", spec.ReadOnly))

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			h.logFailure(spec, requestID, err)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logExecution(spec, requestID, args, result)
		return nil, result, nil
	})
}

// recoverPanic recovers from panics in tool handlers.
func (h *HandlerRegistry) recoverPanic(toolName string) {
	if rec := recover(); rec != nil {
		metrics.PanicsRecovered.WithLabelValues(toolName).Inc()
		h.logger.Error("Panic recovered",
			"tool", toolName,
			"panic", rec,
			"stack", string(debug.Stack()))
	}
}

// logFailure logs a failed call. Bad arguments and missing pages are the
// caller's mistake and log at Info; anything else is a Warn.
func (h *HandlerRegistry) logFailure(spec ToolSpec, requestID string, err error) {
	attrs := []any{"tool", spec.Name, "request_id", requestID, "error", err}
	switch {
	case apierrors.IsValidation(err):
		h.logger.Info("Tool rejected invalid arguments", attrs...)
	case apierrors.IsNotFound(err):
		h.logger.Info("Tool target not found", attrs...)
	default:
		h.logger.Warn("Tool failed", attrs...)
	}
}

// logExecution logs tool execution details.
func (h *HandlerRegistry) logExecution(spec ToolSpec, requestID string, args, result any) {
	attrs := []any{"tool", spec.Name, "category", spec.Category, "request_id", requestID}

	switch a := args.(type) {
	case wiki.PageInfoArgs:
		attrs = append(attrs, "title", a.Title)
	case wiki.PageTextArgs:
		attrs = append(attrs, "title", a.Title, "expand_templates", a.ExpandTemplates)
		if a.Section != nil {
			attrs = append(attrs, "section", *a.Section)
		}
	case wiki.ResolveRedirectArgs:
		attrs = append(attrs, "title", a.Title)
	case wiki.EditPageArgs:
		attrs = append(attrs, "title", a.Title, "input_chars", len(a.Text), "detect_conflicts", a.DetectConflicts)
	case wiki.AppendPageArgs:
		attrs = append(attrs, "title", a.Title, "input_chars", len(a.Text))
	case wiki.PrependPageArgs:
		attrs = append(attrs, "title", a.Title, "input_chars", len(a.Text))
	case wiki.TouchPageArgs:
		attrs = append(attrs, "title", a.Title)
	case wiki.PurgePageArgs:
		attrs = append(attrs, "title", a.Title)
	case wiki.MovePageArgs:
		attrs = append(attrs, "title", a.Title, "new_title", a.NewTitle)
	case wiki.DeletePageArgs:
		attrs = append(attrs, "title", a.Title)
	}

	switch r := result.(type) {
	case wiki.PageInfoResult:
		attrs = append(attrs, "exists", r.Exists, "can_edit", r.CanEdit)
	case wiki.PageTextResult:
		attrs = append(attrs, "exists", r.Exists, "output_chars", len(r.Text))
	case wiki.ResolveRedirectResult:
		attrs = append(attrs, "redirect", r.Redirect, "target", r.Target)
	case wiki.WriteResult:
		attrs = append(attrs, "new_revision", r.NewRevID, "no_change", r.NoChange)
	case wiki.TouchPageResult:
		attrs = append(attrs, "touched", r.Touched)
	case wiki.MovePageResult:
		attrs = append(attrs, "redirect_created", r.RedirectCreated)
	case wiki.DeletePageResult:
		attrs = append(attrs, "log_id", r.LogID)
	}

	h.logger.Info("Tool executed", attrs...)
}

// Convenience function to call the generic register with method receiver
func (h *HandlerRegistry) register(server *mcp.Server, tool *mcp.Tool, spec ToolSpec, method any) {
	switch m := method.(type) {
	case func(context.Context, wiki.PageInfoArgs) (wiki.PageInfoResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.PageTextArgs) (wiki.PageTextResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.ResolveRedirectArgs) (wiki.ResolveRedirectResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.EditPageArgs) (wiki.WriteResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.AppendPageArgs) (wiki.WriteResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.PrependPageArgs) (wiki.WriteResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.TouchPageArgs) (wiki.TouchPageResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.PurgePageArgs) (wiki.PurgePageResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.MovePageArgs) (wiki.MovePageResult, error):
		register(h, server, tool, spec, m)
	case func(context.Context, wiki.DeletePageArgs) (wiki.DeletePageResult, error):
		register(h, server, tool, spec, m)

	default:
		h.logger.Error("Unknown method type, tool not registered", "tool", spec.Name)
	}
}
