// Wiki Page MCP Server - A Model Context Protocol server for MediaWiki pages
// Provides tools for reading, editing, moving, and deleting pages with
// conflict detection and permission checks.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/olgasafonova/wikipage-mcp-server/tools"
	"github.com/olgasafonova/wikipage-mcp-server/tracing"
	"github.com/olgasafonova/wikipage-mcp-server/wiki"
)

// recoverPanic logs a panic instead of crashing
func recoverPanic(logger *slog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error("Panic recovered",
			"operation", operation,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

const (
	ServerName    = "wikipage-mcp-server"
	ServerVersion = "1.0.0"
)

const instructions = `Wiki Page MCP Server reads and writes pages on a MediaWiki wiki.

Read tools: wiki_get_page_info, wiki_get_page_text, wiki_resolve_redirect.
Write tools: wiki_edit_page, wiki_append_to_page, wiki_prepend_to_page, wiki_touch_page, wiki_purge_page.
Admin tools: wiki_move_page, wiki_delete_page.

Writes check protection and blocks before contacting the wiki. Use detect_conflicts on wiki_edit_page to fail instead of overwriting a concurrent change.

Configure via environment variables:
- MEDIAWIKI_URL: Wiki API URL (e.g., https://wiki.example.com/api.php)
- MEDIAWIKI_USERNAME: Bot username (for editing)
- MEDIAWIKI_PASSWORD: Bot password (for editing)
- MEDIAWIKI_HTTP_ADDR: Serve over HTTP on this address instead of stdio`

// parseLogLevel maps a config level name to slog; unknown names mean info
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	config, err := wiki.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Logging goes to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(config.LogLevel),
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, config *wiki.Config, logger *slog.Logger) error {
	defer recoverPanic(logger, "run")

	traceConfig := tracing.DefaultConfig()
	traceConfig.ServiceName = ServerName
	traceConfig.ServiceVersion = ServerVersion
	shutdown, err := tracing.Setup(ctx, traceConfig)
	if err != nil {
		return fmt.Errorf("tracing setup: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("Tracing shutdown failed", "error", err)
		}
	}()

	site, err := wiki.NewSite(config, logger)
	if err != nil {
		return err
	}
	defer site.Close()

	if err := site.Init(ctx); err != nil {
		return fmt.Errorf("site init: %w", err)
	}
	if config.HasCredentials() {
		if err := site.Login(ctx); err != nil {
			return fmt.Errorf("login: %w", err)
		}
	} else {
		logger.Info("No credentials configured, running anonymously")
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger:       logger,
		Instructions: instructions,
	})
	tools.NewHandlerRegistry(site, logger).RegisterAll(server)

	logger.Info("Starting Wiki Page MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"wiki_url", config.BaseURL,
		"wiki_version", site.Version().String(),
		"user", site.User(),
		"logged_in", site.LoggedIn(),
	)

	if config.HTTPAddr != "" {
		return serveHTTP(ctx, config.HTTPAddr, server, logger)
	}
	return server.Run(ctx, &mcp.StdioTransport{})
}

func serveHTTP(ctx context.Context, addr string, server *mcp.Server, logger *slog.Logger) error {
	handler, closeHandler := newRouter(server, logger, SecurityConfig{
		RateLimit:   120,
		MaxBodySize: int64(wiki.DefaultMaxEditSize) * 2,
	})
	defer closeHandler()

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(sctx)
	}
}
