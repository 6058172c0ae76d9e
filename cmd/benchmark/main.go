package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/olgasafonova/wikipage-mcp-server/wiki"
)

// measureTextCache compares a network text read against the per-page cache
func measureTextCache(ctx context.Context, site *wiki.Site, title string) {
	fmt.Println("=== Text Cache Performance ===")
	fmt.Println()

	page, err := wiki.NewPage(ctx, site, title)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	if !page.Exists() {
		fmt.Printf("   Page %q does not exist\n", title)
		return
	}

	fmt.Println("1. Page.Text cache test:")
	start := time.Now()
	text, err := page.Text(ctx, nil)
	if err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	firstCall := time.Since(start)
	fmt.Printf("   First call (network):  %v (%d chars)\n", firstCall, len(text))

	start = time.Now()
	_, _ = page.Text(ctx, nil)
	secondCall := time.Since(start)
	fmt.Printf("   Second call (cached):  %v\n", secondCall)
	if secondCall > 0 {
		fmt.Printf("   Speedup: %.0fx faster\n", float64(firstCall)/float64(secondCall))
	}

	start = time.Now()
	_, _ = page.Text(ctx, &wiki.TextOptions{NoCache: true})
	fmt.Printf("   Uncached re-read:      %v\n", time.Since(start))
	fmt.Println()

	fmt.Println("2. Section reads (cached per section):")
	for section := 0; section < 3; section++ {
		s := section
		start = time.Now()
		if _, err := page.Text(ctx, &wiki.TextOptions{Section: &s}); err != nil {
			fmt.Printf("   Section %d: %v\n", s, err)
			continue
		}
		fmt.Printf("   Section %d: %v\n", s, time.Since(start))
	}
	fmt.Println()
}

// measureTokenCache compares a token fetch against the site token cache
func measureTokenCache(ctx context.Context, site *wiki.Site, title string) {
	fmt.Println("=== Token Cache Performance ===")
	fmt.Println()

	start := time.Now()
	if _, err := site.Token(ctx, "edit", true, title); err != nil {
		fmt.Printf("   Error: %v\n", err)
		return
	}
	forced := time.Since(start)
	fmt.Printf("   Forced fetch (network): %v\n", forced)

	start = time.Now()
	_, _ = site.Token(ctx, "edit", false, title)
	cached := time.Since(start)
	fmt.Printf("   Cached token:           %v\n", cached)
	if cached > 0 {
		fmt.Printf("   Speedup: %.0fx faster\n", float64(forced)/float64(cached))
	}
	fmt.Println()
}

func main() {
	title := flag.String("title", "Main Page", "page to read")
	flag.Parse()

	config, err := wiki.LoadConfig()
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	site, err := wiki.NewSite(config, logger)
	if err != nil {
		fmt.Printf("Site error: %v\n", err)
		os.Exit(1)
	}
	defer site.Close()

	ctx := context.Background()
	if err := site.Init(ctx); err != nil {
		fmt.Printf("Init error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Wiki Page MCP Server - Performance Measurements")
	fmt.Println("===============================================")
	fmt.Printf("Wiki: %s (MediaWiki %s)\n\n", config.BaseURL, site.Version())

	measureTextCache(ctx, site, *title)
	measureTokenCache(ctx, site, *title)
}
