package tracing

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestDefaultConfig(t *testing.T) {
	t.Setenv("OTEL_ENVIRONMENT", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_SERVICE_NAME", "")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "")

	cfg := DefaultConfig()

	if cfg.ServiceName != "wikipage-mcp-server" {
		t.Errorf("Expected ServiceName 'wikipage-mcp-server', got %q", cfg.ServiceName)
	}
	if cfg.ServiceVersion != "1.0.0" {
		t.Errorf("Expected ServiceVersion '1.0.0', got %q", cfg.ServiceVersion)
	}
	if cfg.Environment != "development" {
		t.Errorf("Expected Environment 'development', got %q", cfg.Environment)
	}
	if cfg.Enabled {
		t.Error("Expected Enabled to be false by default")
	}
	if cfg.OTLPEndpoint != "" {
		t.Errorf("Expected OTLPEndpoint to be empty, got %q", cfg.OTLPEndpoint)
	}
	if cfg.SampleRate != 1.0 {
		t.Errorf("Expected SampleRate 1.0, got %f", cfg.SampleRate)
	}
}

func TestDefaultConfig_WithEnvVars(t *testing.T) {
	t.Setenv("OTEL_ENVIRONMENT", "production")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")
	t.Setenv("OTEL_SERVICE_NAME", "wiki-bot")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.25")

	cfg := DefaultConfig()

	if cfg.Environment != "production" {
		t.Errorf("Expected Environment 'production', got %q", cfg.Environment)
	}
	if !cfg.Enabled {
		t.Error("Expected Enabled to be true")
	}
	if cfg.OTLPEndpoint != "localhost:4318" {
		t.Errorf("Expected OTLPEndpoint 'localhost:4318', got %q", cfg.OTLPEndpoint)
	}
	if cfg.ServiceName != "wiki-bot" {
		t.Errorf("Expected ServiceName 'wiki-bot', got %q", cfg.ServiceName)
	}
	if cfg.SampleRate != 0.25 {
		t.Errorf("Expected SampleRate 0.25, got %f", cfg.SampleRate)
	}
}

func TestDefaultConfig_EnabledByEndpoint(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318")

	if !DefaultConfig().Enabled {
		t.Error("Expected Enabled to be true when OTLP endpoint is set")
	}
}

func TestDefaultConfig_BadSampleRateIgnored(t *testing.T) {
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "often")

	if got := DefaultConfig().SampleRate; got != 1.0 {
		t.Errorf("Expected SampleRate 1.0 for unparsable value, got %f", got)
	}
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown returned error: %v", err)
	}
}

func TestSetup_EnabledWithStdout(t *testing.T) {
	cfg := Config{
		ServiceName:    "test-service",
		ServiceVersion: "1.0.0",
		Environment:    "test",
		Enabled:        true,
		SampleRate:     1.0,
	}

	shutdown, err := Setup(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if Tracer() == nil {
		t.Error("Expected tracer to be non-nil")
	}
}

func TestSampler(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want string
	}{
		{"always sample", 1.0, "AlwaysOnSampler"},
		{"above 1.0", 1.5, "AlwaysOnSampler"},
		{"never sample", 0.0, "AlwaysOffSampler"},
		{"below 0.0", -0.5, "AlwaysOffSampler"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sampler(tt.rate).Description(); got != tt.want {
				t.Errorf("sampler(%v) = %q, want %q", tt.rate, got, tt.want)
			}
		})
	}

	if sampler(0.5) == nil {
		t.Error("ratio sampler should not be nil")
	}
}

// recordSpan runs fn against a span from an in-memory provider and returns
// the finished span.
func recordSpan(t *testing.T, fn func(context.Context)) sdktrace.ReadOnlySpan {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer(TracerName).Start(context.Background(), "test")
	fn(ctx)
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 ended span, got %d", len(ended))
	}
	return ended[0]
}

func attrMap(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestAddToolAttributes(t *testing.T) {
	span := recordSpan(t, func(ctx context.Context) {
		s := trace.SpanFromContext(ctx)
		AddToolAttributes(s, "wiki_edit_page", "write", "01J0000000000000000000000")
	})

	attrs := attrMap(span)
	if attrs["mcp.tool.name"].AsString() != "wiki_edit_page" {
		t.Errorf("mcp.tool.name = %v", attrs["mcp.tool.name"])
	}
	if attrs["mcp.tool.category"].AsString() != "write" {
		t.Errorf("mcp.tool.category = %v", attrs["mcp.tool.category"])
	}
	if attrs["mcp.request.id"].AsString() != "01J0000000000000000000000" {
		t.Errorf("mcp.request.id = %v", attrs["mcp.request.id"])
	}
}

func TestAddWikiAttributes(t *testing.T) {
	tests := []struct {
		name     string
		action   string
		page     string
		wantPage bool
	}{
		{"with page", "edit", "Main Page", true},
		{"without page", "query", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			span := recordSpan(t, func(ctx context.Context) {
				AddWikiAttributes(trace.SpanFromContext(ctx), tt.action, tt.page)
			})

			attrs := attrMap(span)
			if attrs["wiki.api.action"].AsString() != tt.action {
				t.Errorf("wiki.api.action = %v", attrs["wiki.api.action"])
			}
			_, has := attrs["wiki.page.title"]
			if has != tt.wantPage {
				t.Errorf("wiki.page.title present = %v, want %v", has, tt.wantPage)
			}
		})
	}
}

func TestAddRetryAttributes(t *testing.T) {
	span := recordSpan(t, func(ctx context.Context) {
		AddRetryAttributes(trace.SpanFromContext(ctx), 2, "badtoken")
	})

	attrs := attrMap(span)
	if attrs["wiki.write.attempt"].AsInt64() != 2 {
		t.Errorf("wiki.write.attempt = %v", attrs["wiki.write.attempt"])
	}
	if attrs["wiki.write.retry_reason"].AsString() != "badtoken" {
		t.Errorf("wiki.write.retry_reason = %v", attrs["wiki.write.retry_reason"])
	}
}

func TestRecordError(t *testing.T) {
	span := recordSpan(t, func(ctx context.Context) {
		RecordError(trace.SpanFromContext(ctx), nil)
	})
	if span.Status().Code == codes.Error {
		t.Error("nil error should not mark the span failed")
	}

	span = recordSpan(t, func(ctx context.Context) {
		RecordError(trace.SpanFromContext(ctx), errors.New("editconflict"))
	})
	if span.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", span.Status().Code)
	}
	if len(span.Events()) == 0 {
		t.Error("expected an exception event")
	}
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-span")
	defer span.End()

	if ctx == nil {
		t.Error("Expected context to be non-nil")
	}
	if span == nil {
		t.Error("Expected span to be non-nil")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_GET_ENV_KEY", "custom-value")
	t.Setenv("TEST_GET_ENV_KEY_EMPTY", "")

	tests := []struct {
		key  string
		want string
	}{
		{"TEST_GET_ENV_KEY", "custom-value"},
		{"TEST_GET_ENV_KEY_EMPTY", "default-value"},
		{"TEST_GET_ENV_KEY_UNSET_12345", "default-value"},
	}

	for _, tt := range tests {
		if got := getEnvOrDefault(tt.key, "default-value"); got != tt.want {
			t.Errorf("getEnvOrDefault(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestTracerName(t *testing.T) {
	if TracerName != "wikipage-mcp-server" {
		t.Errorf("Expected TracerName 'wikipage-mcp-server', got %q", TracerName)
	}
}
