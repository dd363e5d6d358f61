package startup

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// recordingExporter counts Shutdown calls.
type recordingExporter struct {
	shutdowns int
}

func (e *recordingExporter) ExportSpans(context.Context, []sdktrace.ReadOnlySpan) error {
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error {
	e.shutdowns++
	return nil
}

func TestSetupTracing_Disabled(t *testing.T) {
	shutdown, err := SetupTracing(context.Background(), "")
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}

func TestSetupTracing_Enabled(t *testing.T) {
	// The exporter connects lazily, so an unused endpoint is fine.
	shutdown, err := SetupTracing(context.Background(), "http://127.0.0.1:4318")
	if err != nil {
		t.Fatalf("SetupTracing() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so shutdown has nothing to export.
	_ = shutdown(ctx)
}

func TestSetupTracing_ResourceFailureShutsDownExporter(t *testing.T) {
	exporter := &recordingExporter{}
	errResource := errors.New("bad resource")

	origExporter, origResource := newSpanExporter, newTraceResource
	t.Cleanup(func() { newSpanExporter, newTraceResource = origExporter, origResource })
	newSpanExporter = func(context.Context, string) (sdktrace.SpanExporter, error) {
		return exporter, nil
	}
	newTraceResource = func(context.Context) (*resource.Resource, error) {
		return nil, errResource
	}

	shutdown, err := SetupTracing(context.Background(), "http://127.0.0.1:4318")
	if !errors.Is(err, errResource) {
		t.Fatalf("error = %v, want %v", err, errResource)
	}
	if exporter.shutdowns != 1 {
		t.Errorf("exporter shut down %d times, want 1", exporter.shutdowns)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown() error = %v", err)
	}
}
