package tracer

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace/noop"

	"simrs-agent/internal/infra/config"
)

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: false})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(context.Background())

	tp := otel.GetTracerProvider()
	if _, ok := tp.(noop.TracerProvider); !ok {
		t.Errorf("expected noop provider, got %T", tp)
	}
}

func TestSetupExporters(t *testing.T) {
	for _, exporter := range []string{"noop", "stdout", ""} {
		shutdown, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: exporter})
		if err != nil {
			t.Fatalf("Setup(%q): %v", exporter, err)
		}
		shutdown(context.Background())
	}
}

func TestSetupUnsupportedExporter(t *testing.T) {
	_, err := Setup(context.Background(), config.TracerConfig{Enabled: true, Exporter: "jaeger"})
	if err == nil {
		t.Error("expected error for unsupported exporter")
	}
}

func TestStartSpanAndHelpers(t *testing.T) {
	otel.SetTracerProvider(noop.NewTracerProvider())

	ctx, span := StartSpan(context.Background(), "orchestrator.submit")
	if ctx == nil {
		t.Error("context should not be nil")
	}

	SetOK(span)
	RecordError(span, errors.New("backend down"))
	span.End()
}

func TestAttrHelpers(t *testing.T) {
	s := StringAttr("router.target", "BILLING")
	if string(s.Key) != "router.target" || s.Value.AsString() != "BILLING" {
		t.Errorf("StringAttr = %v", s)
	}
	i := IntAttr("llm.total_tokens", 42)
	if string(i.Key) != "llm.total_tokens" || i.Value.AsInt64() != 42 {
		t.Errorf("IntAttr = %v", i)
	}
}
