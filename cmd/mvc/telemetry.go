package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/coderi421/mvc/internal/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// newLogger 用 charmbracelet/log 作为 slog 的 handler
func newLogger(cfg config.Log, w io.Writer) *slog.Logger {
	lvl, err := log.ParseLevel(cfg.Level)
	if err != nil {
		lvl = log.InfoLevel
	}
	opts := log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		Prefix:          "mvc",
	}
	if cfg.Format == "json" {
		opts.Formatter = log.JSONFormatter
	}
	return slog.New(log.NewWithOptions(w, opts))
}

// setupTracing 设置全局的 TracerProvider。
// 返回的 shutdown 一定不为 nil
func setupTracing(_ context.Context, cfg config.Tracing) (func(ctx context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	var exporter sdktrace.SpanExporter
	var err error
	switch cfg.Exporter {
	case "none":
		return noop, nil
	case "jaeger":
		exporter, err = jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.Endpoint)))
	case "zipkin":
		exporter, err = zipkin.New(cfg.Endpoint)
	default:
		return noop, fmt.Errorf("mvc: 不支持的 tracing exporter %s", cfg.Exporter)
	}
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.Service),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
