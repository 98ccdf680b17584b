package main

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

func newTracerProvider(serviceName, endpoint string, logger *zap.Logger) (*sdktrace.TracerProvider, func()) {
	opts := []otlptracegrpc.Option{otlptracegrpc.WithInsecure()}
	if endpoint != "" {
		opts = append(opts, otlptracegrpc.WithEndpoint(endpoint))
	}

	exporter, err := otlptracegrpc.New(context.Background(), opts...)
	if err != nil {
		logger.Error("Failed to create trace exporter", zap.Error(err))
		tp := sdktrace.NewTracerProvider()
		return tp, func() {}
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName(serviceName)),
	)
	if err != nil {
		logger.Error("Failed to build trace resource", zap.Error(err))
		res = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Error("Failed to shut down tracer provider", zap.Error(err))
		}
	}

	return tp, shutdown
}
