// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/AleutianAI/TinyMoves/cmd/tinymoves/config"
	"github.com/AleutianAI/TinyMoves/pkg/game"
	"github.com/AleutianAI/TinyMoves/pkg/ux"
	"github.com/AleutianAI/TinyMoves/services/gamesvr"
)

var (
	serveAddr       string
	serveScriptPath string
)

// serveCmd exposes the game engine over HTTP.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the TinyMoves HTTP service",
	Long: `Starts the game service: run, inspect, replay, corrupt, and score
games over a JSON API, with Prometheus metrics on /metrics.

Traces are exported over OTLP when OTEL_EXPORTER_OTLP_ENDPOINT is set;
otherwise the service runs without an exporter.`,
	RunE: runServeCommand,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from config)")
	serveCmd.Flags().StringVar(&serveScriptPath, "script", "", "Canned responses for the scripted provider (JSON array of strings)")
	rootCmd.AddCommand(serveCmd)
}

// initTracer sets the global tracer provider, exporting over OTLP
// when an endpoint is configured. The returned shutdown function is
// non-nil even without an exporter.
func initTracer(ctx context.Context) (func(context.Context), error) {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return func(context.Context) {}, nil
	}
	conn, err := grpc.NewClient(endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, err
	}
	exporter, err := otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceNameKey.String("tinymoves-gamesvr")))
	if err != nil {
		return nil, err
	}
	provider := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
		sdktrace.WithSpanProcessor(sdktrace.NewBatchSpanProcessor(exporter)))
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))

	return func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Error("shutting down tracer provider", "error", err)
		}
	}, nil
}

func runServeCommand(cmd *cobra.Command, args []string) error {
	shutdownTracer, err := initTracer(cmd.Context())
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	store, closeStore, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := newProviderClient(serveScriptPath)
	if err != nil {
		return err
	}

	defaults := game.Config{
		MaxTurns:        config.Global.Game.MaxTurns,
		RetryBudget:     config.Global.Game.RetryBudget,
		AdvanceOnReject: config.Global.Game.AdvanceOnReject,
		RetrievalK:      config.Global.Game.RetrievalK,
	}
	handlers, err := gamesvr.NewHandlers(store, client, defaults, logger.Slog())
	if err != nil {
		return err
	}
	retriever, err := newRetriever()
	if err != nil {
		return err
	}
	if retriever != nil {
		handlers.WithRetriever(retriever)
	}

	addr := serveAddr
	if addr == "" {
		addr = config.Global.Server.Addr
	}
	router := gamesvr.NewRouter(handlers)

	ux.Info(fmt.Sprintf("serving on %s", addr))
	if err := router.Run(addr); err != nil {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}
