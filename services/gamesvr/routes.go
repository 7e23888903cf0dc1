// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package gamesvr

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// NewRouter builds the service router with tracing middleware,
// Prometheus metrics, and all game endpoints.
//
// Endpoints:
//
//	POST   /v1/games                 - Run a game to termination
//	GET    /v1/games                 - List stored games
//	GET    /v1/games/:id             - Game summary with final state
//	GET    /v1/games/:id/trajectory  - Full trajectory
//	POST   /v1/games/:id/replay      - Verify the trajectory by replay
//	DELETE /v1/games/:id             - Delete a stored game
//	POST   /v1/corrupt               - Corrupt a reference hypothesis
//	POST   /v1/score                 - Score a game against a reference
//	GET    /healthz                  - Liveness check
//	GET    /metrics                  - Prometheus metrics
func NewRouter(handlers *Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("tinymoves-gamesvr"))

	v1 := router.Group("/v1")
	{
		v1.POST("/games", handlers.HandleCreateGame)
		v1.GET("/games", handlers.HandleListGames)
		v1.GET("/games/:id", handlers.HandleGetGame)
		v1.GET("/games/:id/trajectory", handlers.HandleGetTrajectory)
		v1.POST("/games/:id/replay", handlers.HandleReplayGame)
		v1.DELETE("/games/:id", handlers.HandleDeleteGame)

		v1.POST("/corrupt", handlers.HandleCorrupt)
		v1.POST("/score", handlers.HandleScore)
	}

	router.GET("/healthz", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return router
}
