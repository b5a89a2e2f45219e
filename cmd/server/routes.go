package main

import (
	"time"

	"github.com/gin-gonic/gin"

	"ccip-relay.backend/internal/interfaces/http/handlers"
	"ccip-relay.backend/internal/interfaces/http/middleware"
	"ccip-relay.backend/pkg/metrics"
)

type routeDeps struct {
	transferHandler *handlers.TransferHandler
	chainHandler    *handlers.ChainHandler
	operatorAuth    gin.HandlerFunc
	recorder        *metrics.Recorder
	// zero selects middleware.DefaultLockDuration
	idempotencyLock time.Duration
}

func newRouter(d routeDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware(d.recorder))

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, d.recorder)
	registerAPIV1Routes(r, d)
	return r
}

func registerAPIV1Routes(r *gin.Engine, d routeDeps) {
	v1 := r.Group("/api/v1")
	{
		transfers := v1.Group("/transfers")
		{
			transfers.POST("", d.operatorAuth, middleware.IdempotencyMiddleware(d.idempotencyLock), d.transferHandler.CreateTransfer)
			transfers.GET("", d.transferHandler.ListTransfers)
			transfers.GET("/:id", d.transferHandler.GetTransfer)
		}

		chains := v1.Group("/chains")
		{
			chains.GET("", d.chainHandler.ListChains)
			chains.GET("/status", d.chainHandler.ChainStatus)
		}
	}
}
