// Package http wires the device-facing and administrative endpoints of the
// gateway. Handlers stay thin: parse, call the domain layer, render
// through the shared error table.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/tiago-cos/prosa-kobo/internal/session"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	deviceAuth := session.NewMiddleware(cfg.Authority, cfg.Devices, respondError)

	authController := NewAuthController(cfg.Authority, cfg.Devices)
	router.POST("/auth/device", authController.DeviceAuth)
	router.POST("/auth/refresh", authController.Refresh)

	// Linkage administration is authenticated by possession of a valid
	// API key, not by a device credential.
	devicesController := NewDevicesController(cfg.Devices)
	router.GET("/devices/unlinked", devicesController.ListUnlinked)
	router.GET("/devices/linked", devicesController.ListLinked)
	router.POST("/devices/link", devicesController.Link)
	router.POST("/devices/unlink", devicesController.Unlink)

	syncController := NewSyncController(cfg.Orchestrator, cfg.PublicURL)
	router.GET("/library/sync", deviceAuth.RequireDevice(), syncController.Sync)

	stateController := NewStateController(cfg.Backend)
	router.GET("/library/:id/state", deviceAuth.RequireDevice(), stateController.Get)
	router.PUT("/library/:id/state", deviceAuth.RequireDevice(), stateController.Update)
	router.POST("/products/:id/rating/:rating", deviceAuth.RequireDevice(), stateController.Rate)

	annotationsController := NewAnnotationsController(cfg.Backend, cfg.Annotations)
	router.GET("/content/checkforchanges", annotationsController.CheckForChanges)
	router.GET("/content/:id/annotations", deviceAuth.RequireDevice(), annotationsController.Get)
	router.PATCH("/content/:id/annotations", deviceAuth.RequireDevice(), annotationsController.Patch)

	booksController := NewBooksController(cfg.Backend, cfg.Tokens, cfg.Devices, cfg.Annotations)
	router.GET("/books/:id", booksController.Download)
	router.DELETE("/library/:id", deviceAuth.RequireDevice(), booksController.Delete)

	coversController := NewCoversController(cfg.Backend, cfg.Tokens, cfg.Devices)
	router.GET("/images/:id", coversController.Download)

	healthController := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", healthController.Status)

	return router
}
