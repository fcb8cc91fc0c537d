package server

import (
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
)

// setupRoutes mounts health and metrics at the root and every other handler
// under /api/v1.
func setupRoutes(app *fiber.App, healthHandler, metricsHandler handler.Handler, handlers []handler.Handler) {
	healthHandler.Register(app)
	metricsHandler.Register(app)

	v1 := app.Group("/api/v1")
	for _, h := range handlers {
		h.Register(v1)
	}
}
