package metrics

import (
	"github.com/gitsyncd/gitsyncd/internal/metrics"
	"github.com/go-core-fx/fiberfx/handler"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	metrics *metrics.Metrics
}

func NewHandler(metrics *metrics.Metrics) handler.Handler {
	return &Handler{
		metrics: metrics,
	}
}

// Register implements handler.Handler.
func (h *Handler) Register(r fiber.Router) {
	r.Get("/metrics", adaptor.HTTPHandler(
		promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{}),
	))
}
