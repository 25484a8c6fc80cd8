package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wahid18-maqs/blood-test-analyser/api/handlers"
	"github.com/wahid18-maqs/blood-test-analyser/api/middleware"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/logger"
	"github.com/wahid18-maqs/blood-test-analyser/pkg/metrics"
)

type Options struct {
	AllowOrigins []string
	Metrics      *metrics.Metrics
	Gatherer     prometheus.Gatherer
	Logger       logger.Logger
}

// SetupRoutes registers the API at the root and again under /api/v1.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, opts Options) {
	r.Use(middleware.RequestID())
	if opts.Logger != nil {
		r.Use(middleware.AccessLog(opts.Logger))
	}
	if opts.Metrics != nil {
		r.Use(middleware.Metrics(opts.Metrics))
	}
	r.Use(middleware.CORS(opts.AllowOrigins))

	register(r.Group("/"), h)
	register(r.Group("/api/v1"), h)

	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}
}

func register(g *gin.RouterGroup, h *handlers.Handlers) {
	g.GET("/", h.Health.Root)
	g.GET("/health", h.Health.Health)
	g.POST("/analyze", h.Analysis.Analyze)
	g.POST("/analyze-simple", h.Analysis.AnalyzeSimple)
	g.GET("/history", h.Analysis.History)
}
