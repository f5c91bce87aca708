package http

import (
	"slices"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
)

// NewRouter builds the gin engine serving the public impression API, the
// admin stats API and the Prometheus scrape endpoint. Browsers on
// allowOrigins may call it directly; "*" allows any origin.
func NewRouter(h *Handler, gatherer prometheus.Gatherer, l logger.Logger, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(l), corsMiddleware(allowOrigins))

	r.GET("/health", h.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := r.Group("/api/v1")
	{
		imp := v1.Group("/impressions")
		imp.POST("", h.Mount)
		imp.GET("/:instanceId", h.GetImpression)
		imp.POST("/:instanceId/visibility", h.ReportVisibility)
		imp.DELETE("/:instanceId", h.Unmount)

		v1.POST("/views", h.TrackView)

		v1.POST("/admin/login", h.Login)

		admin := v1.Group("/admin", RequireAdmin(h.authSvc))
		admin.GET("/deals/top", h.TopDeals)
		admin.GET("/deals/:dealId/views", h.GetDealViews)
		admin.GET("/sweeper", h.SweeperStatus)
	}

	return r
}

func corsMiddleware(allowOrigins []string) gin.HandlerFunc {
	config := cors.DefaultConfig()
	if len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = allowOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader}
	return cors.New(config)
}
