package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agendalink/gateway/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type Config struct {
	CORSConfig    middleware.CORSConfig
	MetricsPrefix string
}

// Router wires the two route surfaces: the JWT-gated admin API and the
// client-scoped gateway API.
type Router struct {
	engine  *gin.Engine
	auth    *middleware.AuthMiddleware
	apilog  gin.HandlerFunc
	metrics *routerMetrics

	healthH      Handler
	authH        Handler
	clientH      Handler
	integrationH Handler
	gatewayH     Handler
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	apilog gin.HandlerFunc,
	healthH Handler,
	authH Handler,
	clientH Handler,
	integrationH Handler,
	gatewayH Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         auth,
		apilog:       apilog,
		metrics:      initRouterMetrics(config.MetricsPrefix),
		healthH:      healthH,
		authH:        authH,
		clientH:      clientH,
		integrationH: integrationH,
		gatewayH:     gatewayH,
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)

	// Gateway routes: reachable by opaque client id, every call logged.
	gateway := api.Group("")
	if r.apilog != nil {
		gateway.Use(r.apilog)
	}
	r.gatewayH.RegisterRoutes(gateway)

	// Admin routes: operator JWT required.
	admin := api.Group("/admin")
	admin.Use(r.auth.Authenticate())
	r.clientH.RegisterRoutes(admin)
	r.integrationH.RegisterRoutes(admin)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()
		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
