package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bom-server/backend/internal/bom"
	"bom-server/backend/internal/constants"
)

// RouterConfig carries what NewRouter needs besides the engine
type RouterConfig struct {
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Production bool
}

// NewRouter builds the gin engine serving the parts API
func NewRouter(engine *bom.Engine, cfg RouterConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(NewMetrics(reg, engine).Middleware())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, indexText)
	})

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "stats": engine.Stats()})
	})

	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	h := &Handler{engine: engine, logger: log}
	v1 := router.Group(constants.APIVersionPrefix + constants.PartsPath)
	{
		v1.GET("", h.ListParts)
		v1.POST("", h.CreatePart)
		v1.GET("/:id", h.GetPart)
		v1.DELETE("/:id", h.DeletePart)
		v1.GET("/:id/children", h.GetChildren)
		v1.POST("/:id/children", h.UpdateChildren)
		v1.GET("/:id/contained", h.GetContained)
		v1.GET("/:id/descendants", h.GetDescendants)
	}

	return router
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
		)
	}
}

const indexText = `BOM-Server

API v1
------
Use the following APIs to interact with the BOM Server:

GET     /v1/parts?filter=<f>                -> list parts (all, top_level, assembly, subassembly, component, orphan)
POST    /v1/parts                           -> create a new part
GET     /v1/parts/<id>                      -> get part <id> information
DELETE  /v1/parts/<id>                      -> delete part <id> from server
GET     /v1/parts/<id>/children?filter=<f>  -> get children of part <id> (all, top_level, component)
POST    /v1/parts/<id>/children?action=<a>  -> update children of part <id> (add, remove, replace; default add)
GET     /v1/parts/<id>/contained            -> get assemblies that include part <id> directly or indirectly
GET     /v1/parts/<id>/descendants?filter=<f> -> get every part below <id>

New Part Request Body:
{
    "name": "Name of the part"
}

Update Children Request Body:
{
    "children": ["child part id1", "child part id2", ...]
}

Response Body:
{
    "result": {"code": int, "description": "Result information"},
    "data": [{"id": "...", "name": "...", "parents": [...], "children": [...]}, ...],
    "error": {"code": int, "description": "Error description"}
}
Fields above are optional and should be checked before referencing values.
`
