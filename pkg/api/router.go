package api

import (
	"net/http"

	scalargo "github.com/bdpiprava/scalar-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	Service        Service
	Logger         *zap.Logger
	AllowedOrigins []string
	// SpecDir holds openapi.yaml for the reference page at GET /. Empty
	// disables the page.
	SpecDir string
}

func SetupRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(RequestID(), RequestLogger(logger), Recovery(logger), CORS(cfg.AllowedOrigins))
	r.NoRoute(func(c *gin.Context) {
		WriteProblem(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	if cfg.SpecDir != "" {
		r.GET("/", Docs(cfg.SpecDir, "cleanuri API"))
	}

	h := NewHandler(cfg.Service)
	r.GET("/health", h.Health)
	r.GET("/sites", h.Sites)
	r.GET("/canonize", h.Canonize)
	r.GET("/extract", h.Extract)
	r.POST("/extract/batch", h.ExtractBatch)
	r.POST("/pricing/quote", h.Quote)

	return r
}

// Docs serves the Scalar API reference for the OpenAPI document in specDir.
func Docs(specDir, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		html, err := scalargo.NewV2(
			scalargo.WithSpecDir(specDir),
			scalargo.WithMetaDataOpts(
				scalargo.WithTitle(title),
			),
		)
		if err != nil {
			WriteProblem(c, http.StatusInternalServerError, "INTERNAL", err.Error())
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
	}
}
