package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the API under rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	v1 := rg.Group("/api/v1")
	{
		v1.POST("/assessments", h.HandleAssess)
		v1.POST("/assessments/batch", h.HandleBatch)
		v1.POST("/grade", h.HandleGrade)
		v1.POST("/order", h.HandleOrder)
		v1.GET("/projects/:project/runs", h.HandleListRuns)
		v1.GET("/runs/:id", h.HandleGetRun)
	}
	rg.GET("/healthz", h.HandleHealth)
}

// NewRouter builds the engine with recovery, request logging and the
// optional metrics endpoint.
func NewRouter(h *Handlers, metrics http.Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h))
	RegisterRoutes(&router.RouterGroup, h)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}
	return router
}
