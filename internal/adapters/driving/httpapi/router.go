// Package httpapi exposes projects, documents, key points and chat over a
// JSON HTTP API built on gin.
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/docsight/internal/core/ports/driving"
	"github.com/custodia-labs/docsight/internal/logger"
)

// ErrMissingService is returned by Ports.Validate.
var ErrMissingService = errors.New("httpapi: every service is required")

// Ports aggregates the driving ports served by the API.
type Ports struct {
	Projects  driving.ProjectService
	Documents driving.DocumentService
	KeyPoints driving.KeyPointService
	Chat      driving.ChatService
	Search    driving.SearchService
}

// Validate ensures all ports are set.
func (p Ports) Validate() error {
	if p.Projects == nil || p.Documents == nil || p.KeyPoints == nil || p.Chat == nil || p.Search == nil {
		return ErrMissingService
	}
	return nil
}

// NewRouter builds the gin engine. metrics, when not nil, is mounted at
// /metrics.
func NewRouter(ports Ports, metrics http.Handler) *gin.Engine {
	if gin.Mode() == gin.DebugMode && !logger.IsVerbose() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	router.MaxMultipartMemory = 8 << 20

	h := &handler{ports: ports}

	router.GET("/healthz", healthz)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	api := router.Group("/api")
	{
		// Projects
		api.GET("/projects", h.listProjects)
		api.POST("/projects", h.createProject)
		api.GET("/projects/:id", h.getProject)
		api.PATCH("/projects/:id", h.updateProject)
		api.POST("/projects/:id/archive", h.archiveProject)
		api.DELETE("/projects/:id", h.deleteProject)

		// Documents
		api.GET("/projects/:id/documents", h.listDocuments)
		api.POST("/projects/:id/documents", h.uploadDocument)
		api.GET("/documents/:id", h.getDocument)
		api.GET("/documents/:id/content", h.documentContent)
		api.DELETE("/documents/:id", h.deleteDocument)
		api.POST("/documents/:id/reprocess", h.reprocessDocument)

		// Key points
		api.GET("/projects/:id/keypoints", h.listKeyPoints)
		api.GET("/projects/:id/keypoints/stats", h.keyPointStats)

		// Chat
		api.GET("/projects/:id/chat", h.chatHistory)
		api.POST("/projects/:id/chat", h.ask)
		api.DELETE("/projects/:id/chat", h.clearChat)
		api.GET("/projects/:id/chat/welcome", h.welcome)

		// Search
		api.GET("/projects/:id/search", h.search)
	}

	return router
}

func healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http: %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
