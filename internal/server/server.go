// Package server exposes the upload, status, and download HTTP surface over
// the job registry and pipeline queue.
package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/jobs"
)

// Server wires the HTTP routes to the registry and queue.
type Server struct {
	cfg      common.StorageConfig
	logger   *slog.Logger
	registry *jobs.Registry
	queue    *jobs.Queue
	engine   *gin.Engine
}

func New(cfg common.StorageConfig, registry *jobs.Registry, queue *jobs.Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		queue:    queue,
	}
	s.engine = s.buildRouter()
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))
	r.Use(CORS())

	r.GET("/", s.root)
	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.POST("/upload", s.upload)
		api.GET("/status/:task_id", s.status)
		api.GET("/jobs", s.listJobs)
		api.DELETE("/jobs/:task_id", s.cancelJob)
	}

	r.GET("/downloads/:filename", s.download)

	return r
}
