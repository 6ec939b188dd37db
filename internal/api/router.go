package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the controller's routes. A non-nil gatherer is exposed at
// /metrics.
func NewRouter(ctl *Controller, gatherer prometheus.Gatherer) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/convert", ctl.Convert)
		v1.POST("/validate", ctl.ValidatePlans)

		v1.POST("/jobs/preview", ctl.PreviewJob)
		v1.POST("/jobs", ctl.CommitJob)
		v1.GET("/jobs", ctl.ListJobs)
		// Job ids contain a slash, e.g. SL00001/2025-26.
		v1.GET("/jobs/*id", ctl.GetJob)
		v1.DELETE("/jobs/*id", ctl.DeleteJob)

		v1.GET("/lots/:store", ctl.ListLots)
		v1.POST("/lots/:store", ctl.ReceiveLots)
		v1.GET("/lots/:store/*id", ctl.GetLot)

		v1.GET("/masters", ctl.ListMasters)
		v1.GET("/masters/:id/mother-lots", ctl.MotherLots)
	}
	return r
}

// Server runs the HTTP surface.
type Server struct {
	srv *http.Server
}

// NewServer creates a server on addr.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
