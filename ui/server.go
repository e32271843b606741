package ui

import (
	"context"
	"errors"
	"net/http"
	"time"

	"crosspred/app"
	"crosspred/internal"
	"crosspred/ports"

	"github.com/gin-gonic/gin"
)

// Server is the read-only HTTP surface over saved cross-prediction results
type Server struct {
	router  *gin.Engine
	repo    ports.ResultRepository
	study   *app.CrossPredictionService
	numBins int
	logger  *internal.Logger
}

// NewServer creates a server backed by the given result repository
func NewServer(repo ports.ResultRepository, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	s := &Server{
		router:  gin.New(),
		repo:    repo,
		numBins: 3,
		logger:  logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// WithStudy enables GET /bins over the cohort the service loads
func (s *Server) WithStudy(study *app.CrossPredictionService, numBins int) *Server {
	s.study = study
	if numBins > 0 {
		s.numBins = numBins
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)
	s.router.GET("/results", s.handleResults)
	s.router.GET("/report", s.handleReport)
	s.router.GET("/bins", s.handleBins)
}

// Handler exposes the router for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[Server] listening on http://%s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("[Server] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
