package ui

import (
	"net/http"
	"strconv"

	"crosspred/domain/core"
	"crosspred/domain/result"
	apperrors "crosspred/internal/errors"
	"crosspred/internal/report"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleResults lists saved entries, filtered by target, model and run_id
func (s *Server) handleResults(c *gin.Context) {
	entries, err := s.listEntries(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if entries == nil {
		entries = []result.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}

func (s *Server) handleReport(c *gin.Context) {
	entries, err := s.listEntries(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	opts := report.DefaultOptions()
	if raw := c.Query("alpha"); raw != "" {
		alpha, err := strconv.ParseFloat(raw, 64)
		if err != nil || alpha <= 0 || alpha >= 1 {
			s.abortWithError(c, apperrors.InvalidInput("alpha must be in (0, 1)"))
			return
		}
		opts.Alpha = alpha
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(entries, opts))
}

func (s *Server) handleBins(c *gin.Context) {
	if s.study == nil {
		s.abortWithError(c, apperrors.NotFound("cohort"))
		return
	}
	bins, err := s.study.Bins(c.Request.Context(), s.numBins)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bins": bins})
}

func (s *Server) listEntries(c *gin.Context) ([]result.Entry, error) {
	filter := result.Filter{
		Target: c.Query("target"),
		Model:  c.Query("model"),
	}
	if raw := c.Query("run_id"); raw != "" {
		id, err := core.ParseRunID(raw)
		if err != nil {
			return nil, apperrors.InvalidInput(err.Error())
		}
		filter.RunID = id
	}
	entries, err := s.repo.ListEntries(c.Request.Context(), filter)
	if err != nil {
		return nil, apperrors.DatabaseError("list results", err)
	}
	return entries, nil
}
