// Package api serves read-only status and scan results over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"vps-optimizer/internal/optimizer"
	"vps-optimizer/internal/scanner"
)

// Server exposes the status and scan endpoints.
type Server struct {
	probe   optimizer.SystemProbe
	workers int
}

// NewServer creates a Server. workers bounds concurrent directory sizing.
func NewServer(probe optimizer.SystemProbe, workers int) *Server {
	return &Server{probe: probe, workers: workers}
}

type scanEntry struct {
	Name      string `json:"name"`
	Size      uint64 `json:"size"`
	Formatted string `json:"formatted"`
}

type scanResponse struct {
	Root           string      `json:"root"`
	Sort           string      `json:"sort"`
	Entries        []scanEntry `json:"entries"`
	Total          uint64      `json:"total"`
	TotalFormatted string      `json:"total_formatted"`
	Discovered     int         `json:"discovered"`
}

// Router builds the gin engine with all routes registered. Debug mode is
// switched to release mode; test mode is left alone.
func (s *Server) Router() *gin.Engine {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	api := r.Group("/api")
	{
		api.GET("/status", s.getStatus)
		api.GET("/scan", s.getScan)
	}

	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)

	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := srv.Shutdown(context.Background()); err != nil {
			return err
		}

		return nil
	}
}

func (s *Server) getStatus(c *gin.Context) {
	status, err := s.probe.Status(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (s *Server) getScan(c *gin.Context) {
	path := c.DefaultQuery("path", "/")

	mode, err := scanner.ParseSortMode(c.Query("sort"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := 0

	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
	}

	res, err := scanner.Scan(c.Request.Context(), path, scanner.Options{Sort: mode, Limit: limit, Workers: s.workers})
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	resp := scanResponse{
		Root:           res.Root,
		Sort:           mode.String(),
		Entries:        make([]scanEntry, 0, len(res.Entries)),
		Total:          res.Total,
		TotalFormatted: scanner.FormatSize(res.Total),
		Discovered:     res.Discovered,
	}

	for _, e := range res.Entries {
		resp.Entries = append(resp.Entries, scanEntry{Name: e.Name, Size: e.Size, Formatted: scanner.FormatSize(e.Size)})
	}

	c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scanner.ErrPathNotFound):
		return http.StatusNotFound
	case errors.Is(err, scanner.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, scanner.ErrNotDirectory):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
