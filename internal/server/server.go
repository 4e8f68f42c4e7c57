package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"modelfan/internal/config"
	"modelfan/internal/kvstore"
	"modelfan/internal/models"
	"modelfan/internal/orchestrator"
	"modelfan/internal/translator"
)

const (
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	idleTimeout         = 120 * time.Second

	binKeyPrefix = "bin:"
)

// Generator runs one multi-model generation request.
type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) ([]models.CompletionResult, error)
}

type Server struct {
	cfg       config.Config
	generator Generator
	store     kvstore.Store
	app       *echo.Echo
	address   string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, generator Generator, store kvstore.Store) (*Server, error) {
	if generator == nil {
		return nil, errors.New("generator must not be nil")
	}
	if store == nil {
		return nil, errors.New("store must not be nil")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))

	srv := &Server{
		cfg:       cfg,
		generator: generator,
		store:     store,
		app:       e,
		address:   fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	slog.Info("starting server", "addr", s.address)

	// No WriteTimeout: a generation response can legitimately stay open for
	// the orchestrator's full wall-clock budget.
	httpServer := &http.Server{
		Addr:        s.address,
		Handler:     s.app,
		ReadTimeout: readTimeout,
		IdleTimeout: idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.POST("/api/generate", s.handleGenerate)
	s.app.GET("/api/bins", s.handleListBins)
	s.app.GET("/api/bins/:id", s.handleGetBin)
	s.app.PUT("/api/bins/:id", s.handlePutBin)
	s.app.DELETE("/api/bins/:id", s.handleDeleteBin)
	s.app.GET("/api/bins/:id/export", s.handleExportBin)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req translator.GenerateRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return requestError{Status: http.StatusBadRequest, Message: "Invalid request"}
	}

	results, err := s.generator.Generate(c.Request().Context(), req.ToUnified())
	if errors.Is(err, orchestrator.ErrInvalidRequest) {
		return requestError{Status: http.StatusBadRequest, Message: "Invalid request"}
	}
	if err != nil {
		failure := translator.NewFailureResponse(err.Error(), req)
		slog.Error("generation failed",
			"request_id", failure.Details.RequestID,
			"models", req.Models,
			"error", err,
		)
		return c.JSON(http.StatusInternalServerError, failure)
	}

	return c.JSON(http.StatusOK, translator.GenerateResponse{Responses: results})
}

func (s *Server) handleListBins(c echo.Context) error {
	ctx := c.Request().Context()
	keys, err := s.store.List(ctx, binKeyPrefix)
	if err != nil {
		return fmt.Errorf("list bins: %w", err)
	}

	bins := make([]models.Bin, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if errors.Is(err, kvstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("load bin %q: %w", key, err)
		}
		var bin models.Bin
		if err := json.Unmarshal(data, &bin); err != nil {
			slog.Warn("skipping undecodable bin record", "key", key, "error", err)
			continue
		}
		bins = append(bins, bin)
	}

	return c.JSON(http.StatusOK, map[string][]models.Bin{"bins": bins})
}

func (s *Server) handleGetBin(c echo.Context) error {
	bin, err := s.loadBin(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bin)
}

func (s *Server) handlePutBin(c echo.Context) error {
	var bin models.Bin
	if err := decodeRequestBody(c, &bin); err != nil {
		return err
	}

	now := time.Now().Unix()
	bin.ID = c.Param("id")
	bin.UpdatedAt = now
	if bin.CreatedAt == 0 {
		bin.CreatedAt = now
	}

	data, err := json.Marshal(bin)
	if err != nil {
		return fmt.Errorf("encode bin: %w", err)
	}
	if err := s.store.Put(c.Request().Context(), binKeyPrefix+bin.ID, data); err != nil {
		return fmt.Errorf("store bin: %w", err)
	}

	return c.JSON(http.StatusOK, bin)
}

func (s *Server) handleDeleteBin(c echo.Context) error {
	if err := s.store.Delete(c.Request().Context(), binKeyPrefix+c.Param("id")); err != nil {
		return fmt.Errorf("delete bin: %w", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleExportBin(c echo.Context) error {
	bin, err := s.loadBin(c)
	if err != nil {
		return err
	}

	payload, err := translator.BinToJSONL(bin)
	if err != nil {
		return fmt.Errorf("export bin %q: %w", bin.ID, err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", bin.ID+".jsonl"))
	return c.Blob(http.StatusOK, "application/jsonl", payload)
}

func (s *Server) loadBin(c echo.Context) (models.Bin, error) {
	id := c.Param("id")
	data, err := s.store.Get(c.Request().Context(), binKeyPrefix+id)
	if errors.Is(err, kvstore.ErrNotFound) {
		return models.Bin{}, requestError{Status: http.StatusNotFound, Message: "Bin not found"}
	}
	if err != nil {
		return models.Bin{}, fmt.Errorf("load bin %q: %w", id, err)
	}

	var bin models.Bin
	if err := json.Unmarshal(data, &bin); err != nil {
		return models.Bin{}, fmt.Errorf("decode bin %q: %w", id, err)
	}
	return bin, nil
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{Status: http.StatusBadRequest, Message: "request body is required"}
		}
		return requestError{Status: http.StatusBadRequest, Message: fmt.Sprintf("invalid JSON payload: %v", err)}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{Status: http.StatusBadRequest, Message: "request body must contain a single JSON object"}
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
}

func (e requestError) Error() string {
	return e.Message
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = c.JSON(reqErr.Status, map[string]string{"error": reqErr.Message})
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		_ = c.JSON(httpErr.Code, map[string]string{"error": fmt.Sprintf("%v", httpErr.Message)})
		return
	}

	slog.Error("unhandled request error", "error", err)
	_ = c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
