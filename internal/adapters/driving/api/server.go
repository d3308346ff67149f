// Package api exposes the assistant over HTTP. Answers are served as
// JSON or as a server-sent event stream; ingestion and status
// endpoints drive and inspect the pipeline.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ethica-ai/ethica-cli/internal/core/domain"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driven"
	"github.com/ethica-ai/ethica-cli/internal/core/ports/driving"
	"github.com/ethica-ai/ethica-cli/internal/core/services"
	"github.com/ethica-ai/ethica-cli/internal/logger"
)

// Config holds configuration for the HTTP server.
type Config struct {
	// Addr is the listen address (default: :8080).
	Addr string

	// DefaultTopK is used when a chat request omits top_k.
	DefaultTopK int
}

// Server wires the assistant and ingestor into HTTP handlers.
type Server struct {
	assistant   driving.Assistant
	ingestor    driving.Ingestor
	ledger      driven.IngestLedger
	addr        string
	defaultTopK int
}

// New creates the HTTP server. The ledger is optional; without it the
// status endpoint reports an empty document list.
func New(assistant driving.Assistant, ingestor driving.Ingestor, ledger driven.IngestLedger, cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.DefaultTopK == 0 {
		cfg.DefaultTopK = services.DefaultTopK
	}
	return &Server{
		assistant:   assistant,
		ingestor:    ingestor,
		ledger:      ledger,
		addr:        cfg.Addr,
		defaultTopK: cfg.DefaultTopK,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		v1.POST("/chat", s.handleChat)
		v1.POST("/ingest", s.handleIngest)
		v1.GET("/status", s.handleStatus)
		v1.GET("/health", s.handleLiveness)
		v1.GET("/rag/health", s.handleHealth)
	}
	return router
}

// Run serves until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// chatRequest is the body of POST /api/v1/chat.
type chatRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
	Stream   bool   `json:"stream"`
}

// handleChat answers a question, blocking or streaming depending on
// the request.
func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}
	if req.TopK == 0 {
		req.TopK = s.defaultTopK
	}

	if req.Stream {
		s.streamChat(c, req)
		return
	}

	answer, err := s.assistant.Ask(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question"})
		return
	}
	c.JSON(http.StatusOK, answer)
}

// streamChat emits one metadata event, the content increments, and a
// final end event over SSE.
func (s *Server) streamChat(c *gin.Context, req chatRequest) {
	rc, tokens, err := s.assistant.AskStream(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to answer question"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	c.SSEvent("message", gin.H{
		"type":               "metadata",
		"query":              rc.Query,
		"reformulated_query": rc.ReformulatedQuery,
		"num_documents":      rc.NumDocuments(),
	})
	c.Writer.Flush()

	for tok := range tokens {
		if tok.Err != nil {
			c.SSEvent("message", gin.H{"type": "error", "error": tok.Err.Error()})
			c.Writer.Flush()
			return
		}
		if tok.Done {
			break
		}
		c.SSEvent("message", gin.H{"type": "chunk", "content": tok.Content})
		c.Writer.Flush()
	}

	c.SSEvent("message", gin.H{"type": "end"})
	c.Writer.Flush()
}

// ingestRequest is the body of POST /api/v1/ingest. An empty body
// ingests everything in storage.
type ingestRequest struct {
	Key string `json:"key"`
}

// handleIngest runs the ingestion pipeline for one document or the
// whole corpus.
func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
			return
		}
	}

	if req.Key != "" {
		chunks, err := s.ingestor.IngestDocument(c.Request.Context(), req.Key)
		if err != nil {
			logger.Error("Ingest %s failed: %v", req.Key, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed", "file": req.Key})
			return
		}
		c.JSON(http.StatusOK, gin.H{"file": req.Key, "chunks": chunks})
		return
	}

	report, err := s.ingestor.IngestAll(c.Request.Context())
	if err != nil {
		logger.Error("Ingest all failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingestion failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// handleStatus lists the ingestion ledger.
func (s *Server) handleStatus(c *gin.Context) {
	if s.ledger == nil {
		c.JSON(http.StatusOK, gin.H{"documents": []any{}})
		return
	}

	records, err := s.ledger.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read ledger"})
		return
	}
	if records == nil {
		records = []driven.DocumentRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"documents": records})
}

// handleLiveness reports that the process is up, probing nothing.
func (s *Server) handleLiveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleHealth probes the pipeline's dependencies and reports the
// aggregate. Degraded and unhealthy states map to 503 so load
// balancers can react.
func (s *Server) handleHealth(c *gin.Context) {
	status := s.assistant.Health(c.Request.Context())

	code := http.StatusOK
	if status.Overall != domain.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
