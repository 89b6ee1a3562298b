package server

import (
	"errors"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/agenthands/profitgraph/internal/artifacts"
	"github.com/agenthands/profitgraph/internal/core"
	"github.com/agenthands/profitgraph/internal/core/common"
	"github.com/agenthands/profitgraph/internal/core/community"
	"github.com/agenthands/profitgraph/internal/logger"
)

// Server exposes pipeline and refiner triggers over HTTP. Only one run
// executes at a time.
type Server struct {
	Pipeline *core.Pipeline
	Log      *logger.Logger

	running sync.Mutex
}

func NewServer(p *core.Pipeline, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	return &Server{Pipeline: p, Log: log}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("profitgraph"))

	r.GET("/healthz", s.Health)
	r.GET("/transcripts/pending", s.Pending)
	r.POST("/pipeline/runs", s.RunPipeline)
	r.POST("/refiner/runs", s.RunRefiner)
	r.GET("/graph/clusters", s.Clusters)

	return r
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"sync_enabled": s.Pipeline.Sync.Enabled(),
	})
}

func (s *Server) Pending(c *gin.Context) {
	candidates, err := s.Pipeline.SelectNextTranscript()
	if err != nil {
		s.Log.Error("failed to list transcripts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transcripts"})
		return
	}
	pending, err := s.Pipeline.Store.Pending.Load()
	if err != nil {
		s.Log.Error("failed to read pending sync ledger", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read pending sync ledger"})
		return
	}

	unsynced := make([]string, 0, len(pending))
	for id := range pending {
		unsynced = append(unsynced, id)
	}
	sort.Strings(unsynced)

	c.JSON(http.StatusOK, gin.H{
		"transcripts":  candidates,
		"pending_sync": unsynced,
	})
}

// RunRequest selects what to process. File and Video pick one transcript;
// otherwise up to Limit pending transcripts run (0 = all).
type RunRequest struct {
	File  string `json:"file"`
	Video string `json:"video"`
	Limit int    `json:"limit"`
}

func (s *Server) RunPipeline(c *gin.Context) {
	var req RunRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
	}
	if req.Limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must not be negative"})
		return
	}

	path, err := s.resolve(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !s.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}
	defer s.running.Unlock()

	ctx := c.Request.Context()
	if path != "" {
		report, err := s.Pipeline.RunOne(ctx, path)
		if err != nil {
			s.Log.Warn("pipeline run failed", "case_id", report.CaseID, "error", err)
			c.JSON(http.StatusUnprocessableEntity, gin.H{"reports": []core.RunReport{report}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reports": []core.RunReport{report}})
		return
	}

	reports, err := s.Pipeline.RunPending(ctx, req.Limit)
	if err != nil {
		s.Log.Error("pending run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run pending transcripts", "reports": reports})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// resolve maps a request to a transcript path inside the storage dir.
func (s *Server) resolve(req RunRequest) (string, error) {
	dir := s.Pipeline.Store.Dir
	switch {
	case req.File != "":
		name := filepath.Base(strings.ReplaceAll(req.File, "\\", "/"))
		if name == "." || name == "/" || name == ".." {
			return "", errors.New("invalid file")
		}
		return filepath.Join(dir, name), nil
	case req.Video != "":
		id := artifacts.ExtractVideoID(req.Video)
		if id == "" {
			return "", errors.New("could not extract a video id")
		}
		return artifacts.TranscriptPath(dir, id), nil
	}
	return "", nil
}

func (s *Server) RunRefiner(c *gin.Context) {
	if !s.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}
	defer s.running.Unlock()

	results, err := s.Pipeline.Refine(c.Request.Context())
	if err != nil {
		if common.IsKind(err, common.KindConfig) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store is not configured"})
			return
		}
		s.Log.Error("refiner run failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Refiner run failed", "results": results})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) Clusters(c *gin.Context) {
	clusters, err := s.Pipeline.Clusters(c.Request.Context())
	if err != nil {
		if common.IsKind(err, common.KindConfig) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Graph store is not configured"})
			return
		}
		s.Log.Error("failed to detect clusters", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read graph"})
		return
	}
	if clusters == nil {
		clusters = []community.Cluster{}
	}
	c.JSON(http.StatusOK, gin.H{"clusters": clusters})
}
