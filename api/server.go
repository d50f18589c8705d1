// Package api exposes the ingestion and analysis HTTP surface.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/painscope"
	"github.com/zombar/painscope/db"
	"github.com/zombar/painscope/metrics"
	"github.com/zombar/painscope/models"
)

// Store is the record store surface the API depends on.
type Store interface {
	InsertPost(p *models.Post) (string, error)
	GetPostByID(id string) (*models.Post, error)
	DeletePostByID(id string) error
	CountPosts() (int, error)
	GetPainPoints(filter db.PainPointFilter) ([]models.PainPoint, error)
	GetCategoryStats() ([]models.CategoryStat, error)
	GetAutomationOpportunities(minIntensity, limit int) ([]models.AutomationOpportunity, error)
	GetRecentVsPrevious(days int) (*models.TrendComparison, error)
	GetTotalStats() (*models.TotalStats, error)
}

// Classifier runs one classification batch.
type Classifier interface {
	Run(ctx context.Context, limit int) (painscope.Stats, error)
}

// Server represents the API server
type Server struct {
	store       Store
	classifier  Classifier
	addr        string
	server      *http.Server
	mux         *http.ServeMux
	corsEnabled bool
}

// Config contains server configuration
type Config struct {
	Addr        string
	CORSEnabled bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Addr:        ":8080",
		CORSEnabled: true,
	}
}

// NewServer creates a new API server over the given store and classifier.
func NewServer(config Config, store Store, classifier Classifier) *Server {
	s := &Server{
		store:       store,
		classifier:  classifier,
		addr:        config.Addr,
		mux:         http.NewServeMux(),
		corsEnabled: config.CORSEnabled,
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         config.Addr,
		Handler:      otelhttp.NewHandler(s.middleware(s.mux), "api"),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 15 * time.Minute, // classification batches are slow
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// registerRoutes sets up all API routes
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.Handle("/metrics", promhttp.Handler())
	s.mux.HandleFunc("/api/posts", s.handleIngest)
	s.mux.HandleFunc("/api/posts/", s.handlePost) // Handles /api/posts/{id}
	s.mux.HandleFunc("/api/classify", s.handleClassify)
	s.mux.HandleFunc("/api/painpoints", s.handlePainPoints)
	s.mux.HandleFunc("/api/stats", s.handleStats)
	s.mux.HandleFunc("/api/stats/categories", s.handleCategoryStats)
	s.mux.HandleFunc("/api/stats/automation", s.handleAutomationStats)
	s.mux.HandleFunc("/api/stats/trends", s.handleTrends)
}

// Start starts the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down API server...")
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.middleware(s.mux)
}

// middleware applies common middleware to all routes
func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.corsEnabled {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
		}

		// Logging (skip health checks to reduce noise)
		start := time.Now()
		if r.URL.Path != "/health" {
			log.Printf("%s %s", r.Method, r.URL.Path)
		}

		next.ServeHTTP(w, r)

		if r.URL.Path != "/health" {
			log.Printf("%s %s - completed in %v", r.Method, r.URL.Path, time.Since(start))
		}
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	count, err := s.store.CountPosts()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get count")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"posts":  count,
		"time":   time.Now(),
	})
}

// IngestRequest represents a post submitted for ingestion.
type IngestRequest struct {
	Source   string     `json:"source"`
	Title    string     `json:"title"`
	Content  string     `json:"content"`
	URL      string     `json:"url"`
	Author   string     `json:"author"`
	PostedAt *time.Time `json:"posted_at"`
}

// handleIngest stores a submitted post, deduplicating by fingerprint.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Source == "" {
		respondError(w, http.StatusBadRequest, "source is required")
		return
	}
	if req.Title == "" && req.Content == "" {
		respondError(w, http.StatusBadRequest, "title or content is required")
		return
	}

	post := &models.Post{
		Source:   req.Source,
		Title:    req.Title,
		Content:  req.Content,
		URL:      req.URL,
		Author:   req.Author,
		PostedAt: req.PostedAt,
	}

	id, err := s.store.InsertPost(post)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			metrics.PostsDuplicate.WithLabelValues(req.Source).Inc()
			respondJSON(w, http.StatusOK, map[string]any{
				"duplicate":   true,
				"fingerprint": post.Fingerprint,
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to store post")
		return
	}

	metrics.PostsIngested.WithLabelValues(req.Source).Inc()
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":          id,
		"fingerprint": post.Fingerprint,
		"duplicate":   false,
	})
}

// handlePost handles GET and DELETE for /api/posts/{id}.
func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		post, err := s.store.GetPostByID(id)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "database error")
			return
		}
		if post == nil {
			respondError(w, http.StatusNotFound, "post not found")
			return
		}
		respondJSON(w, http.StatusOK, post)
	case http.MethodDelete:
		if err := s.store.DeletePostByID(id); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				respondError(w, http.StatusNotFound, "post not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "failed to delete post")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "post deleted successfully",
		})
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// ClassifyRequest represents a classification batch request.
type ClassifyRequest struct {
	Limit int `json:"limit"`
}

// handleClassify runs one classification batch.
func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req ClassifyRequest
	// An empty body means default limit.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	stats, err := s.classifier.Run(ctx, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("classification failed: %v", err))
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// handlePainPoints lists pain points with optional filters.
func (s *Server) handlePainPoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	query := r.URL.Query()
	filter := db.PainPointFilter{
		Category:     query.Get("category"),
		Audience:     query.Get("audience"),
		Automation:   query.Get("automation"),
		MinIntensity: queryInt(query.Get("min_intensity"), 0),
		Limit:        queryInt(query.Get("limit"), 50),
	}

	painPoints, err := s.store.GetPainPoints(filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"pain_points": painPoints,
		"count":       len(painPoints),
	})
}

// handleStats returns overall store statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.store.GetTotalStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

// handleCategoryStats returns per-category pain point statistics.
func (s *Server) handleCategoryStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	stats, err := s.store.GetCategoryStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": stats})
}

// handleAutomationStats returns the automation opportunity leaderboard.
func (s *Server) handleAutomationStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	minIntensity := queryInt(r.URL.Query().Get("min_intensity"), 6)
	limit := queryInt(r.URL.Query().Get("limit"), 20)

	opportunities, err := s.store.GetAutomationOpportunities(minIntensity, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"opportunities": opportunities})
}

// handleTrends compares pain point categories across two adjacent windows.
func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	days := queryInt(r.URL.Query().Get("days"), 7)
	trends, err := s.store.GetRecentVsPrevious(days)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "database error")
		return
	}
	respondJSON(w, http.StatusOK, trends)
}

func queryInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
