package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/traindash/internal/models"
	"gorm.io/gorm"
)

// registerRoutes sets up all API routes on the Gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.GET("/overview", s.handleOverview)
	api.GET("/developers", s.handleDevelopers)
	api.GET("/developers/:username", s.handleDeveloper)
	api.GET("/reviewers", s.handleReviewers)
	api.GET("/domains", s.handleDomains)
	api.GET("/domains/:name", s.handleDomain)
	api.GET("/interfaces", s.handleInterfaces)
	api.GET("/prs", s.handlePRs)
	api.GET("/prs/:number", s.handlePR)
	api.POST("/prs/:number/refresh", s.handleRefreshPR)
	api.GET("/pr-states", s.handlePRStates)
	api.GET("/stats/timeline", s.handleTimeline)
	api.GET("/sync/status", s.handleSyncStatus)
	api.POST("/sync", s.handleTriggerSync)
	api.GET("/events", s.handleSSE)
}

func (s *Server) handleOverview(c *gin.Context) {
	overview, err := LoadOverview(s.db)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

func (s *Server) handleDevelopers(c *gin.Context) {
	var stats []models.DeveloperStats
	if err := s.db.Order("total_prs DESC").Find(&stats).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleDeveloper(c *gin.Context) {
	username := c.Param("username")
	var stats models.DeveloperStats
	err := s.db.Where("username = ?", username).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown developer"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleReviewers(c *gin.Context) {
	var stats []models.ReviewerStats
	if err := s.db.Order("total_reviews DESC").Find(&stats).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleDomains(c *gin.Context) {
	var domains []models.Domain
	if err := s.db.Order("domain_name ASC").Find(&domains).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, domains)
}

func (s *Server) handleDomain(c *gin.Context) {
	view, err := LoadDomain(s.db, c.Param("name"))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown domain"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) handleInterfaces(c *gin.Context) {
	q := s.db.Order("domain_id ASC, interface_num ASC")
	if domain := c.Query("domain"); domain != "" {
		q = q.Joins("JOIN domains ON domains.id = interfaces.domain_id").
			Where("domains.domain_name = ?", domain)
	}
	var ifaces []models.Interface
	if err := q.Find(&ifaces).Error; err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, ifaces)
}

func (s *Server) handlePRs(c *gin.Context) {
	filter := PRFilter{
		Domain:     c.Query("domain"),
		Trainer:    c.Query("trainer"),
		State:      c.Query("state"),
		Complexity: c.Query("complexity"),
		Difficulty: c.Query("difficulty"),
		Pod:        c.Query("pod"),
		WeekNum:    intQuery(c, "week"),
		Limit:      intQuery(c, "limit"),
		Offset:     intQuery(c, "offset"),
	}
	prs, total, err := LoadPRs(s.db, filter)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "prs": prs})
}

func (s *Server) handlePR(c *gin.Context) {
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid PR number"})
		return
	}
	var pr models.PullRequest
	err = s.db.Preload("Reviews").Preload("CheckRuns").
		Where("number = ?", number).First(&pr).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown PR"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, pr)
}

func (s *Server) handleRefreshPR(c *gin.Context) {
	if s.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync not configured"})
		return
	}
	number, err := strconv.Atoi(c.Param("number"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid PR number"})
		return
	}
	pr, err := s.runner.QuickUpdate(c.Request.Context(), number)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, pr)
}

func (s *Server) handlePRStates(c *gin.Context) {
	rows, err := LoadStateBuckets(s.db)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleTimeline(c *gin.Context) {
	rows, err := LoadTimeline(s.db)
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleSyncStatus(c *gin.Context) {
	var state models.SyncState
	err := s.db.First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusOK, gin.H{"status": "never synced"})
		return
	}
	if err != nil {
		serverError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"running":             s.syncRunning.Load(),
		"last_sync_time":      state.LastSyncTime,
		"last_full_sync_time": state.LastFullSyncTime,
		"last_sync_pr_count":  state.LastSyncPRCount,
		"last_sync_duration":  state.LastSyncDuration,
		"sync_type":           state.SyncType,
		"last_sync_status":    state.LastSyncStatus,
		"last_error":          state.LastError,
	})
}

// handleTriggerSync kicks off a sync pass in the background and returns
// immediately. One manual sync at a time per process.
func (s *Server) handleTriggerSync(c *gin.Context) {
	if s.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sync not configured"})
		return
	}
	forceFull := c.Query("full") == "true"

	if !s.syncRunning.CompareAndSwap(false, true) {
		c.JSON(http.StatusConflict, gin.H{"error": "sync already running"})
		return
	}
	go func() {
		defer s.syncRunning.Store(false)
		if _, err := s.runner.Run(context.Background(), forceFull); err != nil {
			log.Printf("api: triggered sync: %v", err)
		}
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "full": forceFull})
}

func intQuery(c *gin.Context, name string) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

func serverError(c *gin.Context, err error) {
	log.Printf("api: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
