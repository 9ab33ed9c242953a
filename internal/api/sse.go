package api

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/traindash/internal/models"
)

// syncEvent is the payload pushed when a sync pass finishes.
type syncEvent struct {
	SyncType  string     `json:"sync_type"`
	Status    string     `json:"status"`
	PRCount   int        `json:"pr_count"`
	Duration  int        `json:"duration_seconds"`
	SyncedAt  *time.Time `json:"synced_at,omitempty"`
	LastError string     `json:"last_error,omitempty"`
}

// handleSSE streams sync-completion events. The handler polls the sync
// checkpoint and emits an event whenever its timestamp advances, with a
// periodic heartbeat so proxies keep the connection open.
func (s *Server) handleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	var lastSeen time.Time
	var state models.SyncState
	if err := s.db.First(&state).Error; err == nil && state.LastSyncTime != nil {
		lastSeen = *state.LastSyncTime
	}

	ctx := c.Request.Context()
	ticker := time.NewTicker(3 * time.Second)
	heartbeat := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			var state models.SyncState
			if err := s.db.First(&state).Error; err != nil {
				continue
			}
			if state.LastSyncTime == nil || !state.LastSyncTime.After(lastSeen) {
				continue
			}
			lastSeen = *state.LastSyncTime

			writeSSE(c.Writer, "sync_complete", syncEvent{
				SyncType:  state.SyncType,
				Status:    state.LastSyncStatus,
				PRCount:   state.LastSyncPRCount,
				Duration:  state.LastSyncDuration,
				SyncedAt:  state.LastSyncTime,
				LastError: state.LastError,
			})
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, jsonData)
}
