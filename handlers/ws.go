package handlers

import (
	"log"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"shortsmith/models"
)

const statusPollInterval = 500 * time.Millisecond

func (h *VideoHandler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(h.cfg.CORSOrigins, "*") || slices.Contains(h.cfg.CORSOrigins, origin)
		},
	}
}

// StreamStatus handles GET /api/ws/:job_id. It pushes the job status on
// every change and closes once the job is completed or failed.
func (h *VideoHandler) StreamStatus(c *gin.Context) {
	jobID := c.Param("job_id")
	if _, ok := h.lookupJob(c); !ok {
		return
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[Job %s] websocket upgrade failed: %v", jobID, err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are noticed
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(statusPollInterval)
	defer ticker.Stop()

	var last *models.StatusResponse
	for {
		job, err := h.jobs.Get(c.Request.Context(), jobID)
		if err != nil {
			log.Printf("[Job %s] websocket status lookup failed: %v", jobID, err)
			return
		}

		resp := job.ToResponse()
		if last == nil || changed(*last, resp) {
			if err := conn.WriteJSON(resp); err != nil {
				return
			}
			last = &resp
		}

		if job.Terminal() {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, resp.Status)
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			return
		}

		select {
		case <-closed:
			return
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
		}
	}
}

func changed(a, b models.StatusResponse) bool {
	return a.Status != b.Status || a.Progress != b.Progress || a.CurrentStep != b.CurrentStep || a.SkippedScenes != b.SkippedScenes
}
