package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/swiftcourier/courier-api/internal/stream"
)

// heartbeatInterval keeps proxies from reaping idle admin streams.
var heartbeatInterval = 30 * time.Second

// Get /v1/admin/stream
// Persistent SSE feed of package-domain events
func (s *Server) adminStream(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	gateway := stream.Open(c.Request.Context(), s.bus, s.shipments.Stats,
		stream.WithHeartbeatInterval(heartbeatInterval),
		stream.WithLogger(s.logger),
	)
	defer gateway.Close()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-gateway.Done():
			return
		case frame := <-gateway.Frames():
			if err := writeSSE(c.Writer, frame); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// Get /v1/admin/stats
// One-off snapshot of the store counters
func (s *Server) adminStats(c *gin.Context) {
	stats, err := s.shipments.Stats(c.Request.Context())
	if err != nil {
		s.responder.RespondError(c, err)
		return
	}
	byStatus := make(map[string]int64, len(stats.ByStatus))
	for status, count := range stats.ByStatus {
		byStatus[string(status)] = count
	}
	respondOK(c, gin.H{
		"totalPackages":   stats.TotalPackages,
		"totalActivities": stats.TotalActivities,
		"byStatus":        byStatus,
	})
}

func writeSSE(w io.Writer, frame stream.Frame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
