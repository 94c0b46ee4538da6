// Package server exposes the event intake surfaces: an Event Grid style
// webhook, an NSQ consumer and the gRPC health service.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jorgelunams/contratospoc/constants"
	"github.com/jorgelunams/contratospoc/internal/async"
	"github.com/jorgelunams/contratospoc/internal/pipeline"
)

// maxBody bounds one webhook delivery.
const maxBody = 1 << 20

// HealthFunc reports whether the process can serve.
type HealthFunc func(ctx context.Context) error

type HTTPConfig struct {
	JWTSecret string
	Health    HealthFunc
	// Stats, when set, is reported by /healthz.
	Stats func() async.Stats
}

// gridEvent is one entry of an Event Grid delivery. Both the Event Grid
// "eventType" and the plain "event_type" spellings are accepted.
type gridEvent struct {
	ID        string   `json:"id"`
	Subject   string   `json:"subject"`
	EventType string   `json:"eventType"`
	PlainType string   `json:"event_type"`
	Data      gridData `json:"data"`
}

type gridData struct {
	URL            string `json:"url"`
	ValidationCode string `json:"validationCode"`
}

func (g gridEvent) event() pipeline.Event {
	kind := g.EventType
	if kind == "" {
		kind = g.PlainType
	}
	return pipeline.Event{ID: g.ID, Subject: g.Subject, EventType: kind, Data: pipeline.EventData{URL: g.Data.URL}}
}

// NewRouter builds the gin engine serving POST /events and GET /healthz.
func NewRouter(q async.Queue, cfg HTTPConfig, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.Use(RequestID(), Recovery(logger), RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		body := gin.H{"status": "ok"}
		if cfg.Stats != nil {
			body["queue"] = cfg.Stats()
		}
		if cfg.Health != nil {
			if err := cfg.Health(c.Request.Context()); err != nil {
				body["status"], body["error"] = "unavailable", err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	})

	events := r.Group("/events")
	if cfg.JWTSecret != "" {
		events.Use(Auth(cfg.JWTSecret))
	}
	h := &eventHandler{queue: q, logger: logger}
	events.POST("", h.receive)
	return r
}

type eventHandler struct {
	queue  async.Queue
	logger *slog.Logger
}

func (h *eventHandler) receive(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	batch, err := decodeBatch(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event payload", "detail": err.Error()})
		return
	}

	for _, ev := range batch {
		if ev.event().EventType == constants.EventTypeSubscriptionValidation {
			h.logger.Info("events.subscription.validated", "event_id", ev.ID)
			c.JSON(http.StatusOK, gin.H{"validationResponse": ev.Data.ValidationCode})
			return
		}
	}

	accepted := 0
	for _, ev := range batch {
		job := async.Job{Event: ev.event(), Source: async.SourceHTTP, SubmittedAt: time.Now()}
		if err := h.queue.Enqueue(c.Request.Context(), job); err != nil {
			status := http.StatusServiceUnavailable
			if !errors.Is(err, async.ErrQueueClosed) {
				status = http.StatusInternalServerError
			}
			h.logger.Warn("events.enqueue.failed", "event_id", ev.ID, "error", err, "request_id", requestID(c))
			c.JSON(status, gin.H{"error": "Could not accept events", "accepted": accepted})
			return
		}
		accepted++
	}
	c.JSON(http.StatusAccepted, gin.H{"accepted": accepted})
}

// decodeBatch accepts either a JSON array of events or a single event.
func decodeBatch(body []byte) ([]gridEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, errors.New("empty body")
	}
	if body[0] == '[' {
		var batch []gridEvent
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, err
		}
		return batch, nil
	}
	var one gridEvent
	if err := json.Unmarshal(body, &one); err != nil {
		return nil, err
	}
	return []gridEvent{one}, nil
}
