package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nsqio/go-nsq"

	"github.com/jorgelunams/contratospoc/internal/async"
)

type NSQConfig struct {
	Lookupd     string
	NSQD        string
	Topic       string
	Channel     string
	MaxInFlight int
}

// EventConsumer feeds NSQ messages carrying one event each into the queue.
type EventConsumer struct {
	queue  async.Queue
	logger *slog.Logger
}

func NewEventConsumer(q async.Queue, logger *slog.Logger) *EventConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventConsumer{queue: q, logger: logger}
}

// HandleMessage drops malformed messages and requeues when the queue
// refuses the job.
func (h *EventConsumer) HandleMessage(m *nsq.Message) error {
	if len(m.Body) == 0 {
		return nil
	}
	batch, err := decodeBatch(m.Body)
	if err != nil {
		h.logger.Error("nsq.message.invalid", "error", err, "attempts", m.Attempts)
		return nil
	}
	for _, ev := range batch {
		job := async.Job{Event: ev.event(), Source: async.SourceNSQ, SubmittedAt: time.Now()}
		if err := h.queue.Enqueue(context.Background(), job); err != nil {
			h.logger.Warn("nsq.enqueue.failed", "event_id", ev.ID, "error", err)
			return err
		}
	}
	return nil
}

// StartConsumer connects a consumer for cfg.Topic. The caller stops it.
func StartConsumer(cfg NSQConfig, h nsq.Handler, logger *slog.Logger) (*nsq.Consumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	nsqCfg := nsq.NewConfig()
	if cfg.MaxInFlight > 0 {
		nsqCfg.MaxInFlight = cfg.MaxInFlight
	}
	consumer, err := nsq.NewConsumer(cfg.Topic, cfg.Channel, nsqCfg)
	if err != nil {
		return nil, fmt.Errorf("nsq consumer: %w", err)
	}
	consumer.AddHandler(h)

	switch {
	case cfg.Lookupd != "":
		err = consumer.ConnectToNSQLookupd(cfg.Lookupd)
	case cfg.NSQD != "":
		err = consumer.ConnectToNSQD(cfg.NSQD)
	default:
		err = fmt.Errorf("no nsqd or lookupd address")
	}
	if err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("nsq connect: %w", err)
	}
	logger.Info("nsq consumer connected", "topic", cfg.Topic, "channel", cfg.Channel)
	return consumer, nil
}
