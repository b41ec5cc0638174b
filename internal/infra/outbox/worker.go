package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// streams maps the aggregate part of an event name (message.sent,
// user.followed, ...) to the topic family it publishes on.
var streams = map[string]string{
	"message": "messaging",
	"user":    "social",
	"post":    "posts",
	"story":   "stories",
}

// Worker drains the outbox into Kafka: claim an entry, wrap it in a
// CloudEvents envelope, publish, mark published. Failures go back to the
// queue on the backoff schedule, so delivery is at-least-once.
type Worker struct {
	Store       *Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.drain(ctx); err != nil {
				return err
			}
		}
	}
}

// drain publishes every due entry, oldest first, until the queue is empty.
func (w *Worker) drain(ctx context.Context) error {
	for {
		entry, err := w.Store.Claim(ctx, w.workerID())
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		w.publish(ctx, entry)
	}
}

func (w *Worker) publish(ctx context.Context, entry *Entry) {
	payload, err := w.envelope(entry)
	if err != nil {
		_ = w.Store.Retry(ctx, entry.ID, w.nextAttempt(entry.Attempts), err.Error())
		return
	}
	headers := map[string]string{"content-type": "application/cloudevents+json"}
	for k, v := range entry.Headers {
		headers[k] = v
	}
	// The aggregate ID keys the partition, keeping per-aggregate order.
	if err := w.Producer.Publish(ctx, w.topicFor(entry.Name), entry.Aggregate, payload, headers); err != nil {
		_ = w.Store.Retry(ctx, entry.ID, w.nextAttempt(entry.Attempts), err.Error())
		return
	}
	_ = w.Store.MarkPublished(ctx, entry.ID)
}

type cloudEvent struct {
	SpecVersion     string          `json:"specversion"`
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Source          string          `json:"source"`
	Subject         string          `json:"subject,omitempty"`
	Time            time.Time       `json:"time"`
	DataContentType string          `json:"datacontenttype"`
	Data            json.RawMessage `json:"data"`
}

func (w *Worker) envelope(entry *Entry) ([]byte, error) {
	if !json.Valid(entry.Payload) {
		return nil, fmt.Errorf("outbox: entry %s payload is not valid JSON", entry.ID)
	}
	return json.Marshal(cloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.NewString(),
		Type:            entry.Name + ".v1",
		Source:          w.source(),
		Subject:         entry.Aggregate,
		Time:            entry.OccurredAt,
		DataContentType: "application/json",
		Data:            entry.Payload,
	})
}

// topicFor routes an event to its stream's topic, e.g. message.sent →
// messaging.events.v1. Aggregates outside the catalog publish on a topic
// named after themselves rather than being dropped.
func (w *Worker) topicFor(eventName string) string {
	aggregate := eventName
	if idx := strings.IndexRune(eventName, '.'); idx > 0 {
		aggregate = eventName[:idx]
	}
	stream, ok := streams[aggregate]
	if !ok {
		stream = aggregate
	}
	return w.TopicPrefix + stream + ".events.v1"
}

func (w *Worker) nextAttempt(attempts int) time.Time {
	if len(w.Backoff) == 0 {
		return time.Now().Add(5 * time.Second)
	}
	if attempts >= len(w.Backoff) {
		attempts = len(w.Backoff) - 1
	}
	return time.Now().Add(w.Backoff[attempts])
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://orbit"
}
