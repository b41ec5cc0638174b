package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithoutDependencies(t *testing.T) {
	w := &Worker{}
	err := w.Run(context.Background())
	assert.ErrorIs(t, err, ErrWorkerNotConfigured)
}

func TestTopicRouting(t *testing.T) {
	tests := []struct {
		event string
		topic string
	}{
		{"message.sent", "messaging.events.v1"},
		{"message.thread_seen", "messaging.events.v1"},
		{"user.followed", "social.events.v1"},
		{"user.connected", "social.events.v1"},
		{"post.created", "posts.events.v1"},
		{"post.liked", "posts.events.v1"},
		{"story.created", "stories.events.v1"},
		// Uncataloged aggregates get a topic of their own, not a drop.
		{"billing.invoiced", "billing.events.v1"},
	}
	w := &Worker{}
	for _, tc := range tests {
		assert.Equal(t, tc.topic, w.topicFor(tc.event), tc.event)
	}
}

func TestTopicRoutingWithPrefix(t *testing.T) {
	w := &Worker{TopicPrefix: "staging."}
	assert.Equal(t, "staging.messaging.events.v1", w.topicFor("message.sent"))
}

func TestEnvelopeIsCloudEvent(t *testing.T) {
	occurred := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	entry := &Entry{
		ID:         "evt-1",
		Name:       "message.sent",
		Payload:    []byte(`{"message_id":"m1","sender_id":"a"}`),
		OccurredAt: occurred,
		Aggregate:  "m1",
	}

	w := &Worker{Source: "app://orbit-test"}
	payload, err := w.envelope(entry)
	require.NoError(t, err)

	var evt struct {
		SpecVersion string          `json:"specversion"`
		Type        string          `json:"type"`
		Source      string          `json:"source"`
		Subject     string          `json:"subject"`
		Time        time.Time       `json:"time"`
		Data        json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "1.0", evt.SpecVersion)
	assert.Equal(t, "message.sent.v1", evt.Type)
	assert.Equal(t, "app://orbit-test", evt.Source)
	assert.Equal(t, "m1", evt.Subject)
	assert.True(t, occurred.Equal(evt.Time))
	assert.JSONEq(t, string(entry.Payload), string(evt.Data))
}

func TestEnvelopeDefaultSource(t *testing.T) {
	w := &Worker{}
	payload, err := w.envelope(&Entry{ID: "evt-2", Name: "post.created", Payload: []byte(`{}`)})
	require.NoError(t, err)
	var evt struct {
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "app://orbit", evt.Source)
}

func TestEnvelopeRejectsCorruptPayload(t *testing.T) {
	w := &Worker{}
	_, err := w.envelope(&Entry{ID: "evt-3", Name: "post.created", Payload: []byte("{not json")})
	assert.Error(t, err)
}

func TestNextAttemptFollowsBackoffSchedule(t *testing.T) {
	w := &Worker{Backoff: []time.Duration{time.Second, time.Minute, time.Hour}}

	first := w.nextAttempt(0)
	assert.WithinDuration(t, time.Now().Add(time.Second), first, 100*time.Millisecond)

	third := w.nextAttempt(2)
	assert.WithinDuration(t, time.Now().Add(time.Hour), third, 100*time.Millisecond)

	// Attempts past the schedule stay on the last step.
	tenth := w.nextAttempt(10)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tenth, 100*time.Millisecond)
}

func TestNextAttemptWithoutSchedule(t *testing.T) {
	w := &Worker{}
	next := w.nextAttempt(3)
	assert.WithinDuration(t, time.Now().Add(5*time.Second), next, 100*time.Millisecond)
}
