package telemetry

import (
	"testing"

	"github.com/posthog/posthog-go"
)

// recordingEnqueuer captures enqueued messages for assertions.
type recordingEnqueuer struct {
	messages []posthog.Message
	closed   bool
}

func (r *recordingEnqueuer) Enqueue(msg posthog.Message) error {
	r.messages = append(r.messages, msg)
	return nil
}

func (r *recordingEnqueuer) Close() error {
	r.closed = true
	return nil
}

func TestTrackEnrichesProperties(t *testing.T) {
	rec := &recordingEnqueuer{}
	c := newPostHogClientWithEnqueuer(rec, "1.2.3")

	c.Track("user-1", EventChatTurn, Properties{"response_type": "general"})

	if len(rec.messages) != 1 {
		t.Fatalf("enqueued %d messages, want 1", len(rec.messages))
	}
	capture, ok := rec.messages[0].(posthog.Capture)
	if !ok {
		t.Fatalf("message type = %T, want posthog.Capture", rec.messages[0])
	}
	if capture.DistinctId != "user-1" {
		t.Errorf("DistinctId = %q, want user-1", capture.DistinctId)
	}
	if capture.Event != EventChatTurn {
		t.Errorf("Event = %q, want %q", capture.Event, EventChatTurn)
	}
	if capture.Properties["response_type"] != "general" {
		t.Error("custom property missing")
	}
	if capture.Properties["server_version"] != "1.2.3" {
		t.Error("server_version property missing")
	}
	if capture.Properties["$process_person_profile"] != false {
		t.Error("person profile processing should be disabled")
	}
}

func TestTrackAfterCloseIsNoop(t *testing.T) {
	rec := &recordingEnqueuer{}
	c := newPostHogClientWithEnqueuer(rec, "1.2.3")

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !rec.closed {
		t.Error("Close() did not close the underlying client")
	}

	c.Track("user-1", EventGoalCreated, nil)
	if len(rec.messages) != 0 {
		t.Errorf("enqueued %d messages after close, want 0", len(rec.messages))
	}
}

func TestNewFromEnvWithoutKeyReturnsNoop(t *testing.T) {
	t.Setenv("STRIDE_POSTHOG_API_KEY", "")

	c := NewFromEnv("dev")
	if _, ok := c.(*NoopClient); !ok {
		t.Errorf("NewFromEnv() = %T, want *NoopClient", c)
	}
}
