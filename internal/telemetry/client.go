// Package telemetry sends anonymous product analytics to PostHog. Events are
// keyed to a per-user distinct id and enriched with standard properties;
// person profile processing stays disabled so no profiles are created.
package telemetry

import (
	"io"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/posthog/posthog-go"
)

// Client is the interface for telemetry clients. The abstraction allows
// mocking in tests and swapping in a no-op when telemetry is disabled.
type Client interface {
	// Track sends an event asynchronously and returns immediately.
	Track(userID, event string, properties map[string]any)

	// Close flushes pending events and closes the client.
	Close() error
}

// Properties is a type alias for event properties.
type Properties = map[string]any

// Event names emitted by the server.
const (
	EventChatTurn    = "chat_turn"
	EventGoalCreated = "goal_created"
	EventGoalDeleted = "goal_deleted"
	EventTasksAdded  = "tasks_added"
)

// enqueuer is the subset of the PostHog client we use, extracted so tests can
// substitute a recorder.
type enqueuer interface {
	io.Closer
	Enqueue(msg posthog.Message) error
}

// PostHogClient wraps the PostHog SDK for async telemetry.
type PostHogClient struct {
	client  enqueuer
	version string
	mu      sync.RWMutex
}

// NewFromEnv builds a telemetry client from STRIDE_POSTHOG_API_KEY and the
// optional STRIDE_POSTHOG_ENDPOINT. Without an API key it returns a noop.
func NewFromEnv(version string) Client {
	apiKey := os.Getenv("STRIDE_POSTHOG_API_KEY")
	if apiKey == "" {
		return NewNoopClient()
	}
	client, err := NewPostHogClient(apiKey, os.Getenv("STRIDE_POSTHOG_ENDPOINT"), version)
	if err != nil {
		return NewNoopClient()
	}
	return client
}

// NewPostHogClient creates a PostHog-backed telemetry client.
func NewPostHogClient(apiKey, endpoint, version string) (*PostHogClient, error) {
	phConfig := posthog.Config{
		BatchSize: 20,
		Interval:  5 * time.Second,
		// Transport warnings must never reach server logs at default levels.
		Logger: quietPostHogLogger{},
	}
	if endpoint != "" {
		phConfig.Endpoint = endpoint
	}

	client, err := posthog.NewWithConfig(apiKey, phConfig)
	if err != nil {
		return nil, err
	}
	return &PostHogClient{client: client, version: version}, nil
}

// newPostHogClientWithEnqueuer creates a client with a custom enqueuer (for testing).
func newPostHogClientWithEnqueuer(enq enqueuer, version string) *PostHogClient {
	return &PostHogClient{client: enq, version: version}
}

// Track sends an event asynchronously. No-op when the client is closed.
func (c *PostHogClient) Track(userID, event string, properties map[string]any) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.client == nil {
		return
	}

	props := posthog.NewProperties()
	for k, v := range properties {
		props.Set(k, v)
	}
	props.Set("os", runtime.GOOS)
	props.Set("arch", runtime.GOARCH)
	props.Set("server_version", c.version)
	// Keep telemetry anonymous: no person profiles.
	props.Set("$process_person_profile", false)

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: userID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes pending events.
func (c *PostHogClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

// NoopClient is a telemetry client that does nothing.
type NoopClient struct{}

// Track is a no-op.
func (c *NoopClient) Track(userID, event string, properties map[string]any) {}

// Close is a no-op.
func (c *NoopClient) Close() error { return nil }

// NewNoopClient returns a client that does nothing.
func NewNoopClient() *NoopClient {
	return &NoopClient{}
}

// quietPostHogLogger suppresses PostHog client logs.
type quietPostHogLogger struct{}

func (quietPostHogLogger) Debugf(string, ...interface{}) {}
func (quietPostHogLogger) Logf(string, ...interface{})   {}
func (quietPostHogLogger) Warnf(string, ...interface{})  {}
func (quietPostHogLogger) Errorf(string, ...interface{}) {}
