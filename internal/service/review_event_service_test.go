package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"risk-review-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *capturingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *capturingLogger) Debug(_, m string, _ map[string]interface{}) { l.record(m) }
func (l *capturingLogger) Info(_, m string, _ map[string]interface{})  { l.record(m) }
func (l *capturingLogger) Warn(_, m string, _ map[string]interface{})  { l.record(m) }
func (l *capturingLogger) Error(_, m string, _ map[string]interface{}) { l.record(m) }
func (l *capturingLogger) Sync() error                                 { return nil }

func (l *capturingLogger) snapshot() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.messages...)
}

type failingBridge struct{ calls int }

func (b *failingBridge) Publish(context.Context, events.Event) error {
	b.calls++
	return errors.New("nats down")
}

func TestEventsReachAuditLog(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	audit := &capturingLogger{}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, NewReviewAuditConsumer(pubSub, audit).Consume(ctx))

	sysLog := &capturingLogger{}
	bridge := &failingBridge{}
	pub := NewReviewEventPublisher(pubSub, bridge, sysLog)
	pub.Publish(ctx, events.New(events.ReviewCreated, map[string]interface{}{"reviewId": "rev_1"}))
	pub.Publish(ctx, events.New(events.ReviewReleased, map[string]interface{}{"reviewId": "rev_1"}))

	assert.Eventually(t, func() bool {
		return len(audit.snapshot()) == 2
	}, time.Second, 10*time.Millisecond)
	// gochannel delivers concurrently, so only membership is stable
	assert.ElementsMatch(t, []string{events.ReviewCreated, events.ReviewReleased}, audit.snapshot())

	// bridge failures are logged, never raised
	assert.Equal(t, 2, bridge.calls)
	assert.Len(t, sysLog.snapshot(), 2)
}
