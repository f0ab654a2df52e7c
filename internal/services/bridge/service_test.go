package bridge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sentinel-safety-go/internal/config"
)

type fakeSubscription struct {
	mu    sync.Mutex
	valid bool
}

func (f *fakeSubscription) Unsubscribe() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = false
	return nil
}

func (f *fakeSubscription) IsValid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.valid
}

func (f *fakeSubscription) invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.valid = false
}

type fakeSubscriber struct {
	mu       sync.Mutex
	failures int
	attempts int
	handler  func([]byte)
	subs     []*fakeSubscription
}

func (f *fakeSubscriber) Subscribe(subject string, handler func([]byte)) (Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("no servers available")
	}
	f.handler = handler
	sub := &fakeSubscription{valid: true}
	f.subs = append(f.subs, sub)
	return sub, nil
}

func (f *fakeSubscriber) deliver(data []byte) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (f *fakeSubscriber) attemptCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts
}

type recordingBroadcaster struct {
	mu       sync.Mutex
	messages [][]byte
	panicOn  string
}

func (r *recordingBroadcaster) Broadcast(message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOn != "" && string(message) == r.panicOn {
		panic("broadcast blew up")
	}
	buf := make([]byte, len(message))
	copy(buf, message)
	r.messages = append(r.messages, buf)
}

func (r *recordingBroadcaster) received() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.messages...)
}

func testService(sub Subscriber, b Broadcaster) *Service {
	s := NewService(&config.Config{
		AlertsSubject:         "alerts",
		ResubscribeBackoffMin: 5 * time.Millisecond,
		ResubscribeBackoffMax: 20 * time.Millisecond,
	}, sub, b)
	s.checkInterval = 5 * time.Millisecond
	return s
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestBridgeForwardsVerbatim(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingBroadcaster{}
	s := testService(sub, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool { return sub.attemptCount() >= 1 })

	payload := []byte(`{"id":"a-1","event_type":"WEAPON"}`)
	sub.deliver(payload)

	waitFor(t, func() bool { return len(rec.received()) == 1 })
	assert.Equal(t, payload, rec.received()[0])
}

func TestBridgeDropsMalformed(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingBroadcaster{}
	s := testService(sub, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool { return sub.attemptCount() >= 1 })

	sub.deliver(nil)
	sub.deliver([]byte{})
	sub.deliver([]byte{0xff, 0xfe, 0xfd}) // not UTF-8
	sub.deliver([]byte("ok"))

	waitFor(t, func() bool { return len(rec.received()) == 1 })
	assert.Equal(t, "ok", string(rec.received()[0]))
}

func TestBridgeRetriesSubscription(t *testing.T) {
	sub := &fakeSubscriber{failures: 3}
	rec := &recordingBroadcaster{}
	s := testService(sub, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Three failures, then success on the fourth attempt
	waitFor(t, func() bool { return sub.attemptCount() >= 4 })

	sub.deliver([]byte("after-retry"))
	waitFor(t, func() bool { return len(rec.received()) == 1 })
}

func TestBridgeResubscribesOnLoss(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingBroadcaster{}
	s := testService(sub, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool { return sub.attemptCount() >= 1 })

	sub.mu.Lock()
	first := sub.subs[0]
	sub.mu.Unlock()
	first.invalidate()

	waitFor(t, func() bool { return sub.attemptCount() >= 2 })
}

func TestBridgeSurvivesBroadcastPanic(t *testing.T) {
	sub := &fakeSubscriber{}
	rec := &recordingBroadcaster{panicOn: "poison"}
	s := testService(sub, rec)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	waitFor(t, func() bool { return sub.attemptCount() >= 1 })

	require.NotPanics(t, func() { sub.deliver([]byte("poison")) })
	sub.deliver([]byte("healthy"))

	waitFor(t, func() bool { return len(rec.received()) == 1 })
	assert.Equal(t, "healthy", string(rec.received()[0]))
}

func TestBridgeStopsOnCancel(t *testing.T) {
	sub := &fakeSubscriber{}
	s := testService(sub, &recordingBroadcaster{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	waitFor(t, func() bool { return sub.attemptCount() >= 1 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge did not exit on context cancel")
	}
}
