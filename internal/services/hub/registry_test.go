package hub

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages [][]byte
	failSend bool
	closed   bool
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSend {
		return errors.New("broken pipe")
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	f.messages = append(f.messages, buf)
	return nil
}

func (f *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages)
}

func TestBroadcastDeliversToAll(t *testing.T) {
	r := NewRegistry(time.Second)

	conns := make([]*fakeConn, 3)
	for i := range conns {
		conns[i] = &fakeConn{}
		r.Register(NewClient(conns[i]))
	}

	r.Broadcast([]byte(`{"event_type":"WEAPON"}`))

	for _, c := range conns {
		assert.Equal(t, 1, c.received())
	}
}

func TestBroadcastPrunesFailedConnection(t *testing.T) {
	r := NewRegistry(time.Second)

	healthy1 := &fakeConn{}
	broken := &fakeConn{failSend: true}
	healthy2 := &fakeConn{}

	r.Register(NewClient(healthy1))
	r.Register(NewClient(broken))
	r.Register(NewClient(healthy2))

	require.NotPanics(t, func() {
		r.Broadcast([]byte("alert"))
	})

	// N-1 successful deliveries, failed connection dropped and closed
	assert.Equal(t, 1, healthy1.received())
	assert.Equal(t, 1, healthy2.received())
	assert.Equal(t, 0, broken.received())
	assert.True(t, broken.closed)
	assert.Equal(t, 2, r.Count())

	// Subsequent broadcasts skip the pruned connection
	r.Broadcast([]byte("alert2"))
	assert.Equal(t, 2, healthy1.received())
}

func TestUnregisterIdempotent(t *testing.T) {
	r := NewRegistry(time.Second)
	c := NewClient(&fakeConn{})

	r.Register(c)
	r.Unregister(c)
	assert.NotPanics(t, func() { r.Unregister(c) })
	assert.Equal(t, 0, r.Count())
}

func TestRegisterDuringBroadcast(t *testing.T) {
	r := NewRegistry(time.Second)
	for i := 0; i < 8; i++ {
		r.Register(NewClient(&fakeConn{}))
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			r.Broadcast([]byte("alert"))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			c := NewClient(&fakeConn{})
			r.Register(c)
			r.Unregister(c)
		}
	}()
	wg.Wait()

	assert.Equal(t, 8, r.Count())
}

func TestBroadcastOrderPreservedPerClient(t *testing.T) {
	r := NewRegistry(time.Second)
	c := &fakeConn{}
	r.Register(NewClient(c))

	r.Broadcast([]byte("first"))
	r.Broadcast([]byte("second"))
	r.Broadcast([]byte("third"))

	require.Equal(t, 3, c.received())
	assert.Equal(t, "first", string(c.messages[0]))
	assert.Equal(t, "second", string(c.messages[1]))
	assert.Equal(t, "third", string(c.messages[2]))
}
