package hub

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn feeds queued inbound messages and records writes.
type fakeConn struct {
	in chan []byte

	mu      sync.Mutex
	written []Message
	closed  chan struct{}
	once    sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	select {
	case data, ok := <-f.in:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, data, nil
	case <-f.closed:
		return 0, nil, errors.New("closed")
	}
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch messageType {
	case websocket.TextMessage:
		f.written = append(f.written, NewJSONMessage(data))
	case websocket.BinaryMessage:
		f.written = append(f.written, NewBinaryMessage(data))
	}
	return nil
}

func (f *fakeConn) SetReadLimit(int64)                {}
func (f *fakeConn) SetReadDeadline(time.Time) error   { return nil }
func (f *fakeConn) SetWriteDeadline(time.Time) error  { return nil }
func (f *fakeConn) SetPongHandler(func(string) error) {}

func (f *fakeConn) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeConn) messages() []Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Message(nil), f.written...)
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()
	h := New("test", append([]Option{WithLogger(quiet())}, opts...)...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	require.Eventually(t, h.IsRunning, time.Second, time.Millisecond)
	return h
}

func TestBroadcastReachesClients(t *testing.T) {
	h := startHub(t)

	a, b := newFakeConn(), newFakeConn()
	ca, cb := NewClient(h, a), NewClient(h, b)
	go ca.Run()
	go cb.Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 2 }, time.Second, time.Millisecond)

	require.NoError(t, h.BroadcastJSON(map[string]int{"seq": 1}))
	h.BroadcastBinary([]byte{0xff, 0xd8})

	for _, conn := range []*fakeConn{a, b} {
		require.Eventually(t, func() bool { return len(conn.messages()) == 2 }, time.Second, time.Millisecond)
		got := conn.messages()
		assert.Equal(t, JSONMessage, got[0].Type)
		assert.JSONEq(t, `{"seq":1}`, string(got[0].Data))
		assert.Equal(t, BinaryMessage, got[1].Type)
	}
}

func TestReplayLatestOnConnect(t *testing.T) {
	h := startHub(t, WithReplay())

	h.Broadcast(NewJSONMessage([]byte(`{"seq":1}`)))
	h.Broadcast(NewJSONMessage([]byte(`{"seq":2}`)))
	require.Eventually(t, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return h.latest != nil && string(h.latest.Data) == `{"seq":2}`
	}, time.Second, time.Millisecond)

	conn := newFakeConn()
	go NewClient(h, conn).Run()

	require.Eventually(t, func() bool { return len(conn.messages()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, `{"seq":2}`, string(conn.messages()[0].Data))
}

func TestInboundHandlerAndReply(t *testing.T) {
	var mu sync.Mutex
	var got []string
	h := startHub(t, WithHandler(func(c *Client, data []byte) {
		mu.Lock()
		got = append(got, string(data))
		mu.Unlock()
		c.Reply(NewJSONMessage([]byte(`{"type":"pong"}`)))
	}))

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	conn.in <- []byte(`{"type":"ping"}`)

	require.Eventually(t, func() bool { return len(conn.messages()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, `{"type":"pong"}`, string(conn.messages()[0].Data))
	mu.Lock()
	assert.Equal(t, []string{`{"type":"ping"}`}, got)
	mu.Unlock()
}

func TestDisconnectUnregisters(t *testing.T) {
	h := startHub(t)

	conn := newFakeConn()
	go NewClient(h, conn).Run()
	require.Eventually(t, func() bool { return h.ClientCount() == 1 }, time.Second, time.Millisecond)

	close(conn.in)
	require.Eventually(t, func() bool { return h.ClientCount() == 0 }, time.Second, time.Millisecond)
}
