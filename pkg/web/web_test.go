package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-framing/pkg/camera"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/hub"
	"github.com/teslashibe/go-framing/pkg/orchestrator"
	"github.com/teslashibe/go-framing/pkg/overlay"
	"github.com/teslashibe/go-framing/pkg/protocol"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scene returns a large person box and a small dog box inside it, in a
// 1080x1920 source frame.
func scene() []detection.DetectedObject {
	return []detection.DetectedObject{
		{ID: detection.ID(1), Box: geom.R(0, 1000, 1080, 1920), Labels: []detection.Label{{Name: "person", Score: 0.8}}},
		{ID: detection.ID(2), Box: geom.R(400, 1500, 700, 1800), Labels: []detection.Label{{Name: "dog", Score: 0.9}}},
	}
}

type fixture struct {
	server *Server
	loop   *orchestrator.Loop
	store  *overlay.Store
	camera *camera.Manager
	ctx    context.Context
	seq    uint64
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	cfg := orchestrator.DefaultConfig()
	cfg.ViewWidth, cfg.ViewHeight = 400, 800

	mgr := camera.NewManager()
	objects := detection.ObjectDetectorFunc(func(ctx context.Context, frame detection.Frame) ([]detection.DetectedObject, error) {
		return scene(), nil
	})
	orch := orchestrator.New(cfg, orchestrator.Detectors{Object: objects},
		orchestrator.WithLogger(quiet()),
		orchestrator.WithCameraControl(mgr),
	)
	loop := orchestrator.NewLoop(orch)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	opts = append([]Option{WithLogger(quiet()), WithCameraManager(mgr)}, opts...)
	srv := NewServer(Config{BroadcastHz: 1000}, loop, opts...)
	return &fixture{server: srv, loop: loop, store: orch.Store(), camera: mgr, ctx: ctx}
}

// warm submits frames until the loop has collected detections.
func (f *fixture) warm(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		f.seq++
		f.loop.Submit(detection.Frame{Seq: f.seq, Width: 1080, Height: 1920, Timestamp: time.Now()})
		return len(f.store.Load().Detections) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func (f *fixture) request(t *testing.T, method, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := f.server.App().Test(req, 5000)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, jsoniter.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func TestTapSelectsSmallestObject(t *testing.T) {
	f := newFixture(t)
	f.warm(t)

	// Dog box maps to x 141.7..266.7, y 625..750 in the 400x800 view.
	resp, body := f.request(t, http.MethodPost, "/api/tap", `{"x":200,"y":700}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["hit"])
	assert.EqualValues(t, 2, body["id"])
	assert.Equal(t, "object_selected", body["state"])
	assert.Equal(t, []any{float64(2)}, body["tracked"])

	resp, body = f.request(t, http.MethodGet, "/api/guide", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "object_selected", body["state"])
}

func TestOverlayExposesTransform(t *testing.T) {
	f := newFixture(t)
	f.warm(t)

	resp, body := f.request(t, http.MethodGet, "/api/overlay", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 1080, body["image_width"])
	assert.EqualValues(t, 1920, body["image_height"])
	assert.InDelta(t, 800.0/1920.0, body["scale_factor"], 1e-9)
	assert.InDelta(t, 25.0, body["offset_x"], 1e-9)
}

func TestCommandValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"zoom must be positive", http.MethodPost, "/api/zoom", `{"factor":0}`, http.StatusBadRequest},
		{"zoom accepted", http.MethodPost, "/api/zoom", `{"factor":2}`, http.StatusOK},
		{"malformed body", http.MethodPost, "/api/tap", `{"x":`, http.StatusBadRequest},
		{"negative tap", http.MethodPost, "/api/tap", `{"x":-1,"y":2}`, http.StatusBadRequest},
		{"unknown aspect", http.MethodPost, "/api/aspect", `{"ratio":"5:4"}`, http.StatusBadRequest},
		{"exposure out of range", http.MethodPost, "/api/exposure", `{"ev":3}`, http.StatusBadRequest},
		{"exposure accepted", http.MethodPost, "/api/exposure", `{"ev":-0.5}`, http.StatusNoContent},
		{"focus accepted", http.MethodPost, "/api/focus", `{"x":100,"y":100}`, http.StatusNoContent},
		{"unknown state", http.MethodPost, "/api/guide/advance", `{"state":"bogus"}`, http.StatusBadRequest},
		{"advance from idle", http.MethodPost, "/api/guide/advance", `{"state":"guide_complete"}`, http.StatusConflict},
		{"unknown preset", http.MethodPost, "/api/camera/preset/moon", "", http.StatusNotFound},
		{"ws needs upgrade", http.MethodGet, "/ws/overlay", "", http.StatusUpgradeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := f.request(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			if tt.want >= 400 {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestAdvanceAfterSelect(t *testing.T) {
	f := newFixture(t)
	f.warm(t)

	resp, _ := f.request(t, http.MethodPost, "/api/tap", `{"x":200,"y":700}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := f.request(t, http.MethodPost, "/api/guide/advance", `{"state":"position_guide"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "position_guide", body["state"])
}

func TestCameraSettings(t *testing.T) {
	f := newFixture(t)

	resp, body := f.request(t, http.MethodPost, "/api/aspect", `{"ratio":"16:9"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.EqualValues(t, 9, body["width_ratio"])
	assert.EqualValues(t, 16, body["height_ratio"])
	assert.Equal(t, camera.Aspect16x9, f.camera.State().Aspect)

	resp, _ = f.request(t, http.MethodPost, "/api/camera/preset/night", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1600, f.camera.Settings().ISO)

	resp, _ = f.request(t, http.MethodPut, "/api/camera", `{"zoom":3}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3.0, f.camera.Settings().Zoom)

	resp, body = f.request(t, http.MethodGet, "/api/camera", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "16:9", body["aspect"])
}

func TestStatusReportsSession(t *testing.T) {
	f := newFixture(t)
	f.warm(t)

	resp, body := f.request(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, f.loop.Orchestrator().SessionID(), body["session_id"])
	assert.NotZero(t, body["frames"])
}

// wsConn is an in-memory hub.Conn.
type wsConn struct {
	in     chan []byte
	mu     sync.Mutex
	out    [][]byte
	closed chan struct{}
	once   sync.Once
}

func newWSConn() *wsConn {
	return &wsConn{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (c *wsConn) ReadMessage() (int, []byte, error) {
	select {
	case data := <-c.in:
		return websocket.TextMessage, data, nil
	case <-c.closed:
		return 0, nil, errors.New("closed")
	}
}

func (c *wsConn) WriteMessage(messageType int, data []byte) error {
	if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.out = append(c.out, append([]byte(nil), data...))
	return nil
}

func (c *wsConn) SetReadLimit(int64)                {}
func (c *wsConn) SetReadDeadline(time.Time) error   { return nil }
func (c *wsConn) SetWriteDeadline(time.Time) error  { return nil }
func (c *wsConn) SetPongHandler(func(string) error) {}

func (c *wsConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// find returns the last received envelope of the given type.
func (c *wsConn) find(typ protocol.MessageType) *protocol.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.out) - 1; i >= 0; i-- {
		msg, err := protocol.ParseMessage(c.out[i])
		if err == nil && msg.Type == typ {
			return msg
		}
	}
	return nil
}

func (f *fixture) attach(t *testing.T) *wsConn {
	t.Helper()
	go f.server.overlayHub.Run(f.ctx)
	go f.server.publishSnapshots(f.ctx)
	require.Eventually(t, f.server.overlayHub.IsRunning, time.Second, time.Millisecond)

	conn := newWSConn()
	go hub.NewClient(f.server.overlayHub, conn).Run()
	return conn
}

func TestOverlayStreamAndCommands(t *testing.T) {
	f := newFixture(t)
	conn := f.attach(t)
	f.warm(t)

	require.Eventually(t, func() bool { return conn.find(protocol.TypeOverlay) != nil }, 2*time.Second, 5*time.Millisecond)
	require.NotNil(t, conn.find(protocol.TypeGuide))
	require.NotNil(t, conn.find(protocol.TypeRatio))

	tap, err := protocol.NewTapMessage(200, 700)
	require.NoError(t, err)
	raw, err := tap.Bytes()
	require.NoError(t, err)
	conn.in <- raw

	require.Eventually(t, func() bool {
		msg := conn.find(protocol.TypeGuide)
		if msg == nil {
			return false
		}
		g, err := msg.GetGuideData()
		return err == nil && g.State == "object_selected"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWebsocketCommandErrors(t *testing.T) {
	f := newFixture(t)
	conn := f.attach(t)

	conn.in <- []byte(`{"type":"advance","data":{"state":"guide_complete"}}`)
	require.Eventually(t, func() bool { return conn.find(protocol.TypeError) != nil }, 2*time.Second, 5*time.Millisecond)

	data, err := conn.find(protocol.TypeError).GetErrorData()
	require.NoError(t, err)
	assert.Equal(t, protocol.TypeAdvance, data.Command)
	assert.Contains(t, data.Error, "invalid transition")

	ping, err := protocol.NewPingMessage("p1")
	require.NoError(t, err)
	raw, err := ping.Bytes()
	require.NoError(t, err)
	conn.in <- raw
	require.Eventually(t, func() bool { return conn.find(protocol.TypePong) != nil }, 2*time.Second, 5*time.Millisecond)
}

type stubAnnotator struct {
	mu    sync.Mutex
	calls int
}

func (a *stubAnnotator) Annotate(frame detection.Frame, st *overlay.State) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls++
	return []byte{0xff, 0xd8, 0xff, 0xd9}, nil
}

func (a *stubAnnotator) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func TestCameraFramesSkippedWithoutViewers(t *testing.T) {
	ann := &stubAnnotator{}
	f := newFixture(t, WithAnnotator(ann))
	go f.server.cameraHub.Run(f.ctx)

	f.server.SendCameraFrame(detection.Frame{Seq: 1})
	assert.Zero(t, ann.count())

	conn := newWSConn()
	go hub.NewClient(f.server.cameraHub, conn).Run()
	require.Eventually(t, func() bool { return f.server.cameraHub.ClientCount() == 1 }, time.Second, time.Millisecond)

	f.server.SendCameraFrame(detection.Frame{Seq: 2})
	assert.Equal(t, 1, ann.count())
	require.Eventually(t, func() bool {
		conn.mu.Lock()
		defer conn.mu.Unlock()
		return len(conn.out) == 1
	}, time.Second, time.Millisecond)
}
