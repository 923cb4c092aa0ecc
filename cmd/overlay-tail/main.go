// overlay-tail - prints the framing dashboard's overlay stream
//
// Connects to /ws/overlay and prints guidance, ratio and snapshot summaries.
// Optionally sends a tap once connected, which is handy for driving the
// selection flow from a terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-framing/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "Dashboard host:port")
	tapX := flag.Float64("tap-x", -1, "Send a tap at this view x once connected")
	tapY := flag.Float64("tap-y", -1, "Send a tap at this view y once connected")
	verbose := flag.Bool("v", false, "Print every overlay snapshot")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/overlay"}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	ws, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		log.Fatalf("❌ Failed to connect to %s: %v", u.String(), err)
	}
	defer ws.Close()
	fmt.Printf("✅ Connected to %s\n", u.String())

	if *tapX >= 0 && *tapY >= 0 {
		msg, err := protocol.NewTapMessage(*tapX, *tapY)
		send(ws, msg, err)
	}

	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				ws.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				ws.Close()
				return
			case <-ticker.C:
				msg, err := protocol.NewPingMessage(uuid.NewString())
				send(ws, msg, err)
			}
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("⚠️  Read error: %v", err)
				os.Exit(1)
			}
			return
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			log.Printf("⚠️  Bad message: %v", err)
			continue
		}
		show(msg, *verbose)
	}
}

// send writes a message. Only called before the read loop starts and from
// the ping goroutine, which never overlap with another writer.
func send(ws *websocket.Conn, msg *protocol.Message, err error) {
	if err != nil {
		log.Printf("⚠️  Encode failed: %v", err)
		return
	}
	data, err := msg.Bytes()
	if err != nil {
		log.Printf("⚠️  Encode failed: %v", err)
		return
	}
	ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("⚠️  Write failed: %v", err)
	}
}

// snapshot is the part of an overlay envelope this tool prints.
type snapshot struct {
	Seq               uint64  `json:"seq"`
	ImageWidth        int     `json:"image_width"`
	ImageHeight       int     `json:"image_height"`
	ScaleFactor       float64 `json:"scale_factor"`
	Detections        []any   `json:"detections"`
	TrackedIdentities []int   `json:"tracked_identities"`
	Zoom              float64 `json:"zoom"`
}

func show(msg *protocol.Message, verbose bool) {
	ts := time.UnixMilli(msg.Timestamp).Format("15:04:05.000")
	switch msg.Type {
	case protocol.TypeGuide:
		g, err := msg.GetGuideData()
		if err != nil {
			return
		}
		text := "(hidden)"
		if g.Visible {
			text = g.Text
		}
		fmt.Printf("%s 🧭 %-15s %s\n", ts, g.State, text)

	case protocol.TypeRatio:
		r, err := msg.GetRatioData()
		if err != nil {
			return
		}
		mark := ""
		if r.Ideal {
			mark = " ✨ ideal"
		}
		fmt.Printf("%s 📏 ratio %.3f%s\n", ts, r.Ratio, mark)

	case protocol.TypeOverlay:
		if !verbose {
			return
		}
		var st snapshot
		if err := msg.ParseData(&st); err != nil {
			log.Printf("⚠️  Bad overlay: %v", err)
			return
		}
		fmt.Printf("%s 🖼  seq %d  %dx%d  scale %.3f  detections %d  tracked %v  zoom %.1fx\n",
			ts, st.Seq, st.ImageWidth, st.ImageHeight, st.ScaleFactor,
			len(st.Detections), st.TrackedIdentities, st.Zoom)

	case protocol.TypePong:
		var p protocol.PongData
		if err := msg.ParseData(&p); err == nil {
			fmt.Printf("%s 🏓 %dms\n", ts, p.LatencyMs)
		}

	case protocol.TypeError:
		e, err := msg.GetErrorData()
		if err == nil {
			fmt.Printf("%s ❌ %s: %s\n", ts, e.Command, e.Error)
		}
	}
}
