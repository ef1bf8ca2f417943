package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"fleetwatch/internal/domain"
)

func startHub(t *testing.T, ingest Ingestor, control Controller) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(ingest, control, func(token string) bool { return token == "ok" })
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_RejectsBadToken(t *testing.T) {
	_, srv := startHub(t, newStubIngestor(), newStubController())

	resp, err := http.Get(srv.URL + "?token=bad")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestHub_InboundEventReachesGateway(t *testing.T) {
	ingest := newStubIngestor()
	_, srv := startHub(t, ingest, newStubController())
	conn := dial(t, srv, "ok")

	ev := domain.Event{
		ID:        "push-1",
		Timestamp: time.Date(2025, 11, 8, 17, 0, 0, 0, time.UTC),
		Type:      domain.Speeding,
		TripID:    "trip-1",
	}
	payload, _ := json.Marshal(ev)
	frame, _ := json.Marshal(wsMessage{Type: "fleetEvent", Data: payload})
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ingest.arrive:
	case <-time.After(2 * time.Second):
		t.Fatal("pushed event never reached the gateway")
	}
	got := ingest.ingested()
	if len(got) != 1 || got[0].ID != "push-1" || got[0].TripID != "trip-1" {
		t.Errorf("ingested %+v", got)
	}
}

func TestHub_DropsFramesWithoutIdentity(t *testing.T) {
	ingest := newStubIngestor()
	control := newStubController()
	_, srv := startHub(t, ingest, control)
	conn := dial(t, srv, "ok")

	noID, _ := json.Marshal(wsMessage{Type: "fleetEvent", Data: json.RawMessage(`{"tripId":"trip-1"}`)})
	conn.WriteMessage(websocket.TextMessage, noID)
	garbage := []byte("not json")
	conn.WriteMessage(websocket.TextMessage, garbage)

	// A control frame after the bad ones proves the read loop survived.
	ctl, _ := json.Marshal(wsMessage{Type: "control", Action: "pause"})
	conn.WriteMessage(websocket.TextMessage, ctl)

	select {
	case <-control.arrive:
	case <-time.After(2 * time.Second):
		t.Fatal("read loop died on malformed frames")
	}
	if got := ingest.ingested(); len(got) != 0 {
		t.Errorf("malformed frames were ingested: %+v", got)
	}
}

func TestHub_ControlFrames(t *testing.T) {
	control := newStubController()
	_, srv := startHub(t, newStubIngestor(), control)
	conn := dial(t, srv, "ok")

	pause, _ := json.Marshal(wsMessage{Type: "control", Action: "pause"})
	resume, _ := json.Marshal(wsMessage{Type: "control", Action: "resume", Speed: 25})
	conn.WriteMessage(websocket.TextMessage, pause)
	conn.WriteMessage(websocket.TextMessage, resume)

	deadline := time.After(2 * time.Second)
	for i := 0; i < 3; i++ { // pause, speed, play
		select {
		case <-control.arrive:
		case <-deadline:
			t.Fatal("control actions incomplete")
		}
	}
	actions, speed := control.snapshot()
	if len(actions) != 3 || actions[0] != "pause" || actions[1] != "speed" || actions[2] != "play" {
		t.Errorf("actions = %v", actions)
	}
	if speed != 25 {
		t.Errorf("speed = %v, want 25", speed)
	}
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	hub, srv := startHub(t, newStubIngestor(), newStubController())
	conn := dial(t, srv, "ok")

	// Registration races the broadcast; retry until the frame lands.
	ev := domain.Event{ID: "b1", Type: domain.LowFuel, TripID: "trip-1"}
	done := make(chan struct{})
	go func() {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsMessage
			if json.Unmarshal(raw, &msg) != nil || msg.Type != "fleetEvent" {
				continue
			}
			var got domain.Event
			if json.Unmarshal(msg.Data, &got) == nil && got.ID == "b1" {
				close(done)
				return
			}
		}
	}()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			hub.Broadcast(ev)
		case <-timeout:
			t.Fatal("broadcast frame never arrived")
		}
	}
}
