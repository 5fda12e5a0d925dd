package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func dialTestSocket(t *testing.T, h *Handlers) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(h.WebSocket))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("WebSocket dial failed: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

// roundTrip sends one message and decodes the reply payload into out.
func roundTrip(t *testing.T, ws *websocket.Conn, msg WSMessage, out interface{}) WSResponse {
	t.Helper()
	if err := ws.WriteJSON(msg); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var raw struct {
		WSResponse
		Payload json.RawMessage `json:"payload"`
	}
	if err := ws.ReadJSON(&raw); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if raw.ID != msg.ID {
		t.Errorf("Response ID = %q, want %q", raw.ID, msg.ID)
	}
	if out != nil && raw.Type == "result" {
		if err := json.Unmarshal(raw.Payload, out); err != nil {
			t.Fatalf("Payload decode failed: %v", err)
		}
	}
	return raw.WSResponse
}

func payload(v interface{}) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func TestWebSocketPing(t *testing.T) {
	ws := dialTestSocket(t, NewHandlers(nil, nil, "1.0.0"))

	resp := roundTrip(t, ws, WSMessage{Type: "ping", ID: "test-ping-1"}, nil)
	if resp.Type != "pong" {
		t.Errorf("Response type = %q, want %q", resp.Type, "pong")
	}
}

func TestWebSocketDecide(t *testing.T) {
	ws := dialTestSocket(t, getTestHandlers(t))

	var d DecideResponse
	resp := roundTrip(t, ws, WSMessage{
		Type:    "decide",
		ID:      "decide-1",
		Payload: payload(DecideRequest{Strategy: "Defensive", History: "DD UD"}),
	}, &d)

	if resp.Type != "result" {
		t.Fatalf("Response type = %q, want %q (error %q)", resp.Type, "result", resp.Error)
	}
	if d.Action.String() != "use" || d.Rounds != 2 {
		t.Errorf("Decide = %+v, want use after 2 rounds", d)
	}
}

func TestWebSocketRound(t *testing.T) {
	ws := dialTestSocket(t, getTestHandlers(t))

	var id string
	for i := 1; i <= 5; i++ {
		var r RoundResponse
		resp := roundTrip(t, ws, WSMessage{
			Type:    "round",
			ID:      "round",
			Payload: payload(RoundRequest{Opponent: 4, Action: "dont", HistoryID: id}),
		}, &r)
		if resp.Type != "result" {
			t.Fatalf("round %d: type = %q, error %q", i, resp.Type, resp.Error)
		}
		if r.Outcome.Round != i {
			t.Errorf("Outcome.Round = %d, want %d", r.Outcome.Round, i)
		}
		id = r.HistoryID
	}
	if id != "FAA" {
		t.Errorf("HistoryID = %q, want %q", id, "FAA")
	}
}

func TestWebSocketSession(t *testing.T) {
	ws := dialTestSocket(t, getTestHandlers(t))

	var s SessionResponse
	resp := roundTrip(t, ws, WSMessage{Type: "session", ID: "open"}, &s)
	if resp.Type != "result" || s.Scene != "intro" {
		t.Fatalf("open session: type %q scene %q error %q", resp.Type, s.Scene, resp.Error)
	}

	for _, want := range []string{"player_intro", "play"} {
		var next SessionResponse
		resp = roundTrip(t, ws, WSMessage{
			Type:    "event",
			ID:      "ev",
			Payload: payload(WSEventRequest{Session: s.ID, EventRequest: EventRequest{Event: "continue"}}),
		}, &next)
		if resp.Type != "result" || next.Scene != want {
			t.Fatalf("continue: type %q scene %q, want %q", resp.Type, next.Scene, want)
		}
	}

	var resumed SessionResponse
	roundTrip(t, ws, WSMessage{Type: "session", ID: "resume", Payload: payload(WSSessionRequest{ID: s.ID})}, &resumed)
	if resumed.Scene != "play" {
		t.Errorf("resumed Scene = %q, want play", resumed.Scene)
	}
}

func TestWebSocketErrors(t *testing.T) {
	ws := dialTestSocket(t, getTestHandlers(t))

	tests := []struct {
		name     string
		msgType  string
		payload  interface{}
		wantErr  string
		wantCode string
	}{
		{"unknown type", "unknown", nil, "unknown message type", ""},
		{"bad payload", "decide", "[]", "invalid payload", "INVALID_JSON"},
		{"unknown strategy", "decide", DecideRequest{Strategy: "Sneaky"}, "unknown strategy", "UNKNOWN_STRATEGY"},
		{"invalid action", "round", RoundRequest{Opponent: 0, Action: "maybe"}, "invalid action", "INVALID_ACTION"},
		{"missing session", "session", WSSessionRequest{ID: "nope"}, "session not found", "SESSION_NOT_FOUND"},
		{"bad event", "event", WSEventRequest{EventRequest: EventRequest{Event: "jump"}}, "invalid event", "INVALID_EVENT"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p json.RawMessage
			switch v := tc.payload.(type) {
			case nil:
			case string:
				p = json.RawMessage(v)
			default:
				p = payload(v)
			}
			resp := roundTrip(t, ws, WSMessage{Type: tc.msgType, ID: tc.name, Payload: p}, nil)

			if resp.Type != "error" {
				t.Errorf("Response type = %q, want %q", resp.Type, "error")
			}
			if !strings.Contains(resp.Error, tc.wantErr) {
				t.Errorf("Error = %q, want containing %q", resp.Error, tc.wantErr)
			}
			if resp.Code != tc.wantCode {
				t.Errorf("Code = %q, want %q", resp.Code, tc.wantCode)
			}
		})
	}
}

func TestWebSocketUsesFastLane(t *testing.T) {
	h := getTestHandlers(t)
	h.pool = NewWorkerPool(PoolConfig{MaxFastWorkers: 2, MaxSlowWorkers: 1})
	ws := dialTestSocket(t, h)

	roundTrip(t, ws, WSMessage{Type: "ping", ID: "p"}, nil)
	var d DecideResponse
	roundTrip(t, ws, WSMessage{Type: "decide", ID: "d", Payload: payload(DecideRequest{Strategy: "Aggressive"})}, &d)
	var r RoundResponse
	roundTrip(t, ws, WSMessage{Type: "round", ID: "r", Payload: payload(RoundRequest{Opponent: 4, Action: "use"})}, &r)

	stats := h.pool.Stats()
	if stats.TotalFast != 2 {
		t.Errorf("TotalFast = %d, want 2 (decide and round, not ping)", stats.TotalFast)
	}
	if stats.ActiveFast != 0 {
		t.Errorf("ActiveFast = %d, want 0 after replies", stats.ActiveFast)
	}
}
