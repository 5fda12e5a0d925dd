package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin policy is enforced by corsMiddleware
	},
}

// WSMessage is a client request.
type WSMessage struct {
	Type    string          `json:"type"`    // "decide", "round", "session", "event" or "ping"
	ID      string          `json:"id"`      // echoed in the response
	Payload json.RawMessage `json:"payload"` // request body for Type
}

// WSResponse answers one WSMessage.
type WSResponse struct {
	Type    string      `json:"type"` // "result", "error" or "pong"
	ID      string      `json:"id,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"` // as in ErrorResponse
}

// WSSessionRequest opens a session or resumes an existing one.
type WSSessionRequest struct {
	ID string `json:"id,omitempty"` // Empty to create a new session
}

// WSEventRequest is a session event sent over the socket.
type WSEventRequest struct {
	Session string `json:"session"`
	EventRequest
}

// wsError is a protocol failure that has no domain sentinel.
type wsError struct {
	msg  string
	code string
}

func (e *wsError) Error() string { return e.msg }

var (
	errWSPayload     = &wsError{"invalid payload", "INVALID_JSON"}
	errWSNotReady    = &wsError{"league not computed", "NOT_READY"}
	errWSUnknownType = &wsError{"unknown message type", ""}
	errWSBusy        = &wsError{"server busy", "SERVER_BUSY"}
)

// wsHandler serves one message type and returns the result payload.
type wsHandler func(c *WSClient, payload json.RawMessage) (interface{}, error)

var wsHandlers = map[string]wsHandler{
	"decide":  wsDecide,
	"round":   wsRound,
	"session": wsSession,
	"event":   wsEvent,
}

// decodePayload unmarshals a message payload. An absent payload leaves the
// zero value when optional is set.
func decodePayload[T any](payload json.RawMessage, optional bool) (T, error) {
	var v T
	if len(payload) == 0 && optional {
		return v, nil
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, errWSPayload
	}
	return v, nil
}

// WSClient is one connected socket. Responses are written by a single
// writer goroutine in request order.
type WSClient struct {
	ctx      context.Context // ends when the connection's handler returns
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
}

// WebSocket handles WebSocket connections for interactive play.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	client := &WSClient{ctx: r.Context(), conn: conn, handlers: h, sendChan: make(chan WSResponse, 256)}
	go client.writePump()
	client.readPump()
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.sendChan:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) readPump() {
	defer func() {
		close(c.sendChan)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}
		c.sendChan <- c.handleMessage(msg)
	}
}

func (c *WSClient) handleMessage(msg WSMessage) WSResponse {
	if msg.Type == "ping" {
		return WSResponse{Type: "pong", ID: msg.ID}
	}
	handle, ok := wsHandlers[msg.Type]
	if !ok {
		return wsErrorResponse(msg.ID, errWSUnknownType)
	}
	if pool := c.handlers.pool; pool != nil {
		if err := pool.AcquireFast(c.ctx); err != nil {
			return wsErrorResponse(msg.ID, errWSBusy)
		}
		defer pool.ReleaseFast()
	}
	payload, err := handle(c, msg.Payload)
	if err != nil {
		return wsErrorResponse(msg.ID, err)
	}
	return WSResponse{Type: "result", ID: msg.ID, Payload: payload}
}

func wsErrorResponse(id string, err error) WSResponse {
	code := ""
	if we, ok := err.(*wsError); ok {
		code = we.code
	} else {
		_, code = errorStatus(err)
	}
	return WSResponse{Type: "error", ID: id, Error: err.Error(), Code: code}
}

func wsDecide(c *WSClient, payload json.RawMessage) (interface{}, error) {
	req, err := decodePayload[DecideRequest](payload, false)
	if err != nil {
		return nil, err
	}
	resp, err := c.handlers.decide(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func wsRound(c *WSClient, payload json.RawMessage) (interface{}, error) {
	req, err := decodePayload[RoundRequest](payload, false)
	if err != nil {
		return nil, err
	}
	resp, err := c.handlers.round(req)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func wsSession(c *WSClient, payload json.RawMessage) (interface{}, error) {
	store := c.handlers.store
	if store == nil {
		return nil, errWSNotReady
	}
	req, err := decodePayload[WSSessionRequest](payload, true)
	if err != nil {
		return nil, err
	}
	if req.ID == "" {
		return sessionToResponse(store.Create(), store.Machine()), nil
	}
	s, err := store.Get(req.ID)
	if err != nil {
		return nil, err
	}
	return sessionToResponse(s, store.Machine()), nil
}

func wsEvent(c *WSClient, payload json.RawMessage) (interface{}, error) {
	if c.handlers.store == nil {
		return nil, errWSNotReady
	}
	req, err := decodePayload[WSEventRequest](payload, false)
	if err != nil {
		return nil, err
	}
	resp, err := c.handlers.applyEvent(req.Session, req.EventRequest)
	if err != nil {
		return nil, err
	}
	return resp, nil
}
