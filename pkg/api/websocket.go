package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is a generic WebSocket message.
type WSMessage struct {
	Type    string          `json:"type"`    // Message type: "parse", "checkmove", "ping"
	ID      string          `json:"id"`      // Request ID for correlating responses
	Payload json.RawMessage `json:"payload"` // Type-specific payload
}

// WSResponse is a generic WebSocket response.
type WSResponse struct {
	Type    string      `json:"type"`              // Response type: "result", "error", "pong"
	ID      string      `json:"id,omitempty"`      // Request ID
	Payload interface{} `json:"payload,omitempty"` // Response data
	Error   string      `json:"error,omitempty"`   // Error message if any
	Code    string      `json:"code,omitempty"`    // Error code if any
}

// WSClient represents a connected WebSocket client.
type WSClient struct {
	conn     *websocket.Conn
	handlers *Handlers
	sendChan chan WSResponse
}

// WebSocket handles WebSocket connections. A client can stream FIBS lines
// for parsing and board pairs for move classification.
func (h *Handlers) WebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	client := &WSClient{conn: conn, handlers: h, sendChan: make(chan WSResponse, 256)}
	go client.writePump()
	client.readPump()
}

func (c *WSClient) writePump() {
	defer c.conn.Close()
	for msg := range c.sendChan {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

func (c *WSClient) readPump() {
	defer func() { close(c.sendChan); c.conn.Close() }()
	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.handlers.log.Debug("websocket closed", zap.Error(err))
			}
			return
		}
		c.handleMessage(msg)
	}
}

func (c *WSClient) handleMessage(msg WSMessage) {
	switch msg.Type {
	case "parse":
		var req ParseRequest
		if !c.decode(msg, &req) {
			return
		}
		resp, err := parseLine(req)
		c.reply(msg, resp, err)
	case "checkmove":
		var req CheckMoveRequest
		if !c.decode(msg, &req) {
			return
		}
		resp, err := checkMove(req)
		c.reply(msg, resp, err)
	case "ping":
		c.sendChan <- WSResponse{Type: "pong", ID: msg.ID}
	default:
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "unknown message type"}
	}
}

func (c *WSClient) decode(msg WSMessage, v interface{}) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		c.sendChan <- WSResponse{Type: "error", ID: msg.ID, Error: "invalid payload", Code: "INVALID_JSON"}
		return false
	}
	return true
}

func (c *WSClient) reply(msg WSMessage, payload interface{}, err error) {
	if err != nil {
		resp := WSResponse{Type: "error", ID: msg.ID, Error: err.Error()}
		var re *requestError
		if errors.As(err, &re) {
			resp.Code = re.code
		}
		c.sendChan <- resp
		return
	}
	c.sendChan <- WSResponse{Type: "result", ID: msg.ID, Payload: payload}
}
