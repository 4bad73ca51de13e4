package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/oddiville/sheets/internal/sheet"
	"github.com/oddiville/sheets/internal/state"
)

// subscriberBuffer is how many slot events a slow client may fall behind
// before further events are dropped for it.
const subscriberBuffer = 32

var errSlowSubscriber = errors.New("subscriber buffer full")

// ClientMessage is the envelope for all client-to-server websocket messages.
type ClientMessage struct {
	Type string          `json:"type"` // "open", "close", "action", "ping"
	ID   string          `json:"id"`   // Client-assigned request ID
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is the envelope for all server-to-client websocket messages.
type ServerMessage struct {
	Type      string `json:"type"` // "sheet", "closed", "action", "ack", "pong", "error"
	RequestID string `json:"requestId,omitempty"`
	Data      any    `json:"data,omitempty"`
}

// ErrorData is the payload of "error" messages.
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fields  any    `json:"fields,omitempty"`
}

// AckData is the payload of "ack" messages.
type AckData struct {
	Version uint64 `json:"version"`
}

type streamHandler struct {
	api *API
}

func newStreamHandler(a *API) *streamHandler {
	return &streamHandler{api: a}
}

// ServeHTTP upgrades to websocket, sends the current sheet, then relays slot
// events while serving client requests.
func (h *streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("stream: websocket accept: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Subscribe before reading the snapshot so no change falls in between.
	// Sheet changes at or below the snapshot version are skipped.
	name := "stream-" + uuid.NewString()
	events := make(chan state.Event, subscriberBuffer)
	h.api.bus.Subscribe(name, state.HandlerFunc(func(_ context.Context, evt state.Event) error {
		select {
		case events <- evt:
			return nil
		default:
			return errSlowSubscriber
		}
	}))
	defer h.api.bus.Unsubscribe(name)

	cfg, version := h.api.slot.Current()
	if cfg != nil {
		h.send(ctx, conn, ServerMessage{Type: string(state.EventSheet), Data: state.Event{
			Type:    state.EventSheet,
			Version: version,
			Config:  cfg,
			Kind:    cfg.Meta.Kind,
		}})
	}

	go func() {
		for {
			select {
			case evt := <-events:
				// Presses do not bump the version.
				if evt.Type != state.EventAction && evt.Version <= version {
					continue
				}
				h.send(ctx, conn, ServerMessage{Type: string(evt.Type), Data: evt})
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var msg ClientMessage
		err := wsjson.Read(ctx, conn, &msg)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				log.Printf("stream: connection closed: %v", websocket.CloseStatus(err))
			}
			return
		}

		switch msg.Type {
		case "open":
			h.handleOpen(ctx, conn, msg)
		case "close":
			h.api.pipeline.Close()
			h.ack(ctx, conn, msg.ID)
		case "action":
			h.handleAction(ctx, conn, msg)
		case "ping":
			h.send(ctx, conn, ServerMessage{Type: "pong", RequestID: msg.ID})
		default:
			h.sendError(ctx, conn, msg.ID, errors.New("unknown message type: "+msg.Type), "UNKNOWN_TYPE")
		}
	}
}

func (h *streamHandler) handleOpen(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	req, err := h.api.requests.decode(msg.Data)
	if err != nil {
		h.sendError(ctx, conn, msg.ID, err, "")
		return
	}
	if _, err := h.api.pipeline.Open(ctx, req); err != nil {
		h.sendError(ctx, conn, msg.ID, err, "")
		return
	}
	h.ack(ctx, conn, msg.ID)
}

func (h *streamHandler) handleAction(ctx context.Context, conn *websocket.Conn, msg ClientMessage) {
	var data struct {
		ActionKey sheet.ActionKey `json:"actionKey"`
	}
	if err := json.Unmarshal(msg.Data, &data); err != nil || data.ActionKey == "" {
		h.sendError(ctx, conn, msg.ID, &requestError{msg: "action needs an actionKey"}, "")
		return
	}
	if data.ActionKey == sheet.ActionCloseSheet {
		h.api.pipeline.Close()
		h.ack(ctx, conn, msg.ID)
		return
	}
	if _, err := h.api.slot.Press(data.ActionKey); err != nil {
		h.sendError(ctx, conn, msg.ID, err, "")
		return
	}
	h.ack(ctx, conn, msg.ID)
}

func (h *streamHandler) ack(ctx context.Context, conn *websocket.Conn, requestID string) {
	_, version := h.api.slot.Current()
	h.send(ctx, conn, ServerMessage{Type: "ack", RequestID: requestID, Data: AckData{Version: version}})
}

func (h *streamHandler) send(ctx context.Context, conn *websocket.Conn, msg ServerMessage) {
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		log.Printf("stream: write error: %v", err)
	}
}

// sendError reports err to the client. code overrides the mapped error code.
func (h *streamHandler) sendError(ctx context.Context, conn *websocket.Conn, requestID string, err error, code string) {
	if code == "" {
		code = errorCode(err)
	}
	data := ErrorData{Code: code, Message: err.Error()}
	if fields := errorFields(err); len(fields) > 0 {
		data.Fields = fields
	}
	if code == "INTERNAL_ERROR" {
		log.Printf("stream: internal error: %v", err)
		data.Message = fmt.Sprintf("internal error handling %s", requestID)
	}
	h.send(ctx, conn, ServerMessage{Type: "error", RequestID: requestID, Data: data})
}
