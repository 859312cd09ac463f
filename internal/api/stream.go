package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"sliderlabel/pkg/anneal"
	"sliderlabel/pkg/map/labels"
	"sliderlabel/pkg/model"
)

const streamWriteWait = 10 * time.Second

// Stream message types.
const (
	MessageStage  = "stage"
	MessageResult = "result"
	MessageError  = "error"
)

// StreamMessage is one server-to-client frame of a streamed placement.
type StreamMessage struct {
	Type  string              `json:"type"`
	Stage *anneal.StageReport `json:"stage,omitempty"`
	Run   *model.Run          `json:"run,omitempty"`
	Error string              `json:"error,omitempty"`
}

// StreamHandler runs a placement over a websocket. The client sends one
// labels.Request; the server answers with a "stage" message per stage advance
// and closes with a "result" (or "error") message.
type StreamHandler struct {
	mgr      *labels.Manager
	upgrader websocket.Upgrader
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(mgr *labels.Manager) *StreamHandler {
	return &StreamHandler{
		mgr: mgr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Local tool: any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxRequestBytes)

	var req labels.Request
	if err := conn.ReadJSON(&req); err != nil {
		h.send(conn, StreamMessage{Type: MessageError, Error: "invalid request: " + err.Error()})
		return
	}

	// Any further read error means the client went away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	var writeErr error
	req.OnStage = func(report anneal.StageReport) {
		if writeErr != nil {
			return
		}
		writeErr = h.send(conn, StreamMessage{Type: MessageStage, Stage: &report})
		if writeErr != nil {
			cancel()
		}
	}

	run, err := h.mgr.Place(ctx, req)
	if err != nil && !errors.Is(err, context.Canceled) {
		h.send(conn, StreamMessage{Type: MessageError, Error: err.Error()})
		return
	}
	if writeErr != nil || ctx.Err() != nil {
		slog.Debug("Stream client gone", "run", runID(run))
		return
	}

	if err := h.send(conn, StreamMessage{Type: MessageResult, Run: run}); err != nil {
		return
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(streamWriteWait))
}

func (h *StreamHandler) send(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	if err := conn.WriteJSON(msg); err != nil {
		slog.Debug("Websocket write failed", "type", msg.Type, "error", err)
		return err
	}
	return nil
}

func runID(run *model.Run) string {
	if run == nil {
		return ""
	}
	return run.ID
}
