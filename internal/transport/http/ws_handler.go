package http

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"quizhub-service/internal/app"
	"quizhub-service/internal/logger"
)

type WSHandler struct {
	play     *app.PlayService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(play *app.PlayService, log *logger.Logger) *WSHandler {
	return &WSHandler{
		play: play,
		log:  log.With("component", "ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ServeWS streams events of one attempt to its owner and accepts
// select, advance and submit commands on the same socket.
func (h *WSHandler) ServeWS(c *gin.Context) {
	p := principalFrom(c)
	attemptID := c.Param("id")

	updates, cancel, err := h.play.Subscribe(c.Request.Context(), p, attemptID)
	if err != nil {
		RespondError(c, err)
		return
	}
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "attempt", attemptID, "error", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Only the writer goroutine touches conn for writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write failed", "attempt", attemptID, "error", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case ev, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage{Type: ev.Type, Payload: ev.Attempt}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	ctx := c.Request.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		var cmdErr error
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.Option == nil {
				h.reply(send, closeSignals, errorPayload{Message: "invalid select payload", Code: "bad_request"})
				continue
			}
			_, cmdErr = h.play.Select(ctx, p, attemptID, *payload.Option)
		case "advance":
			_, cmdErr = h.play.Advance(ctx, p, attemptID)
		case "submit":
			_, cmdErr = h.play.RetrySubmit(ctx, p, attemptID)
		default:
			h.reply(send, closeSignals, errorPayload{Message: "unsupported message type", Code: "bad_request"})
			continue
		}
		if cmdErr != nil {
			_, code := errorStatus(cmdErr)
			h.reply(send, closeSignals, errorPayload{Message: cmdErr.Error(), Code: code})
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) reply(send chan<- outboundMessage, closeSignals <-chan struct{}, payload errorPayload) {
	select {
	case send <- outboundMessage{Type: "error", Payload: payload}:
	case <-closeSignals:
	}
}
