package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"character-quiz-bot/internal/app"
	"character-quiz-bot/internal/domain"
	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("connection closed")

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
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

type answerPayload struct {
	Option *int `json:"option"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// ServeWS upgrades HTTP requests to websockets and feeds the messages into the
// quiz as events for the user named by the userId query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// drain so emitters never block on a dead writer
				for range send {
				}
				return
			}
		}
	}()

	emit := func(ctx context.Context, d domain.Directive) error {
		select {
		case send <- outboundMessage{Type: string(d.Kind), Payload: d.Payload()}:
			return nil
		case <-closeSignals:
			return errConnClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, kind := decodeEvent(userID, inbound)
		if kind != "" {
			_ = emit(r.Context(), app.ErrorDirective(userID, kind))
			continue
		}
		h.service.Dispatch(r.Context(), ev, emit)
	}

	close(closeSignals)
	close(send)
	<-writerDone
}

// decodeEvent maps an inbound message to a quiz event. Malformed input yields
// the error kind to report back to the client instead.
func decodeEvent(userID string, msg inboundMessage) (domain.Event, domain.ErrorKind) {
	switch domain.EventKind(msg.Type) {
	case domain.EventStart:
		return domain.StartRequested(userID), ""
	case domain.EventRestart:
		return domain.RestartRequested(userID), ""
	case domain.EventOptionChosen:
		var payload answerPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Option == nil {
			return domain.Event{}, domain.KindInvalidChoice
		}
		return domain.OptionChosen(userID, *payload.Option), ""
	default:
		return domain.Event{}, domain.KindUnsupportedAction
	}
}
