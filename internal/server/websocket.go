package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/franckalain/wastedetect/internal/apperr"
	"github.com/franckalain/wastedetect/internal/database"
	"github.com/franckalain/wastedetect/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// wsMessage is a client frame on /ws
type wsMessage struct {
	Type string `json:"type"`
	Data struct {
		Image    string `json:"image"` // base64 or data URI
		MimeType string `json:"mime_type"`
	} `json:"data"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Store client connection
	clientID := uuid.New().String()
	s.clients.Store(clientID, conn)
	defer s.clients.Delete(clientID)
	log.Debugf("WebSocket client %s connected", clientID)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnf("Error reading message from %s: %v", clientID, err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			s.sendError(conn, apperr.Errorf(apperr.InvalidRequest, "invalid message format"))
			continue
		}

		switch msg.Type {
		case "detect":
			s.handleWSDetect(r.Context(), conn, &msg)
		default:
			s.sendError(conn, apperr.Errorf(apperr.InvalidRequest, "unknown message type %q", msg.Type))
		}
	}
}

func (s *Server) handleWSDetect(parent context.Context, conn *websocket.Conn, msg *wsMessage) {
	ctx, cancel := context.WithTimeout(parent, s.opts.RequestTimeout)
	defer cancel()

	mimeType, image, err := decodeImage(msg.Data.Image)
	if err == nil {
		if msg.Data.MimeType != "" {
			mimeType = msg.Data.MimeType
		}
		result, cerr := s.model.Classify(ctx, image, mimeType)
		if cerr == nil {
			metrics.ObserveRequest("ws_detect", nil)
			s.sendMessage(conn, "detect_result", result)
			return
		}
		err = cerr
	}

	metrics.ObserveRequest("ws_detect", err)
	log.Errorf("ws detect failed: %v", err)
	s.sendError(conn, err)
}

// decodeImage accepts a data URI or bare standard base64
func decodeImage(s string) (string, []byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil, apperr.Errorf(apperr.InvalidRequest, "missing image")
	}
	if strings.HasPrefix(s, "data:") {
		mimeType, data, err := database.DecodeDataURI(s)
		if err != nil {
			return "", nil, apperr.New(apperr.InvalidRequest, err)
		}
		return mimeType, data, nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", nil, apperr.New(apperr.InvalidRequest, fmt.Errorf("invalid image encoding: %w", err))
	}
	return "", data, nil
}

func (s *Server) sendMessage(conn *websocket.Conn, messageType string, data any) {
	msg := map[string]any{
		"type": messageType,
		"data": data,
	}

	if err := conn.WriteJSON(msg); err != nil {
		log.Warnf("Error sending message: %v", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, err error) {
	msg := map[string]any{
		"type":       "error",
		"message":    err.Error(),
		"error_kind": apperr.KindOf(err).String(),
	}

	if err := conn.WriteJSON(msg); err != nil {
		log.Warnf("Error sending error message: %v", err)
	}
}
