package realtime

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Serve attaches conn to the hub for userID and blocks until the socket
// closes. Clients may send {"type":"ping"}; anything else is ignored.
func Serve(hub *Hub, conn *websocket.Conn, userID uuid.UUID, log *zap.Logger) {
	client := NewClient(userID)
	if !hub.RegisterClient(client) {
		conn.Close()
		return
	}
	defer hub.UnregisterClient(client)

	log.Debug("websocket connected", zap.String("user_id", userID.String()))

	go func() {
		for msg := range client.Send {
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		}
		conn.Close()
	}()

	for {
		var payload map[string]interface{}
		if err := conn.ReadJSON(&payload); err != nil {
			log.Debug("websocket closed",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			return
		}
		if t, _ := payload["type"].(string); t == "ping" {
			select {
			case client.Send <- []byte(`{"type":"pong"}`):
			default:
			}
		}
	}
}
