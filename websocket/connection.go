package websocket

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/thesrcielos/TopCodeBattle/websocket/actions"
	"github.com/thesrcielos/TopCodeBattle/websocket/message"
	"github.com/thesrcielos/TopCodeBattle/websocket/router"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
)

const maxMessageSize = 4096

func (h *Handler) listenViewerMessages(view *actions.View, ws *websocket.Conn, cancel context.CancelFunc) {
	defer func() {
		cancel()
		view.Timer.Stop()
		h.hub.Unsubscribe(view.Conn)
		ws.Close()
		h.logger.Infow("Viewer disconnected", "battle", view.Conn.BattleID, "user", view.Conn.UserID, "connection", view.Conn.ID)
	}()

	ws.SetReadLimit(maxMessageSize)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warnw("Error reading message", "connection", view.Conn.ID, "error", err)
			}
			break
		}

		var msg message.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			h.logger.Debugw("Error decoding message", "connection", view.Conn.ID, "error", err)
			transport.SendError(view.Conn, "invalid message")
			continue
		}

		router.RouteMessage(view, msg)
	}
}
