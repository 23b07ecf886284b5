package actions

import (
	"encoding/json"

	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/websocket/message"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
)

var log = logger.NewNamedLogger("actions")

func HandleChatSend(v *View, msg message.Message) {
	var payload message.ChatSendPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Debugw("Error decoding chat message", "connection", v.Conn.ID, "error", err)
		transport.SendError(v.Conn, "invalid chat message")
		return
	}
	if _, err := v.Chat.SendChat(v.Ctx, v.Conn, payload.Message); err != nil {
		transport.SendError(v.Conn, apperrors.Message(err))
	}
}
