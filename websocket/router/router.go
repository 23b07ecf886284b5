package router

import (
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/websocket/actions"
	"github.com/thesrcielos/TopCodeBattle/websocket/message"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
)

var log = logger.NewNamedLogger("router")

var handlers = map[string]func(v *actions.View, msg message.Message){
	message.ChatSend:   actions.HandleChatSend,
	message.TimerStart: actions.HandleTimerStart,
	message.TimerPause: actions.HandleTimerPause,
	message.TimerReset: actions.HandleTimerReset,
}

func RouteMessage(v *actions.View, msg message.Message) {
	if handler, ok := handlers[msg.Type]; ok {
		handler(v, msg)
	} else {
		log.Debugw("Unknown message type", "connection", v.Conn.ID, "type", msg.Type)
		transport.SendError(v.Conn, "unknown message type: "+msg.Type)
	}
}
