package transport

import (
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/state"
)

var log = logger.NewNamedLogger("transport")

type OutgoingMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func Send(conn *state.Connection, msg OutgoingMessage) {
	if conn == nil {
		return
	}
	if err := conn.WriteJSON(msg); err != nil {
		log.Warnw("Error sending message", "connection", conn.ID, "user", conn.UserID, "type", msg.Type, "error", err)
	}
}

func SendError(conn *state.Connection, message string) {
	Send(conn, OutgoingMessage{Type: "error", Payload: map[string]string{"message": message}})
}

func Broadcast(conns []*state.Connection, msg OutgoingMessage) {
	for _, c := range conns {
		Send(c, msg)
	}
}

// BroadcastToBattle sends msg to every local connection viewing the battle.
func BroadcastToBattle(registry *state.Registry, battleID string, msg OutgoingMessage) {
	Broadcast(registry.InBattle(battleID), msg)
}
