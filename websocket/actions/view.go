package actions

import (
	"context"

	"github.com/thesrcielos/TopCodeBattle/internal/chat"
	"github.com/thesrcielos/TopCodeBattle/internal/state"
	"github.com/thesrcielos/TopCodeBattle/internal/timer"
	"github.com/thesrcielos/TopCodeBattle/websocket/message"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
)

type ChatSender interface {
	SendChat(ctx context.Context, conn *state.Connection, text string) (*chat.ChatMessage, error)
}

// View is one participant's (or spectator's) open battle screen.
type View struct {
	Ctx   context.Context
	Conn  *state.Connection
	Timer *timer.Countdown
	Chat  ChatSender
}

func (v *View) SendTimer() {
	transport.Send(v.Conn, transport.OutgoingMessage{
		Type:    message.TimerTick,
		Payload: message.TimerPayload{Remaining: v.Timer.Remaining(), Running: v.Timer.Running()},
	})
}
