package message

import (
	"encoding/json"
)

// Inbound message types.
const (
	ChatSend   = "chat.send"
	TimerStart = "timer.start"
	TimerPause = "timer.pause"
	TimerReset = "timer.reset"
)

// Outbound message types produced by the view itself. Battle and chat events
// reuse the chat event names.
const (
	TimerTick    = "timer.tick"
	TimerExpired = "timer.expired"
)

type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ChatSendPayload struct {
	Message string `json:"message"`
}

type TimerPayload struct {
	Remaining int  `json:"remaining"`
	Running   bool `json:"running"`
}
