package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/thesrcielos/TopCodeBattle/internal/rating"
)

type EventType string

const (
	TypeChatMessage     EventType = "chat.message"
	TypeBattleJoined    EventType = "battle.joined"
	TypeBattleCompleted EventType = "battle.completed"
	TypeBattleAborted   EventType = "battle.aborted"
)

const MaxMessageLength = 500

// Event is the envelope carried on a battle channel. Payload holds one of the
// payload structs below, selected by Type.
type Event struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type BattleJoined struct {
	BattleID   string     `json:"battleId"`
	DefenderID string     `json:"defenderId"`
	StartedAt  *time.Time `json:"startedAt"`
}

type BattleCompleted struct {
	BattleID string                `json:"battleId"`
	WinnerID string                `json:"winnerId"`
	Ratings  []rating.RatingChange `json:"ratings,omitempty"`
}

type BattleAborted struct {
	BattleID string `json:"battleId"`
}

type validator interface {
	validate() error
}

func (m *ChatMessage) validate() error {
	if m.ID == "" || m.SenderID == "" {
		return fmt.Errorf("chat message requires id and sender")
	}
	if strings.TrimSpace(m.Message) == "" {
		return fmt.Errorf("chat message is empty")
	}
	if len([]rune(m.Message)) > MaxMessageLength {
		return fmt.Errorf("chat message longer than %d characters", MaxMessageLength)
	}
	return nil
}

func (e *BattleJoined) validate() error {
	if e.BattleID == "" || e.DefenderID == "" {
		return fmt.Errorf("battle.joined requires battleId and defenderId")
	}
	return nil
}

func (e *BattleCompleted) validate() error {
	if e.BattleID == "" || e.WinnerID == "" {
		return fmt.Errorf("battle.completed requires battleId and winnerId")
	}
	return nil
}

func (e *BattleAborted) validate() error {
	if e.BattleID == "" {
		return fmt.Errorf("battle.aborted requires battleId")
	}
	return nil
}

func payloadFor(t EventType) (validator, bool) {
	switch t {
	case TypeChatMessage:
		return &ChatMessage{}, true
	case TypeBattleJoined:
		return &BattleJoined{}, true
	case TypeBattleCompleted:
		return &BattleCompleted{}, true
	case TypeBattleAborted:
		return &BattleAborted{}, true
	}
	return nil, false
}

func NewEvent(t EventType, payload validator) (Event, error) {
	if _, ok := payloadFor(t); !ok {
		return Event{}, fmt.Errorf("unknown event type %q", t)
	}
	if err := payload.validate(); err != nil {
		return Event{}, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Payload: raw}, nil
}

// DecodeEvent parses and validates an envelope and its typed payload.
func DecodeEvent(data []byte) (Event, interface{}, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return Event{}, nil, fmt.Errorf("decoding event: %w", err)
	}
	payload, ok := payloadFor(e.Type)
	if !ok {
		return Event{}, nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if err := json.Unmarshal(e.Payload, payload); err != nil {
		return Event{}, nil, fmt.Errorf("decoding %s payload: %w", e.Type, err)
	}
	if err := payload.validate(); err != nil {
		return Event{}, nil, err
	}
	return e, payload, nil
}
