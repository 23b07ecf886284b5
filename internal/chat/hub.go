package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/state"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const channelPrefix = "battle-chat-"

var (
	messageRate  = rate.Every(time.Second)
	messageBurst = 5
)

func ChannelName(battleID string) string {
	return channelPrefix + battleID
}

// Hub fans battle channel events out to the connections served by this instance.
type Hub struct {
	broker   Broker
	registry *state.Registry
	now      func() time.Time
	logger   *zap.SugaredLogger

	limitersMu sync.Mutex
	limiters   map[string]*rate.Limiter
}

func NewHub(broker Broker, registry *state.Registry) *Hub {
	return &Hub{
		broker:   broker,
		registry: registry,
		now:      time.Now,
		logger:   logger.NewNamedLogger("chat"),
		limiters: make(map[string]*rate.Limiter),
	}
}

// Run subscribes to every battle channel. Delivery stops when ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	if err := h.broker.Subscribe(ctx, channelPrefix+"*", h.deliver); err != nil {
		return err
	}
	h.logger.Infof("Subscribed to %s*", channelPrefix)
	return nil
}

func (h *Hub) deliver(channel string, payload []byte) {
	battleID := strings.TrimPrefix(channel, channelPrefix)
	event, _, err := DecodeEvent(payload)
	if err != nil {
		h.logger.Warnw("Dropping invalid event", "channel", channel, "error", err)
		return
	}
	transport.BroadcastToBattle(h.registry, battleID, transport.OutgoingMessage{
		Type:    string(event.Type),
		Payload: event.Payload,
	})
}

func (h *Hub) Subscribe(conn *state.Connection) {
	h.registry.Register(conn)
}

func (h *Hub) Unsubscribe(conn *state.Connection) {
	h.registry.Unregister(conn.ID)
	h.limitersMu.Lock()
	delete(h.limiters, conn.ID)
	h.limitersMu.Unlock()
}

func (h *Hub) Publish(ctx context.Context, battleID string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := h.broker.Publish(ctx, ChannelName(battleID), data); err != nil {
		return apperrors.External("Error publishing to battle channel", err)
	}
	return nil
}

// SendChat publishes a chat message from conn to everyone in its battle, the sender included.
func (h *Hub) SendChat(ctx context.Context, conn *state.Connection, text string) (*ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.Validation("message is empty")
	}
	if len([]rune(text)) > MaxMessageLength {
		return nil, apperrors.Validation("message is too long")
	}
	if !h.limiter(conn.ID).Allow() {
		return nil, apperrors.Validation("sending messages too fast")
	}

	msg := &ChatMessage{
		ID:        uuid.NewString(),
		SenderID:  conn.UserID,
		Sender:    conn.Username,
		Message:   text,
		Timestamp: h.now().UTC(),
	}
	event, err := NewEvent(TypeChatMessage, msg)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	if err := h.Publish(ctx, conn.BattleID, event); err != nil {
		return nil, err
	}
	return msg, nil
}

func (h *Hub) limiter(connID string) *rate.Limiter {
	h.limitersMu.Lock()
	defer h.limitersMu.Unlock()

	l, ok := h.limiters[connID]
	if !ok {
		l = rate.NewLimiter(messageRate, messageBurst)
		h.limiters[connID] = l
	}
	return l
}
