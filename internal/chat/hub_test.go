package chat

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
	"github.com/thesrcielos/TopCodeBattle/internal/state"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
)

type recordingSocket struct {
	mu   sync.Mutex
	msgs []transport.OutgoingMessage
}

func (s *recordingSocket) WriteJSON(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, v.(transport.OutgoingMessage))
	return nil
}

func (s *recordingSocket) Close() error { return nil }

func (s *recordingSocket) messages() []transport.OutgoingMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]transport.OutgoingMessage(nil), s.msgs...)
}

func newConn(id, user, battleID string) (*state.Connection, *recordingSocket) {
	sock := &recordingSocket{}
	return &state.Connection{ID: id, UserID: user, Username: user, BattleID: battleID, Conn: sock}, sock
}

func newRunningHub(t *testing.T) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(NewMemoryBroker(), state.NewRegistry())
	require.NoError(t, hub.Run(ctx))
	return hub
}

func TestHub_SendChatReachesEveryoneInBattle(t *testing.T) {
	hub := newRunningHub(t)
	alice, aliceSock := newConn("c1", "alice", "b1")
	bob, bobSock := newConn("c2", "bob", "b1")
	other, otherSock := newConn("c3", "carol", "b2")
	hub.Subscribe(alice)
	hub.Subscribe(bob)
	hub.Subscribe(other)

	msg, err := hub.SendChat(context.Background(), alice, "  good luck  ")
	require.NoError(t, err)
	assert.Equal(t, "good luck", msg.Message)

	for _, sock := range []*recordingSocket{aliceSock, bobSock} {
		got := sock.messages()
		require.Len(t, got, 1)
		assert.Equal(t, string(TypeChatMessage), got[0].Type)

		var decoded ChatMessage
		require.NoError(t, json.Unmarshal(got[0].Payload.(json.RawMessage), &decoded))
		assert.Equal(t, msg.ID, decoded.ID)
		assert.Equal(t, "alice", decoded.Sender)
	}
	assert.Empty(t, otherSock.messages())
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	hub := newRunningHub(t)
	alice, _ := newConn("c1", "alice", "b1")
	bob, bobSock := newConn("c2", "bob", "b1")
	hub.Subscribe(alice)
	hub.Subscribe(bob)
	hub.Unsubscribe(bob)

	_, err := hub.SendChat(context.Background(), alice, "anyone?")
	require.NoError(t, err)
	assert.Empty(t, bobSock.messages())
}

func TestHub_SendChatValidation(t *testing.T) {
	hub := newRunningHub(t)
	alice, _ := newConn("c1", "alice", "b1")
	hub.Subscribe(alice)
	ctx := context.Background()

	_, err := hub.SendChat(ctx, alice, "   ")
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = hub.SendChat(ctx, alice, strings.Repeat("x", MaxMessageLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = hub.SendChat(ctx, alice, strings.Repeat("é", MaxMessageLength))
	assert.NoError(t, err)
}

func TestHub_RateLimitsPerConnection(t *testing.T) {
	hub := newRunningHub(t)
	alice, _ := newConn("c1", "alice", "b1")
	bob, _ := newConn("c2", "bob", "b1")
	hub.Subscribe(alice)
	hub.Subscribe(bob)
	ctx := context.Background()

	var limited error
	for i := 0; i < messageBurst+1; i++ {
		if _, err := hub.SendChat(ctx, alice, "spam"); err != nil {
			limited = err
		}
	}
	assert.ErrorIs(t, limited, apperrors.ErrValidation)

	_, err := hub.SendChat(ctx, bob, "still here")
	assert.NoError(t, err)
}

func TestHub_DropsInvalidEvents(t *testing.T) {
	broker := NewMemoryBroker()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(broker, state.NewRegistry())
	require.NoError(t, hub.Run(ctx))
	alice, sock := newConn("c1", "alice", "b1")
	hub.Subscribe(alice)

	require.NoError(t, broker.Publish(ctx, ChannelName("b1"), []byte(`{"type":"chat.delete","payload":{}}`)))
	require.NoError(t, broker.Publish(ctx, ChannelName("b1"), []byte(`not json`)))
	assert.Empty(t, sock.messages())
}

func TestBattleNotifier(t *testing.T) {
	hub := newRunningHub(t)
	alice, sock := newConn("c1", "alice", "b1")
	hub.Subscribe(alice)
	notifier := NewBattleNotifier(hub)
	ctx := context.Background()

	bob := "bob"
	started := time.Now()
	require.NoError(t, notifier.BattleJoined(ctx, &battle.Battle{ID: "b1", DefenderID: &bob, StartedAt: &started}))
	require.NoError(t, notifier.BattleCompleted(ctx, &battle.Battle{ID: "b1", WinnerID: &bob},
		[]rating.RatingChange{{UserID: "bob", Before: 1000, After: 1016}}))
	require.NoError(t, notifier.BattleAborted(ctx, "b1"))

	got := sock.messages()
	require.Len(t, got, 3)
	assert.Equal(t, string(TypeBattleJoined), got[0].Type)
	assert.Equal(t, string(TypeBattleCompleted), got[1].Type)
	assert.Equal(t, string(TypeBattleAborted), got[2].Type)

	assert.Error(t, notifier.BattleCompleted(ctx, &battle.Battle{ID: "b1"}, nil))
}

func TestDecodeEvent(t *testing.T) {
	e, payload, err := DecodeEvent([]byte(`{"type":"battle.aborted","payload":{"battleId":"b1"}}`))
	require.NoError(t, err)
	assert.Equal(t, TypeBattleAborted, e.Type)
	assert.Equal(t, &BattleAborted{BattleID: "b1"}, payload)

	_, _, err = DecodeEvent([]byte(`{"type":"battle.aborted","payload":{}}`))
	assert.Error(t, err)
	_, _, err = DecodeEvent([]byte(`{"type":"battle.joined","payload":[1,2]}`))
	assert.Error(t, err)
}
