package chat

import (
	"context"

	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
)

// BattleNotifier announces battle lifecycle changes on the battle's channel.
type BattleNotifier struct {
	hub *Hub
}

func NewBattleNotifier(hub *Hub) *BattleNotifier {
	return &BattleNotifier{hub: hub}
}

func (n *BattleNotifier) BattleJoined(ctx context.Context, b *battle.Battle) error {
	defender := ""
	if b.DefenderID != nil {
		defender = *b.DefenderID
	}
	return n.publish(ctx, b.ID, TypeBattleJoined, &BattleJoined{BattleID: b.ID, DefenderID: defender, StartedAt: b.StartedAt})
}

func (n *BattleNotifier) BattleCompleted(ctx context.Context, b *battle.Battle, changes []rating.RatingChange) error {
	winner := ""
	if b.WinnerID != nil {
		winner = *b.WinnerID
	}
	return n.publish(ctx, b.ID, TypeBattleCompleted, &BattleCompleted{BattleID: b.ID, WinnerID: winner, Ratings: changes})
}

func (n *BattleNotifier) BattleAborted(ctx context.Context, battleID string) error {
	return n.publish(ctx, battleID, TypeBattleAborted, &BattleAborted{BattleID: battleID})
}

func (n *BattleNotifier) publish(ctx context.Context, battleID string, t EventType, payload validator) error {
	event, err := NewEvent(t, payload)
	if err != nil {
		return err
	}
	return n.hub.Publish(ctx, battleID, event)
}
