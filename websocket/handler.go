package websocket

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
	"github.com/thesrcielos/TopCodeBattle/internal/session"
	"github.com/thesrcielos/TopCodeBattle/internal/state"
	"github.com/thesrcielos/TopCodeBattle/internal/timer"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
	"github.com/thesrcielos/TopCodeBattle/websocket/actions"
	"github.com/thesrcielos/TopCodeBattle/websocket/message"
	"github.com/thesrcielos/TopCodeBattle/websocket/transport"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type BattleReader interface {
	Get(ctx context.Context, battleID string) (*battle.Battle, error)
}

type SessionResolver interface {
	Resolve(ctx context.Context, claims *user.JwtCustomClaims) (*session.Session, error)
}

// Hub is the part of the chat hub a battle view uses.
type Hub interface {
	actions.ChatSender
	Subscribe(conn *state.Connection)
	Unsubscribe(conn *state.Connection)
}

type Handler struct {
	tokens   *user.TokenIssuer
	sessions SessionResolver
	battles  BattleReader
	hub      Hub
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func NewHandler(tokens *user.TokenIssuer, sessions SessionResolver, battles BattleReader, hub Hub) *Handler {
	return &Handler{
		tokens:   tokens,
		sessions: sessions,
		battles:  battles,
		hub:      hub,
		now:      time.Now,
		logger:   logger.NewNamedLogger("websocket"),
	}
}

func (h *Handler) Register(e *echo.Echo) {
	e.GET("/ws/battles/:id", h.WebSocketHandler)
}

// WebSocketHandler opens a battle view. Participants may always watch; anyone
// signed in may watch an open battle.
func (h *Handler) WebSocketHandler(c echo.Context) error {
	ctx := c.Request().Context()

	claims, err := h.tokens.Parse(c.QueryParam("token"))
	if err != nil {
		return apperrors.NewAppError(http.StatusUnauthorized, "invalid token", err)
	}
	sess, err := h.sessions.Resolve(ctx, claims)
	if err != nil {
		return err
	}
	b, err := h.battles.Get(ctx, c.Param("id"))
	if err != nil {
		return err
	}
	if !b.IsParticipant(sess.UserID) && b.Status != battle.StatusOpen {
		return apperrors.Forbidden("Only participants can view this battle")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warnw("WebSocket upgrade failed", "battle", b.ID, "user", sess.UserID, "error", err)
		return nil
	}

	conn := &state.Connection{
		ID:       uuid.NewString(),
		UserID:   sess.UserID,
		Username: sess.Username,
		BattleID: b.ID,
		Conn:     ws,
	}
	countdown := timer.NewFromStart(b.Duration, b.StartedAt, h.now(),
		func(remaining int) {
			transport.Send(conn, transport.OutgoingMessage{
				Type:    message.TimerTick,
				Payload: message.TimerPayload{Remaining: remaining, Running: remaining > 0},
			})
		},
		func() {
			transport.Send(conn, transport.OutgoingMessage{Type: message.TimerExpired, Payload: message.TimerPayload{}})
		},
	)
	viewCtx, cancel := context.WithCancel(context.Background())
	view := &actions.View{
		Ctx:   viewCtx,
		Conn:  conn,
		Timer: countdown,
		Chat:  h.hub,
	}

	h.hub.Subscribe(conn)
	h.logger.Infow("Viewer connected", "battle", b.ID, "user", sess.UserID, "connection", conn.ID)

	view.SendTimer()
	if b.Status == battle.StatusInProgress {
		countdown.Start()
	}
	go h.listenViewerMessages(view, ws, cancel)

	return nil
}
