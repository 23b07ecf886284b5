package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	api_middleware "github.com/thesrcielos/TopCodeBattle/api/middleware"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/battle"
	"github.com/thesrcielos/TopCodeBattle/internal/evaluator"
	"github.com/thesrcielos/TopCodeBattle/internal/submission"
)

const (
	defaultPageSize = 20
	historyLimit    = 50
)

type BattleHandler struct {
	battles     *battle.BattleService
	submissions *submission.SubmissionService
}

func NewBattleHandler(battles *battle.BattleService, submissions *submission.SubmissionService) *BattleHandler {
	return &BattleHandler{battles: battles, submissions: submissions}
}

func (h *BattleHandler) RegisterBattleRoutes(g *echo.Group) {
	g.POST("", h.CreateBattle)
	g.GET("", h.ListBattles)
	g.GET("/:id", h.GetBattle)
	g.DELETE("/:id", h.AbortBattle)
	g.POST("/:id/join", h.JoinBattle)
	g.POST("/:id/submissions", h.Submit)
	g.GET("/:id/submissions", h.ListSubmissions)
}

func (h *BattleHandler) CreateBattle(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	var req battle.CreateBattleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation(INVALID_REQUEST)
	}
	b, err := h.battles.Create(c.Request().Context(), sess.UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"battle": b,
	})
}

// ListBattles lists open battles, or the caller's own battles with scope=mine.
func (h *BattleHandler) ListBattles(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	if c.QueryParam("scope") == "mine" {
		battles, err := h.battles.ListForUser(c.Request().Context(), sess.UserID, historyLimit)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{
			"battles": battles,
		})
	}

	page, err := queryInt(c, "page", 0)
	if err != nil || page < 0 {
		return apperrors.Validation(INVALID_REQUEST)
	}
	size, err := queryInt(c, "size", defaultPageSize)
	if err != nil || size <= 0 {
		return apperrors.Validation(INVALID_REQUEST)
	}
	battles, err := h.battles.ListOpen(c.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"battles": battles,
	})
}

func (h *BattleHandler) GetBattle(c echo.Context) error {
	b, err := h.battles.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"battle": b,
	})
}

func (h *BattleHandler) JoinBattle(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	b, err := h.battles.Join(c.Request().Context(), c.Param("id"), sess.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, echo.Map{
		"battle": b,
	})
}

func (h *BattleHandler) AbortBattle(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	if err := h.battles.Abort(c.Request().Context(), c.Param("id"), sess.UserID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *BattleHandler) Submit(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	var req submission.SubmitRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation(INVALID_REQUEST)
	}
	sub, err := h.submissions.Submit(c.Request().Context(), c.Param("id"), sess.UserID, req)
	if err != nil {
		return err
	}
	status := http.StatusCreated
	if sub.Status == evaluator.Pending {
		status = http.StatusAccepted
	}
	return c.JSON(status, echo.Map{
		"submission": sub,
	})
}

// ListSubmissions lists the battle's submissions, or only the caller's most
// recent one with latest=1.
func (h *BattleHandler) ListSubmissions(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	if latest, _ := strconv.ParseBool(c.QueryParam("latest")); latest {
		sub, err := h.submissions.Latest(c.Request().Context(), c.Param("id"), sess.UserID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, echo.Map{
			"submission": sub,
		})
	}
	subs, err := h.submissions.ListForBattle(c.Request().Context(), c.Param("id"), sess.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"submissions": subs,
	})
}

func queryInt(c echo.Context, name string, fallback int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
