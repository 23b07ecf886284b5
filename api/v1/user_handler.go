package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	api_middleware "github.com/thesrcielos/TopCodeBattle/api/middleware"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/rating"
	"github.com/thesrcielos/TopCodeBattle/internal/session"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
)

const INVALID_REQUEST = "invalid request"

type UserHandler struct {
	users    *user.UserService
	ratings  *rating.RatingService
	sessions *session.Manager
}

func NewUserHandler(users *user.UserService, ratings *rating.RatingService, sessions *session.Manager) *UserHandler {
	return &UserHandler{users: users, ratings: ratings, sessions: sessions}
}

func (h *UserHandler) RegisterAuthRoutes(public, protected *echo.Group) {
	public.POST("/signup", h.Signup)
	public.POST("/login", h.Login)
	protected.POST("/logout", h.Logout)
}

func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("", h.GetOwnProfile)
	g.PATCH("", h.UpdateProfile)
	g.GET("/history", h.GetHistory)
}

func (h *UserHandler) RegisterUserRoutes(g *echo.Group) {
	g.GET("/:id", h.GetUser)
}

func (h *UserHandler) Signup(c echo.Context) error {
	var req user.SignupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation(INVALID_REQUEST)
	}
	res, err := h.users.Signup(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *UserHandler) Login(c echo.Context) error {
	var req user.LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation(INVALID_REQUEST)
	}
	res, err := h.users.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (h *UserHandler) Logout(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	if err := h.sessions.SignOut(c.Request().Context(), sess); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) GetOwnProfile(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	profile, err := h.users.GetProfile(c.Request().Context(), sess.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	var req user.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.Validation(INVALID_REQUEST)
	}
	profile, err := h.users.UpdateProfile(c.Request().Context(), sess.UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) GetHistory(c echo.Context) error {
	sess, err := api_middleware.SessionFrom(c)
	if err != nil {
		return err
	}
	history, err := h.ratings.History(c.Request().Context(), sess.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"history": history,
	})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return apperrors.Validation("invalid user ID")
	}
	profile, err := h.users.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
