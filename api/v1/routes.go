package v1

import (
	"github.com/labstack/echo/v4"
	api_middleware "github.com/thesrcielos/TopCodeBattle/api/middleware"
	"github.com/thesrcielos/TopCodeBattle/internal/session"
)

type Handlers struct {
	Users    *UserHandler
	Battles  *BattleHandler
	Problems *ProblemHandler
}

// RegisterRoutes mounts the /api/v1 surface. Protected groups verify the JWT
// and resolve the caller's session.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtKey []byte, sessions *session.Manager) {
	auth := []echo.MiddlewareFunc{
		api_middleware.SetupJWTMiddleware(jwtKey),
		api_middleware.SessionMiddleware(sessions),
	}

	api := e.Group("/api/v1")
	h.Users.RegisterAuthRoutes(api.Group("/auth"), api.Group("/auth", auth...))
	h.Users.RegisterProfileRoutes(api.Group("/profile", auth...))
	h.Users.RegisterUserRoutes(api.Group("/users"))
	h.Problems.RegisterProblemRoutes(api)
	h.Problems.RegisterEstimateRoutes(api.Group("/estimate", auth...))
	h.Battles.RegisterBattleRoutes(api.Group("/battles", auth...))
}
