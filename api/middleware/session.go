package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/session"
)

const sessionContextKey = "session"

// SessionMiddleware resolves the session of the verified token. It must run
// after SetupJWTMiddleware.
func SessionMiddleware(manager *session.Manager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return apperrors.Unauthorized("invalid or missing token")
			}
			sess, err := manager.Resolve(c.Request().Context(), claims)
			if err != nil {
				return err
			}
			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

func SessionFrom(c echo.Context) (*session.Session, error) {
	sess, ok := c.Get(sessionContextKey).(*session.Session)
	if !ok || sess == nil {
		return nil, apperrors.Unauthorized("no active session")
	}
	return sess, nil
}
