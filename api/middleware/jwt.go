package middleware

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/user"
)

const tokenContextKey = "user"

func SetupJWTMiddleware(key []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey: key,
		ContextKey: tokenContextKey,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(user.JwtCustomClaims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.NewAppError(http.StatusUnauthorized, "invalid or missing token", err)
		},
	})
}

// ClaimsFrom returns the claims verified by the JWT middleware.
func ClaimsFrom(c echo.Context) (*user.JwtCustomClaims, bool) {
	token, ok := c.Get(tokenContextKey).(*jwt.Token)
	if !ok {
		return nil, false
	}
	claims, ok := token.Claims.(*user.JwtCustomClaims)
	return claims, ok
}
