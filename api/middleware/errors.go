package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/thesrcielos/TopCodeBattle/internal/apperrors"
	"github.com/thesrcielos/TopCodeBattle/internal/logger"
)

var log = logger.NewNamedLogger("http")

// ErrorHandler renders every error as {"error": message}.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code, message := statusAndMessage(err)
	if code >= http.StatusInternalServerError {
		log.Errorw("Request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, echo.Map{"error": message})
	}
	if err != nil {
		log.Warnw("Error writing error response", "error", err)
	}
}

// statusAndMessage prefers the application error over echo's own errors,
// which can appear wrapped inside it.
func statusAndMessage(err error) (int, string) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Code, appErr.Message
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok {
			return he.Code, m
		}
		return he.Code, http.StatusText(he.Code)
	}
	return apperrors.HTTPStatus(err), apperrors.Message(err)
}

func RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				status, _ := statusAndMessage(v.Error)
				log.Infow("request", "method", v.Method, "uri", v.URI, "status", status, "latency", v.Latency, "error", v.Error)
				return nil
			}
			log.Infow("request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	})
}
