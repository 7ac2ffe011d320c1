package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	ecM "github.com/labstack/echo/v4/middleware"

	loggingmw "github.com/Skotchmaster/veranda/pkg/middleware/logging"
)

func Common(logger *slog.Logger, allowOrigins []string) []echo.MiddlewareFunc {
	cors := ecM.DefaultCORSConfig
	cors.AllowCredentials = true
	if len(allowOrigins) > 0 {
		cors.AllowOrigins = allowOrigins
	}
	return []echo.MiddlewareFunc{
		ecM.Recover(),
		ecM.RequestID(),
		loggingmw.RequestLogger(logger),
		ecM.Secure(),
		ecM.CORSWithConfig(cors),
	}
}
