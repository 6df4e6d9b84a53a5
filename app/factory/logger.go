package factory

import (
	"os"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// NewModuleLogger returns a logger tagged with the emitting module. Level and
// format come from the environment so the factory can be used before config
// is loaded.
func NewModuleLogger(module string) logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	return logger.WithField("module", module)
}

// LoggerWithContext attaches the request id from the echo context so log
// lines from one request can be correlated.
func LoggerWithContext(logger logrus.FieldLogger, ctx echo.Context) logrus.FieldLogger {
	requestID := ctx.Request().Header.Get(echo.HeaderXRequestID)
	if requestID == "" {
		requestID = ctx.Response().Header().Get(echo.HeaderXRequestID)
	}
	if requestID == "" {
		return logger
	}
	return logger.WithField("request_id", requestID)
}
