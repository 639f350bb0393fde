package config

import (
	"context"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/procurement_backend/appctx"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetLevel(logLevelFromEnv())
	logg.SetOutput(os.Stdout)
}

func logLevelFromEnv() logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
	if err != nil {
		return logrus.ErrorLevel
	}
	return lvl
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}

// LoggerWithContext attaches the request's business and correlation ids.
func LoggerWithContext(ctx context.Context) *logrus.Entry {
	fields := logrus.Fields{}
	if v, ok := appctx.GetString(ctx, appctx.ContextKeyBusinessId); ok && v != "" {
		fields["business_id"] = v
	}
	if v, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId); ok && v != "" {
		fields["correlation_id"] = v
	}
	return logg.WithFields(fields)
}
