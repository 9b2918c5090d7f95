package utils

import "go.uber.org/zap"

// NewLogger builds the process logger for env. "test" yields a no-op logger.
func NewLogger(env string) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	switch env {
	case "test":
		return zap.NewNop()
	case "development":
		log, err = zap.NewDevelopment()
	default:
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log.With(zap.String("service", "social-service"))
}
