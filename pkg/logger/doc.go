// Package logger builds configured slog.Logger instances.
//
// Defaults are production-safe (JSON at info level on stdout); options and an
// env-loadable Config adjust format, level, output, and static attributes.
//
//	log := logger.New(
//		logger.WithFormat(logger.FormatText),
//		logger.WithLevel(slog.LevelDebug),
//		logger.WithAttr(slog.String("service", "scheduler")),
//	)
package logger
