package src

// Logger is satisfied by *zap.SugaredLogger.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
	Infof(template string, args ...any)
	Sync() error
}
