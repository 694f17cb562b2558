package types

// Logger is the minimal structured logging interface used throughout the
// service. slog.Logger satisfies Info/Warn/Error directly but its With
// returns *slog.Logger, so mains wrap it in a small adapter.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}
