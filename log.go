package bpstrong

// Logger receives the selector's diagnostic messages. *log.Logger and
// slog.NewLogLogger satisfy it.
type Logger interface {
	Print(v ...interface{})
}

type noopLogger struct{}

func (noopLogger) Print(v ...interface{}) {}
