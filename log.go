package scrollwizardry

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

var logger = slog.Default()

// SetLogger sets the logger used by every scene and controller. A nil logger
// restores slog.Default().
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	logger = l
}

func slogLevel(level int) slog.Level {
	switch level {
	case LogError:
		return slog.LevelError
	case LogWarn:
		return slog.LevelWarn
	default:
		return slog.LevelDebug
	}
}

// logAt writes msg when level is within threshold. Every record carries the
// owning component and its id.
func logAt(threshold, level int, component string, id uuid.UUID, msg string, attrs ...slog.Attr) {
	if level <= LogSilent || level > threshold {
		return
	}
	all := make([]slog.Attr, 0, len(attrs)+2)
	all = append(all, slog.String("component", component), slog.String("id", id.String()))
	all = append(all, attrs...)
	logger.LogAttrs(context.Background(), slogLevel(level), msg, all...)
}

func (s *Scene) log(level int, msg string, attrs ...slog.Attr) {
	logAt(s.logLevel, level, "scene", s.id, msg, attrs...)
}

func (c *Controller) log(level int, msg string, attrs ...slog.Attr) {
	logAt(c.logLevel, level, "controller", c.id, msg, attrs...)
}
