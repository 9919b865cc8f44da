package lookup

import (
	"context"
	"log/slog"

	"github.com/LavishGent/billboard/internal/types"
)

// SlogLogger returns a *slog.Logger that writes to l. A nil l yields
// slog.Default and an l that already is a *slog.Logger is returned as is.
func SlogLogger(l types.Logger) *slog.Logger {
	switch v := l.(type) {
	case nil:
		return slog.Default()
	case *slog.Logger:
		if v == nil {
			return slog.Default()
		}
		return v
	default:
		return slog.New(slogAdapter{logger: l})
	}
}

// slogAdapter adapts a types.Logger to slog.Handler.
type slogAdapter struct {
	logger types.Logger
	group  string
	attrs  []slog.Attr
}

func (a slogAdapter) Enabled(context.Context, slog.Level) bool {
	return true
}

//nolint:gocritic // slog.Handler interface requires passing Record by value
func (a slogAdapter) Handle(_ context.Context, r slog.Record) error {
	args := make([]any, 0, (len(a.attrs)+r.NumAttrs())*2)
	for _, attr := range a.attrs {
		args = append(args, attr.Key, attr.Value.Any())
	}
	r.Attrs(func(attr slog.Attr) bool {
		args = append(args, a.key(attr.Key), attr.Value.Any())
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		a.logger.Error(r.Message, args...)
	case r.Level >= slog.LevelWarn:
		a.logger.Warn(r.Message, args...)
	case r.Level >= slog.LevelInfo:
		a.logger.Info(r.Message, args...)
	default:
		a.logger.Debug(r.Message, args...)
	}
	return nil
}

func (a slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(a.attrs)+len(attrs))
	merged = append(merged, a.attrs...)
	for _, attr := range attrs {
		attr.Key = a.key(attr.Key)
		merged = append(merged, attr)
	}
	return slogAdapter{logger: a.logger, group: a.group, attrs: merged}
}

func (a slogAdapter) WithGroup(name string) slog.Handler {
	if name == "" {
		return a
	}
	group := name
	if a.group != "" {
		group = a.group + "." + name
	}
	return slogAdapter{logger: a.logger, attrs: a.attrs, group: group}
}

func (a slogAdapter) key(k string) string {
	if a.group == "" {
		return k
	}
	return a.group + "." + k
}
