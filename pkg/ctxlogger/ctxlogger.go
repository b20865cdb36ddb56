package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey int

const slogFields ctxKey = iota

// ContextHandler wraps a slog.Handler and adds the attributes carried by the
// record's context (see AppendCtx) to every record.
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(slogFields).([]slog.Attr); ok {
		for _, attr := range attrs {
			r.AddAttrs(attr)
		}
	}

	return h.Handler.Handle(ctx, r)
}

// AppendCtx returns a context carrying attr in addition to any attributes the
// parent context already carries.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if attrs, ok := parent.Value(slogFields).([]slog.Attr); ok {
		newAttrs := make([]slog.Attr, 0, len(attrs)+1)
		newAttrs = append(newAttrs, attrs...)
		newAttrs = append(newAttrs, attr)
		return context.WithValue(parent, slogFields, newAttrs)
	}

	return context.WithValue(parent, slogFields, []slog.Attr{attr})
}
