package logger

import "context"

type scope struct {
	requestID string
	loadID    string
	source    string
}

type scopeKey struct{}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// WithRequest tags ctx with a request id; empty ids are ignored
func WithRequest(ctx context.Context, reqID string) context.Context {
	if reqID == "" {
		return ctx
	}
	s := scopeOf(ctx)
	s.requestID = reqID
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithLoad tags ctx with the dataset load id and where it came from. Empty
// values leave the existing ones in place
func WithLoad(ctx context.Context, loadID, source string) context.Context {
	if loadID == "" && source == "" {
		return ctx
	}
	s := scopeOf(ctx)
	if loadID != "" {
		s.loadID = loadID
	}
	if source != "" {
		s.source = source
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

func RequestID(ctx context.Context) string { return scopeOf(ctx).requestID }

func LoadID(ctx context.Context) string { return scopeOf(ctx).loadID }

// C returns the root logger carrying request_id, load_id and source from ctx
func C(ctx context.Context) *Logger {
	s := scopeOf(ctx)
	zc := Get().With()
	if s.requestID != "" {
		zc = zc.Str("request_id", s.requestID)
	}
	if s.loadID != "" {
		zc = zc.Str("load_id", s.loadID)
	}
	if s.source != "" {
		zc = zc.Str("source", s.source)
	}
	l := zc.Logger()
	return &l
}
