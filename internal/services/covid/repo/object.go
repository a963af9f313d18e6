package repo

import (
	"context"

	"covidsignal/internal/core/bundle"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/services/covid/domain"
)

// ContentType of an encoded bundle
const ContentType = "application/vnd.msgpack"

// Putter uploads one object
type Putter interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
}

// ObjectSink uploads the bundle to an object store under loads/<load id>.msgpack
type ObjectSink struct {
	store  Putter
	prefix string
}

var _ domain.Sink = (*ObjectSink)(nil)

// NewObject binds a sink to an object store; an empty prefix means "loads"
func NewObject(p Putter, prefix string) *ObjectSink {
	if prefix == "" {
		prefix = "loads"
	}
	return &ObjectSink{store: p, prefix: prefix}
}

// Name implements domain.Sink
func (*ObjectSink) Name() string { return "s3" }

// Key returns the object key for a load
func (s *ObjectSink) Key(loadID string) string { return s.prefix + "/" + loadID + ".msgpack" }

// Write implements domain.Sink
func (s *ObjectSink) Write(ctx context.Context, e domain.Export) error {
	if s.store == nil {
		return perr.Unavailablef("object store is not configured")
	}
	data, err := bundle.Marshal(bundle.FromSignal(e.Summary.LoadID, e.Summary.Source, e.Summary.LoadedAt, e.Signal))
	if err != nil {
		return err
	}
	return s.store.Put(ctx, s.Key(e.Summary.LoadID), data, ContentType)
}
