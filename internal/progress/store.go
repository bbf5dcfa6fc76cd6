// Package progress keeps trainer progress, simulation progress and exam
// attempts for a session. Every write lands in the local store first; for
// registered users it is then mirrored to the remote data service, falling
// back to the local copy whenever the remote is unavailable.
package progress

import (
	"context"
	"encoding/json"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/pkg/monitoring"
	"exam_trainer_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// LocalStore is a durable string key-value store. Each call must be atomic
// on its own; no transactions are assumed.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Remote is the remote data service. Any error is treated as a transient
// remote failure. Deletes succeed when there is nothing left to delete.
type Remote interface {
	SaveProgress(ctx context.Context, mode model.ProgressMode, userID string, p model.Progress) error
	// GetProgress returns nil when the service has no progress for the block.
	GetProgress(ctx context.Context, mode model.ProgressMode, userID, block string) (*model.Progress, error)
	DeleteProgress(ctx context.Context, mode model.ProgressMode, userID, block string) error
	// SaveExamAttempt returns the stored attempt, or nil if the service did
	// not echo it back.
	SaveExamAttempt(ctx context.Context, userID string, a model.ExamAttempt) (*model.ExamAttempt, error)
	// GetExamAttempts lists the user's attempts. Uploads made under a local
	// id carry it as ClientID.
	GetExamAttempts(ctx context.Context, userID string) ([]model.ExamAttempt, error)
	DeleteExamAttempt(ctx context.Context, userID, attemptID string) error
}

type Store struct {
	local  LocalStore
	remote Remote
	log    *zap.Logger
	now    func() time.Time
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(local LocalStore, remote Remote, opts ...Option) *Store {
	s := &Store{
		local:  local,
		remote: remote,
		log:    zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// progressEntry and attemptEntry are the local encodings. Synced is false
// until the remote store has confirmed the record.
type progressEntry struct {
	Progress model.Progress `json:"progress"`
	Synced   bool           `json:"synced"`
}

type attemptEntry struct {
	Attempt model.ExamAttempt `json:"attempt"`
	Synced  bool              `json:"synced"`
}

// readJSON loads key into dst. Missing, unreadable and corrupted values all
// report false; corruption is logged and otherwise treated as absence.
func (s *Store) readJSON(ctx context.Context, key Key, dst interface{}) bool {
	raw, ok, err := s.local.Get(ctx, string(key))
	if err != nil {
		s.log.Warn("local read failed", zap.String("key", string(key)), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		s.log.Warn("discarding corrupted local record", zap.String("key", string(key)), zap.Error(err))
		return false
	}
	return true
}

func (s *Store) writeJSON(ctx context.Context, key Key, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.local.Set(ctx, string(key), string(b))
}

func (s *Store) remove(ctx context.Context, key Key) error {
	return s.local.Remove(ctx, string(key))
}

// readList and writeList handle the string lists used for block indexes and
// deletion tombstones. An empty list removes the key.
func (s *Store) readList(ctx context.Context, key Key) []string {
	var list []string
	s.readJSON(ctx, key, &list)
	return list
}

func (s *Store) writeList(ctx context.Context, key Key, list []string) error {
	if len(list) == 0 {
		return s.remove(ctx, key)
	}
	return s.writeJSON(ctx, key, list)
}

func (s *Store) addToList(ctx context.Context, key Key, item string) error {
	list := s.readList(ctx, key)
	for _, v := range list {
		if v == item {
			return nil
		}
	}
	return s.writeList(ctx, key, append(list, item))
}

func (s *Store) removeFromList(ctx context.Context, key Key, item string) error {
	list := s.readList(ctx, key)
	out := list[:0]
	found := false
	for _, v := range list {
		if v == item {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		return nil
	}
	return s.writeList(ctx, key, out)
}

func listContains(list []string, item string) bool {
	for _, v := range list {
		if v == item {
			return true
		}
	}
	return false
}

// startRemote opens a span around one remote call.
func (s *Store) startRemote(ctx context.Context, op string, sess Session) (context.Context, trace.Span) {
	return tracing.Tracer().Start(ctx, "progress.remote."+op,
		trace.WithAttributes(attribute.String("user.id", sess.UserID)))
}

func endRemote(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// finish records the outcome of a public operation.
func finish[T any](s *Store, op string, r Result[T]) Result[T] {
	monitoring.ProgressOperations.WithLabelValues(op, r.Status.String()).Inc()
	switch {
	case r.Status == StatusFailed:
		s.log.Error("progress operation failed", zap.String("op", op), zap.Error(r.Err))
	case r.Status == StatusLocalFallback && r.Err != nil:
		s.log.Warn("remote unavailable, using local copy", zap.String("op", op), zap.Error(r.Err))
	}
	return r
}
