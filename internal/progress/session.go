package progress

import (
	"context"
	"exam_trainer_backend/internal/model"
)

// Session identifies who an operation acts for. It is passed explicitly to
// every Store call.
type Session struct {
	UserID string         `json:"userId"`
	Name   string         `json:"name,omitempty"`
	Kind   model.UserKind `json:"kind"`
}

func GuestSession(userID, name string) Session {
	return Session{UserID: userID, Name: name, Kind: model.Guest}
}

func RegisteredSession(userID, name string) Session {
	return Session{UserID: userID, Name: name, Kind: model.Registered}
}

func (s Session) IsGuest() bool {
	return s.Kind == model.Guest
}

func (s Session) IsRegistered() bool {
	return s.Kind == model.Registered
}

// validate reports ErrNoSession for a zero session or a registered session
// without a user id. Guests may be anonymous: they all share one namespace.
func (s Session) validate() error {
	switch s.Kind {
	case model.Guest:
		return nil
	case model.Registered:
		if s.UserID == "" {
			return ErrNoSession
		}
		return nil
	default:
		return ErrNoSession
	}
}

func (s Session) namespace() Namespace {
	if s.IsGuest() {
		return GuestNamespace
	}
	return UserNamespace(s.UserID)
}

// sessionKey holds the current session. It has fewer segments than any record
// key, so it cannot collide with one.
const sessionKey Key = keyPrefix + ":session"

// CurrentSession returns the session saved by SaveSession, if any.
func (s *Store) CurrentSession(ctx context.Context) (Session, bool) {
	var sess Session
	if !s.readJSON(ctx, sessionKey, &sess) {
		return Session{}, false
	}
	if sess.validate() != nil {
		return Session{}, false
	}
	return sess, true
}

func (s *Store) SaveSession(ctx context.Context, sess Session) error {
	if err := sess.validate(); err != nil {
		return err
	}
	return s.writeJSON(ctx, sessionKey, sess)
}

func (s *Store) ForgetSession(ctx context.Context) error {
	return s.remove(ctx, sessionKey)
}
