package progress

import (
	"context"
	"errors"
)

// ClearLocalData removes every locally cached record of the session, as on
// logout. Records not yet confirmed by the remote store are lost.
func (s *Store) ClearLocalData(ctx context.Context, sess Session) Result[struct{}] {
	const op = "clear_local_data"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[struct{}](err))
	}
	if err := s.clearNamespace(ctx, sess.namespace()); err != nil {
		return finish(s, op, failed[struct{}](err))
	}
	return finish(s, op, local(struct{}{}))
}

func (s *Store) clearNamespace(ctx context.Context, ns Namespace) error {
	var errs []error
	for _, keys := range []modeKeys{trainerKeys, simulationKeys} {
		for _, block := range s.readList(ctx, KeyFor(ns, keys.index, "")) {
			errs = append(errs, s.remove(ctx, KeyFor(ns, keys.record, block)))
		}
		errs = append(errs,
			s.remove(ctx, KeyFor(ns, keys.index, "")),
			s.remove(ctx, KeyFor(ns, keys.deleted, "")),
		)
	}
	errs = append(errs,
		s.remove(ctx, KeyFor(ns, CategoryAttempts, "")),
		s.remove(ctx, KeyFor(ns, CategoryAttemptsDeleted, "")),
	)
	return errors.Join(errs...)
}
