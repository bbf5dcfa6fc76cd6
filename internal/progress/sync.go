package progress

import (
	"context"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// SyncReport counts what one sweep pushed. Pending is what is still waiting
// for the next sweep.
type SyncReport struct {
	Trainer    int `json:"trainer"`
	Simulation int `json:"simulation"`
	Attempts   int `json:"attempts"`
	Deletions  int `json:"deletions"`
	Pending    int `json:"pending"`
}

func (r SyncReport) Pushed() int {
	return r.Trainer + r.Simulation + r.Attempts + r.Deletions
}

// SyncPendingRecords pushes every local record of a registered user that the
// remote store has not confirmed, and retries pending deletions. One
// record's failure never stops the others. Guests are a no-op.
func (s *Store) SyncPendingRecords(ctx context.Context, sess Session) Result[SyncReport] {
	const op = "sync_pending_records"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[SyncReport](err))
	}
	if sess.IsGuest() {
		return finish(s, op, local(SyncReport{}))
	}
	if s.remote == nil {
		report := SyncReport{Pending: s.countPending(ctx, sess)}
		monitoring.SyncPending.Set(float64(report.Pending))
		return finish(s, op, fallback(report, errNoRemote))
	}

	var report SyncReport
	var lastErr error
	note := func(err error, counter *int) {
		if err != nil {
			report.Pending++
			lastErr = err
			return
		}
		*counter++
	}

	for _, m := range []struct {
		mode    model.ProgressMode
		keys    modeKeys
		counter *int
	}{
		{model.TrainerMode, trainerKeys, &report.Trainer},
		{model.SimulationMode, simulationKeys, &report.Simulation},
	} {
		for _, p := range s.pendingProgress(ctx, sess, m.keys) {
			err := s.pushProgress(ctx, sess, m.mode, m.keys, p)
			if err != nil {
				s.log.Debug("progress still pending", zap.String("mode", string(m.mode)), zap.String("block", p.Block), zap.Error(err))
			}
			note(err, m.counter)
		}
		for _, block := range s.readList(ctx, KeyFor(sess.namespace(), m.keys.deleted, "")) {
			err := s.pushProgressDelete(ctx, sess, m.mode, block)
			if err == nil {
				if rerr := s.removeFromList(ctx, KeyFor(sess.namespace(), m.keys.deleted, ""), block); rerr != nil {
					s.log.Warn("failed to clear deletion marker", zap.String("block", block), zap.Error(rerr))
				}
			}
			note(err, &report.Deletions)
		}
	}

	for _, a := range pendingAttempts(s.readAttempts(ctx, sess.namespace())) {
		_, err := s.pushAttempt(ctx, sess, a)
		if err != nil {
			s.log.Debug("attempt still pending", zap.String("attempt", a.ID), zap.Error(err))
		}
		note(err, &report.Attempts)
	}
	deletedKey := KeyFor(sess.namespace(), CategoryAttemptsDeleted, "")
	for _, id := range s.readList(ctx, deletedKey) {
		err := s.pushAttemptDelete(ctx, sess, id)
		if err == nil {
			if rerr := s.removeFromList(ctx, deletedKey, id); rerr != nil {
				s.log.Warn("failed to clear deletion marker", zap.String("attempt", id), zap.Error(rerr))
			}
		}
		note(err, &report.Deletions)
	}

	monitoring.SyncPending.Set(float64(report.Pending))
	s.log.Info("sync sweep finished",
		zap.String("user_id", sess.UserID),
		zap.Int("pushed", report.Pushed()),
		zap.Int("pending", report.Pending))

	if report.Pending > 0 && report.Pushed() == 0 {
		return finish(s, op, fallback(report, lastErr))
	}
	return finish(s, op, synced(report))
}

// pendingProgress lists the indexed progress records not yet confirmed.
func (s *Store) pendingProgress(ctx context.Context, sess Session, keys modeKeys) []model.Progress {
	ns := sess.namespace()
	var out []model.Progress
	for _, block := range s.readList(ctx, KeyFor(ns, keys.index, "")) {
		var e progressEntry
		if !s.readJSON(ctx, KeyFor(ns, keys.record, block), &e) || e.Synced {
			continue
		}
		e.Progress.Block = block
		out = append(out, e.Progress)
	}
	return out
}

func (s *Store) countPending(ctx context.Context, sess Session) int {
	ns := sess.namespace()
	n := len(s.pendingProgress(ctx, sess, trainerKeys)) +
		len(s.pendingProgress(ctx, sess, simulationKeys)) +
		len(pendingAttempts(s.readAttempts(ctx, ns)))
	for _, c := range []Category{CategoryTrainerDeleted, CategorySimulationDeleted, CategoryAttemptsDeleted} {
		n += len(s.readList(ctx, KeyFor(ns, c, "")))
	}
	return n
}
