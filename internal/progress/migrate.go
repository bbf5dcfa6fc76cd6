package progress

import (
	"context"
	"exam_trainer_backend/internal/model"
	"fmt"

	"go.uber.org/zap"
)

// MigrationReport counts guest records that reached the remote store under
// the new identity. Failed records stay pending locally under that identity.
type MigrationReport struct {
	MigratedTrainer    int `json:"migratedTrainer"`
	MigratedSimulation int `json:"migratedSimulation"`
	MigratedAttempts   int `json:"migratedAttempts"`
	Failed             int `json:"failed"`
}

// MigrateGuestData replays every guest record as a save for the registered
// session to, then clears the guest namespace whatever the outcome. Records
// whose replay failed entirely are lost as guest data.
func (s *Store) MigrateGuestData(ctx context.Context, to Session) Result[MigrationReport] {
	const op = "migrate_guest_data"
	if err := to.validate(); err != nil {
		return finish(s, op, failed[MigrationReport](err))
	}
	if !to.IsRegistered() {
		return finish(s, op, failed[MigrationReport](ErrNotRegistered))
	}

	var report MigrationReport
	var lastErr error
	count := func(status Status, err error, counter *int) {
		switch status {
		case StatusSynced:
			*counter++
		default:
			report.Failed++
			if err == nil {
				err = fmt.Errorf("remote did not confirm the record")
			}
			lastErr = err
		}
	}

	for _, m := range []struct {
		mode    model.ProgressMode
		keys    modeKeys
		counter *int
	}{
		{model.TrainerMode, trainerKeys, &report.MigratedTrainer},
		{model.SimulationMode, simulationKeys, &report.MigratedSimulation},
	} {
		for _, block := range s.readList(ctx, KeyFor(GuestNamespace, m.keys.index, "")) {
			var e progressEntry
			if !s.readJSON(ctx, KeyFor(GuestNamespace, m.keys.record, block), &e) {
				continue
			}
			e.Progress.Block = block
			r := s.saveProgress(ctx, to, m.mode, m.keys, e.Progress)
			if r.Status != StatusSynced {
				s.log.Warn("guest progress not migrated",
					zap.String("mode", string(m.mode)), zap.String("block", block), zap.Error(r.Err))
			}
			count(r.Status, r.Err, m.counter)
		}
	}

	for _, a := range attemptsOf(s.readAttempts(ctx, GuestNamespace)) {
		r := s.saveAttempt(ctx, to, a)
		if r.Status != StatusSynced {
			s.log.Warn("guest attempt not migrated", zap.String("attempt", a.ID), zap.Error(r.Err))
		}
		count(r.Status, r.Err, &report.MigratedAttempts)
	}

	if err := s.clearNamespace(ctx, GuestNamespace); err != nil {
		s.log.Error("failed to clear guest data after migration", zap.Error(err))
	}

	s.log.Info("guest data migrated",
		zap.String("user_id", to.UserID),
		zap.Int("trainer", report.MigratedTrainer),
		zap.Int("simulation", report.MigratedSimulation),
		zap.Int("attempts", report.MigratedAttempts),
		zap.Int("failed", report.Failed))

	if report.Failed > 0 {
		return finish(s, op, fallback(report, lastErr))
	}
	return finish(s, op, synced(report))
}
