package progress

import (
	"context"
	"exam_trainer_backend/internal/model"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

func (s *Store) SaveTrainerProgress(ctx context.Context, sess Session, p model.Progress) Result[model.Progress] {
	const op = "save_trainer_progress"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[model.Progress](err))
	}
	p.UpdatedAt = s.now().UTC()
	return finish(s, op, s.saveProgress(ctx, sess, model.TrainerMode, trainerKeys, p))
}

// GetTrainerProgress returns the block's progress with Answers sized to
// questionCount. An empty progress is returned when nothing is stored.
func (s *Store) GetTrainerProgress(ctx context.Context, sess Session, block string, questionCount int) Result[model.Progress] {
	const op = "get_trainer_progress"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[model.Progress](err))
	}
	return finish(s, op, s.getProgress(ctx, sess, model.TrainerMode, trainerKeys, block, questionCount))
}

// ResetTrainerProgress clears a block's trainer progress locally and remotely.
func (s *Store) ResetTrainerProgress(ctx context.Context, sess Session, block string) Result[struct{}] {
	const op = "reset_trainer_progress"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[struct{}](err))
	}
	return finish(s, op, s.deleteProgress(ctx, sess, model.TrainerMode, trainerKeys, block))
}

func (s *Store) SaveSimulationProgress(ctx context.Context, sess Session, p model.Progress) Result[model.Progress] {
	const op = "save_simulation_progress"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[model.Progress](err))
	}
	p.UpdatedAt = s.now().UTC()
	return finish(s, op, s.saveProgress(ctx, sess, model.SimulationMode, simulationKeys, p))
}

func (s *Store) GetSimulationProgress(ctx context.Context, sess Session, block string, questionCount int) Result[model.Progress] {
	const op = "get_simulation_progress"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[model.Progress](err))
	}
	return finish(s, op, s.getProgress(ctx, sess, model.SimulationMode, simulationKeys, block, questionCount))
}

// DeleteSimulationProgress drops the in-flight simulation of a block, once
// the attempt finished or timed out.
func (s *Store) DeleteSimulationProgress(ctx context.Context, sess Session, block string) Result[struct{}] {
	const op = "delete_simulation_progress"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[struct{}](err))
	}
	return finish(s, op, s.deleteProgress(ctx, sess, model.SimulationMode, simulationKeys, block))
}

// saveProgress keeps p.UpdatedAt as given so replays keep their original
// timestamp for last-write-wins.
func (s *Store) saveProgress(ctx context.Context, sess Session, mode model.ProgressMode, keys modeKeys, p model.Progress) Result[model.Progress] {
	p.Block = strings.TrimSpace(p.Block)
	if p.Block == "" {
		return failed[model.Progress](ErrEmptyBlock)
	}
	if p.Answers == nil {
		p.Answers = model.AnswerSets{}
	}

	ns := sess.namespace()
	if err := s.writeJSON(ctx, KeyFor(ns, keys.record, p.Block), progressEntry{Progress: p}); err != nil {
		return failed[model.Progress](fmt.Errorf("local write: %w", err))
	}
	if err := s.addToList(ctx, KeyFor(ns, keys.index, ""), p.Block); err != nil {
		return failed[model.Progress](fmt.Errorf("local index write: %w", err))
	}
	// A new save supersedes a pending remote deletion of the block.
	if err := s.removeFromList(ctx, KeyFor(ns, keys.deleted, ""), p.Block); err != nil {
		s.log.Warn("failed to clear deletion marker", zap.String("block", p.Block), zap.Error(err))
	}

	if sess.IsGuest() {
		return local(p)
	}
	if err := s.pushProgress(ctx, sess, mode, keys, p); err != nil {
		return fallback(p, err)
	}
	return synced(p)
}

// pushProgress sends p to the remote store and marks the local copy synced,
// unless the local copy changed in the meantime.
func (s *Store) pushProgress(ctx context.Context, sess Session, mode model.ProgressMode, keys modeKeys, p model.Progress) error {
	if s.remote == nil {
		return errNoRemote
	}
	rctx, span := s.startRemote(ctx, "save_"+string(mode)+"_progress", sess)
	err := s.remote.SaveProgress(rctx, mode, sess.UserID, p)
	endRemote(span, err)
	if err != nil {
		return err
	}

	key := KeyFor(sess.namespace(), keys.record, p.Block)
	var cur progressEntry
	if !s.readJSON(ctx, key, &cur) || !cur.Progress.UpdatedAt.Equal(p.UpdatedAt) {
		return nil
	}
	cur.Synced = true
	if err := s.writeJSON(ctx, key, cur); err != nil {
		s.log.Warn("failed to mark progress synced", zap.String("key", string(key)), zap.Error(err))
	}
	return nil
}

func (s *Store) getProgress(ctx context.Context, sess Session, mode model.ProgressMode, keys modeKeys, block string, questionCount int) Result[model.Progress] {
	block = strings.TrimSpace(block)
	if block == "" {
		return failed[model.Progress](ErrEmptyBlock)
	}

	ns := sess.namespace()
	key := KeyFor(ns, keys.record, block)
	var entry progressEntry
	hasLocal := s.readJSON(ctx, key, &entry)
	localData := func() model.Progress {
		if !hasLocal {
			return model.NewProgress(block, questionCount)
		}
		p := entry.Progress
		p.Block = block
		p.Normalize(questionCount)
		return p
	}

	if sess.IsGuest() {
		return local(localData())
	}
	// Deleted here but the remote does not know yet: do not resurrect it.
	if listContains(s.readList(ctx, KeyFor(ns, keys.deleted, "")), block) {
		return fallback(localData(), nil)
	}
	if s.remote == nil {
		return fallback(localData(), errNoRemote)
	}

	rctx, span := s.startRemote(ctx, "get_"+string(mode)+"_progress", sess)
	remoteP, err := s.remote.GetProgress(rctx, mode, sess.UserID, block)
	endRemote(span, err)
	if err != nil {
		return fallback(localData(), err)
	}
	if remoteP == nil {
		return fallback(localData(), nil)
	}
	if hasLocal && !entry.Synced && entry.Progress.UpdatedAt.After(remoteP.UpdatedAt) {
		return fallback(localData(), ErrLocalNewer)
	}

	p := *remoteP
	p.Block = block
	if p.Answers == nil {
		p.Answers = model.AnswerSets{}
	}
	if err := s.writeJSON(ctx, key, progressEntry{Progress: p, Synced: true}); err != nil {
		s.log.Warn("failed to cache remote progress", zap.String("key", string(key)), zap.Error(err))
	} else if err := s.addToList(ctx, KeyFor(ns, keys.index, ""), block); err != nil {
		s.log.Warn("failed to index cached progress", zap.String("key", string(key)), zap.Error(err))
	}
	p.Normalize(questionCount)
	return synced(p)
}

func (s *Store) deleteProgress(ctx context.Context, sess Session, mode model.ProgressMode, keys modeKeys, block string) Result[struct{}] {
	block = strings.TrimSpace(block)
	if block == "" {
		return failed[struct{}](ErrEmptyBlock)
	}

	ns := sess.namespace()
	if err := s.remove(ctx, KeyFor(ns, keys.record, block)); err != nil {
		return failed[struct{}](fmt.Errorf("local remove: %w", err))
	}
	if err := s.removeFromList(ctx, KeyFor(ns, keys.index, ""), block); err != nil {
		return failed[struct{}](fmt.Errorf("local index write: %w", err))
	}
	if sess.IsGuest() {
		return local(struct{}{})
	}

	if err := s.pushProgressDelete(ctx, sess, mode, block); err != nil {
		if terr := s.addToList(ctx, KeyFor(ns, keys.deleted, ""), block); terr != nil {
			s.log.Warn("failed to record pending deletion", zap.String("block", block), zap.Error(terr))
		}
		return fallback(struct{}{}, err)
	}
	return synced(struct{}{})
}

func (s *Store) pushProgressDelete(ctx context.Context, sess Session, mode model.ProgressMode, block string) error {
	if s.remote == nil {
		return errNoRemote
	}
	rctx, span := s.startRemote(ctx, "delete_"+string(mode)+"_progress", sess)
	err := s.remote.DeleteProgress(rctx, mode, sess.UserID, block)
	endRemote(span, err)
	return err
}
