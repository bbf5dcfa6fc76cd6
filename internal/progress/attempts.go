package progress

import (
	"context"
	"exam_trainer_backend/internal/model"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// SaveExamAttempt stores a completed attempt. An attempt without an id gets a
// local one. The local copy is written before any network call.
func (s *Store) SaveExamAttempt(ctx context.Context, sess Session, a model.ExamAttempt) Result[model.ExamAttempt] {
	const op = "save_exam_attempt"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[model.ExamAttempt](err))
	}
	return finish(s, op, s.saveAttempt(ctx, sess, a))
}

// GetExamAttempts returns the attempt history, most recent first. For
// registered users the remote list is merged with attempts still waiting to
// be uploaded.
func (s *Store) GetExamAttempts(ctx context.Context, sess Session) Result[[]model.ExamAttempt] {
	const op = "get_exam_attempts"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[[]model.ExamAttempt](err))
	}

	ns := sess.namespace()
	entries := s.readAttempts(ctx, ns)
	localList := attemptsOf(entries)

	if sess.IsGuest() {
		return finish(s, op, local(localList))
	}
	if s.remote == nil {
		return finish(s, op, fallback(localList, errNoRemote))
	}

	rctx, span := s.startRemote(ctx, op, sess)
	remoteList, err := s.remote.GetExamAttempts(rctx, sess.UserID)
	endRemote(span, err)
	if err != nil {
		return finish(s, op, fallback(localList, err))
	}

	deleted := s.readList(ctx, KeyFor(ns, CategoryAttemptsDeleted, ""))
	remoteList = withoutIDs(remoteList, deleted)
	if len(remoteList) == 0 {
		return finish(s, op, fallback(localList, nil))
	}

	merged := MergeAttempts(remoteList, pendingAttempts(entries))

	pending := make(map[string]bool)
	for _, e := range entries {
		if !e.Synced {
			pending[e.Attempt.ID] = true
		}
	}
	cached := make([]attemptEntry, 0, len(merged))
	for _, a := range merged {
		cached = append(cached, attemptEntry{Attempt: a, Synced: !pending[a.ID]})
	}
	if err := s.writeJSON(ctx, KeyFor(ns, CategoryAttempts, ""), cached); err != nil {
		s.log.Warn("failed to cache merged attempts", zap.Error(err))
	}
	return finish(s, op, synced(merged))
}

// DeleteExamAttempt removes an attempt locally and, for registered users,
// remotely. A local id is looked up remotely too, since its upload may have
// committed without the reply arriving. A failed remote delete is retried by
// the next sync sweep.
func (s *Store) DeleteExamAttempt(ctx context.Context, sess Session, attemptID string) Result[struct{}] {
	const op = "delete_exam_attempt"
	if err := sess.validate(); err != nil {
		return finish(s, op, failed[struct{}](err))
	}
	attemptID = strings.TrimSpace(attemptID)
	if attemptID == "" {
		return finish(s, op, failed[struct{}](fmt.Errorf("attempt id is required")))
	}

	ns := sess.namespace()
	entries := s.readAttempts(ctx, ns)
	kept := entries[:0]
	for _, e := range entries {
		if !e.Attempt.Matches(attemptID) {
			kept = append(kept, e)
		}
	}
	if err := s.writeAttempts(ctx, ns, kept); err != nil {
		return finish(s, op, failed[struct{}](fmt.Errorf("local write: %w", err)))
	}

	if sess.IsGuest() {
		return finish(s, op, local(struct{}{}))
	}

	if err := s.pushAttemptDelete(ctx, sess, attemptID); err != nil {
		if terr := s.addToList(ctx, KeyFor(ns, CategoryAttemptsDeleted, ""), attemptID); terr != nil {
			s.log.Warn("failed to record pending deletion", zap.String("attempt", attemptID), zap.Error(terr))
		}
		return finish(s, op, fallback(struct{}{}, err))
	}
	return finish(s, op, synced(struct{}{}))
}

// MergeAttempts unions the remote list with locally created attempts the
// server has not confirmed. Remote records own their ids; a local record is
// added only when it carries a local id that no remote record has, either as
// id or as client id. The result is sorted by date, most recent first,
// keeping input order on ties.
func MergeAttempts(remote, localList []model.ExamAttempt) []model.ExamAttempt {
	seen := make(map[string]bool, len(remote)+len(localList))
	merged := make([]model.ExamAttempt, 0, len(remote)+len(localList))
	for _, a := range remote {
		if seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if a.ClientID != "" {
			seen[a.ClientID] = true
		}
		merged = append(merged, a)
	}
	for _, a := range localList {
		if !model.IsLocalID(a.ID) || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		merged = append(merged, a)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}

func (s *Store) saveAttempt(ctx context.Context, sess Session, a model.ExamAttempt) Result[model.ExamAttempt] {
	if strings.TrimSpace(a.Block) == "" {
		return failed[model.ExamAttempt](ErrEmptyBlock)
	}
	if a.ID == "" {
		a.ID = model.NewLocalID()
	}
	if a.Date.IsZero() {
		a.Date = s.now().UTC()
	}

	ns := sess.namespace()
	entries := s.readAttempts(ctx, ns)
	replaced := false
	for i := range entries {
		if entries[i].Attempt.ID == a.ID {
			entries[i] = attemptEntry{Attempt: a, Synced: entries[i].Synced}
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, attemptEntry{Attempt: a})
	}
	if err := s.writeAttempts(ctx, ns, entries); err != nil {
		return failed[model.ExamAttempt](fmt.Errorf("local write: %w", err))
	}

	if sess.IsGuest() {
		return local(a)
	}
	stored, err := s.pushAttempt(ctx, sess, a)
	if err != nil {
		return fallback(a, err)
	}
	return synced(stored)
}

// pushAttempt uploads a and swaps its local id for the server id in the
// local store. It returns the attempt as now stored locally.
func (s *Store) pushAttempt(ctx context.Context, sess Session, a model.ExamAttempt) (model.ExamAttempt, error) {
	if s.remote == nil {
		return a, errNoRemote
	}
	rctx, span := s.startRemote(ctx, "save_exam_attempt", sess)
	stored, err := s.remote.SaveExamAttempt(rctx, sess.UserID, a)
	endRemote(span, err)
	if err != nil {
		return a, err
	}

	confirmed := a
	if stored != nil && stored.ID != "" {
		confirmed.ID = stored.ID
		confirmed.ClientID = stored.ClientID
	}
	if confirmed.ClientID == "" && model.IsLocalID(a.ID) {
		confirmed.ClientID = a.ID
	}

	ns := sess.namespace()
	entries := s.readAttempts(ctx, ns)
	out := entries[:0]
	placed := false
	for _, e := range entries {
		switch {
		case e.Attempt.ID == a.ID && !placed:
			out = append(out, attemptEntry{Attempt: confirmed, Synced: true})
			placed = true
		case e.Attempt.ID == confirmed.ID || e.Attempt.ID == a.ID:
			// A cached copy of the server record, or a duplicate.
		default:
			out = append(out, e)
		}
	}
	if err := s.writeAttempts(ctx, ns, out); err != nil {
		s.log.Warn("failed to record attempt id from server", zap.String("attempt", a.ID), zap.Error(err))
	}
	return confirmed, nil
}

// pushAttemptDelete deletes the attempt remotely. A local id is first
// resolved to the server id of the upload that used it; when there is none,
// nothing needs deleting.
func (s *Store) pushAttemptDelete(ctx context.Context, sess Session, attemptID string) error {
	if s.remote == nil {
		return errNoRemote
	}
	if model.IsLocalID(attemptID) {
		rctx, span := s.startRemote(ctx, "get_exam_attempts", sess)
		list, err := s.remote.GetExamAttempts(rctx, sess.UserID)
		endRemote(span, err)
		if err != nil {
			return err
		}
		serverID := ""
		for _, a := range list {
			if a.ClientID == attemptID {
				serverID = a.ID
				break
			}
		}
		if serverID == "" {
			return nil
		}
		attemptID = serverID
	}
	rctx, span := s.startRemote(ctx, "delete_exam_attempt", sess)
	err := s.remote.DeleteExamAttempt(rctx, sess.UserID, attemptID)
	endRemote(span, err)
	return err
}

func (s *Store) readAttempts(ctx context.Context, ns Namespace) []attemptEntry {
	var entries []attemptEntry
	s.readJSON(ctx, KeyFor(ns, CategoryAttempts, ""), &entries)
	return entries
}

func (s *Store) writeAttempts(ctx context.Context, ns Namespace, entries []attemptEntry) error {
	if len(entries) == 0 {
		return s.remove(ctx, KeyFor(ns, CategoryAttempts, ""))
	}
	return s.writeJSON(ctx, KeyFor(ns, CategoryAttempts, ""), entries)
}

// attemptsOf returns the attempts in display order. It never returns nil.
func attemptsOf(entries []attemptEntry) []model.ExamAttempt {
	out := make([]model.ExamAttempt, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Attempt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func pendingAttempts(entries []attemptEntry) []model.ExamAttempt {
	var out []model.ExamAttempt
	for _, e := range entries {
		if !e.Synced {
			out = append(out, e.Attempt)
		}
	}
	return out
}

func withoutIDs(list []model.ExamAttempt, ids []string) []model.ExamAttempt {
	if len(ids) == 0 {
		return list
	}
	out := make([]model.ExamAttempt, 0, len(list))
	for _, a := range list {
		if !listContains(ids, a.ID) && (a.ClientID == "" || !listContains(ids, a.ClientID)) {
			out = append(out, a)
		}
	}
	return out
}
