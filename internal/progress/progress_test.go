package progress

import (
	"context"
	"encoding/json"
	"exam_trainer_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrainerProgress_GuestBlockScenario(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, _ := newTestStore(t, remote)

	p := model.NewProgress("Block 1", 30)
	p.SetAnswer(0, model.AnswerSet{"A"})
	saved := store.SaveTrainerProgress(ctx, guest, p)
	require.True(t, saved.Success())
	assert.Equal(t, StatusLocal, saved.Status)
	assert.True(t, saved.IsLocalOnly())
	assert.NoError(t, saved.Err)

	got := store.GetTrainerProgress(ctx, guest, "Block 1", 30)
	require.Equal(t, StatusLocal, got.Status)
	require.Len(t, got.Data.Answers, 30)
	assert.Equal(t, model.AnswerSet{"A"}, got.Data.Answers[0])
	for i := 1; i < 30; i++ {
		assert.Nil(t, got.Data.Answers[i], "question %d", i+1)
	}
	assert.Equal(t, 0, got.Data.Cursor)
	assert.Equal(t, 0, remote.callCount())
}

func TestTrainerProgress_EmptyWhenNothingStored(t *testing.T) {
	store, _ := newTestStore(t, newFakeRemote())

	got := store.GetTrainerProgress(context.Background(), guest, "Block 7", 5)
	require.True(t, got.Success())
	assert.Equal(t, "Block 7", got.Data.Block)
	assert.Len(t, got.Data.Answers, 5)
	assert.Zero(t, got.Data.AnsweredCount())
}

func TestProgress_RegisteredSyncedSave(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, kv := newTestStore(t, remote)

	r := store.SaveSimulationProgress(ctx, alice, model.Progress{Block: "Block 2", Answers: model.AnswerSets{{"B"}, nil}, Cursor: 1})
	require.Equal(t, StatusSynced, r.Status)
	assert.False(t, r.IsLocalOnly())
	assert.False(t, r.Data.UpdatedAt.IsZero())

	stored, ok := remote.progress[progressKey{model.SimulationMode, "42", "Block 2"}]
	require.True(t, ok)
	assert.Equal(t, model.AnswerSets{{"B"}, nil}, stored.Answers)

	raw, ok, err := kv.Get(ctx, string(KeyFor(UserNamespace("42"), CategorySimulation, "Block 2")))
	require.NoError(t, err)
	require.True(t, ok)
	var entry progressEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entry))
	assert.True(t, entry.Synced)
}

func TestProgress_LocalDurabilityWhenRemoteFails(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.offline()
	store, _ := newTestStore(t, remote)

	p := model.NewProgress("Block 1", 3)
	p.SetAnswer(2, model.AnswerSet{"C", "D"})
	saved := store.SaveTrainerProgress(ctx, alice, p)
	require.True(t, saved.Success())
	assert.Equal(t, StatusLocalFallback, saved.Status)
	assert.True(t, saved.IsLocalOnly())
	assert.ErrorIs(t, saved.Err, errOffline)

	got := store.GetTrainerProgress(ctx, alice, "Block 1", 3)
	require.True(t, got.Success())
	assert.Equal(t, StatusLocalFallback, got.Status)
	assert.Equal(t, model.AnswerSet{"C", "D"}, got.Data.Answers[2])
	assert.Equal(t, 2, got.Data.Cursor)
}

func TestProgress_FallbackIsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.offline()
	store, kv := newTestStore(t, remote)

	p := model.Progress{Block: "Block 1", Answers: model.AnswerSets{{"A"}}}
	first := store.SaveTrainerProgress(ctx, alice, p)
	second := store.SaveTrainerProgress(ctx, alice, p)
	assert.Equal(t, StatusLocalFallback, first.Status)
	assert.Equal(t, StatusLocalFallback, second.Status)

	ns := UserNamespace("42")
	assert.Equal(t, []string{
		string(KeyFor(ns, CategoryTrainerIndex, "")),
		string(KeyFor(ns, CategoryTrainer, "Block 1")),
	}, kv.Keys(keyPrefix+":"+string(ns)))

	remote.online()
	report := store.SyncPendingRecords(ctx, alice)
	require.Equal(t, StatusSynced, report.Status)
	assert.Equal(t, 1, report.Data.Trainer)
	assert.Len(t, remote.progress, 1)
}

func TestProgress_ReadRefreshesFromRemote(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, _ := newTestStore(t, remote)

	otherDevice := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	remote.progress[progressKey{model.TrainerMode, "42", "Block 3"}] = model.Progress{
		Block: "Block 3", Answers: model.AnswerSets{nil, {"B"}}, Cursor: 1, UpdatedAt: otherDevice,
	}

	got := store.GetTrainerProgress(ctx, alice, "Block 3", 4)
	require.Equal(t, StatusSynced, got.Status)
	assert.Equal(t, model.AnswerSets{nil, {"B"}, nil, nil}, got.Data.Answers)

	remote.offline()
	cached := store.GetTrainerProgress(ctx, alice, "Block 3", 4)
	assert.Equal(t, StatusLocalFallback, cached.Status)
	assert.Equal(t, got.Data.Answers, cached.Data.Answers)
}

func TestProgress_PendingLocalNewerThanRemote(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, _ := newTestStore(t, remote)

	remote.progress[progressKey{model.TrainerMode, "42", "Block 1"}] = model.Progress{
		Block: "Block 1", Answers: model.AnswerSets{{"old"}}, UpdatedAt: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	remote.failOn = func(op string, _ int) bool { return op == "save_progress" }
	saved := store.SaveTrainerProgress(ctx, alice, model.Progress{Block: "Block 1", Answers: model.AnswerSets{{"new"}}})
	require.Equal(t, StatusLocalFallback, saved.Status)
	remote.online()

	got := store.GetTrainerProgress(ctx, alice, "Block 1", 1)
	assert.Equal(t, StatusLocalFallback, got.Status)
	assert.ErrorIs(t, got.Err, ErrLocalNewer)
	assert.Equal(t, model.AnswerSets{{"new"}}, got.Data.Answers)
}

func TestProgress_LastWriteWinsAcrossDevices(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.offline()

	t0 := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	deviceA, _ := newTestStore(t, remote)
	deviceA.now = func() time.Time { return t0 }
	deviceB, _ := newTestStore(t, remote)
	deviceB.now = func() time.Time { return t0.Add(time.Minute) }

	a := deviceA.SaveSimulationProgress(ctx, alice, model.Progress{Block: "Block 4", Answers: model.AnswerSets{{"A"}}})
	b := deviceB.SaveSimulationProgress(ctx, alice, model.Progress{Block: "Block 4", Answers: model.AnswerSets{{"B"}}})
	require.Equal(t, StatusLocalFallback, a.Status)
	require.Equal(t, StatusLocalFallback, b.Status)

	remote.online()
	require.Equal(t, StatusSynced, deviceB.SyncPendingRecords(ctx, alice).Status)
	require.Equal(t, StatusSynced, deviceA.SyncPendingRecords(ctx, alice).Status)

	stored := remote.progress[progressKey{model.SimulationMode, "42", "Block 4"}]
	assert.Equal(t, model.AnswerSets{{"B"}}, stored.Answers)
	assert.True(t, stored.UpdatedAt.Equal(t0.Add(time.Minute)))
}

func TestProgress_CorruptedLocalRecord(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, newFakeRemote())

	require.NoError(t, kv.Set(ctx, string(KeyFor(GuestNamespace, CategoryTrainer, "Block 1")), "{not json"))

	got := store.GetTrainerProgress(ctx, guest, "Block 1", 2)
	require.True(t, got.Success())
	assert.Equal(t, model.AnswerSets{nil, nil}, got.Data.Answers)

	saved := store.SaveTrainerProgress(ctx, guest, model.Progress{Block: "Block 1", Answers: model.AnswerSets{{"A"}}})
	require.True(t, saved.Success())
	got = store.GetTrainerProgress(ctx, guest, "Block 1", 2)
	assert.Equal(t, model.AnswerSets{{"A"}, nil}, got.Data.Answers)
}

func TestProgress_MissingSession(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, kv := newTestStore(t, remote)

	for _, sess := range []Session{{}, RegisteredSession("", "nobody")} {
		r := store.SaveTrainerProgress(ctx, sess, model.Progress{Block: "Block 1"})
		assert.Equal(t, StatusFailed, r.Status)
		assert.ErrorIs(t, r.Err, ErrNoSession)
		assert.False(t, r.Success())

		d := r.Descriptor()
		assert.False(t, d.Success)
		assert.Nil(t, d.Data)
		assert.Equal(t, ErrNoSession.Error(), d.Error)
	}
	assert.Empty(t, kv.Keys(""))
	assert.Equal(t, 0, remote.callCount())
}

func TestProgress_EmptyBlockFails(t *testing.T) {
	store, _ := newTestStore(t, newFakeRemote())

	r := store.SaveTrainerProgress(context.Background(), guest, model.Progress{Block: "  "})
	assert.Equal(t, StatusFailed, r.Status)
	assert.ErrorIs(t, r.Err, ErrEmptyBlock)
}

func TestProgress_ResetWhileOfflineIsNotResurrected(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, _ := newTestStore(t, remote)

	require.Equal(t, StatusSynced, store.SaveTrainerProgress(ctx, alice, model.Progress{Block: "Block 1", Answers: model.AnswerSets{{"A"}}}).Status)

	remote.failOn = func(op string, _ int) bool { return op == "delete_progress" }
	reset := store.ResetTrainerProgress(ctx, alice, "Block 1")
	assert.Equal(t, StatusLocalFallback, reset.Status)

	got := store.GetTrainerProgress(ctx, alice, "Block 1", 2)
	assert.Equal(t, StatusLocalFallback, got.Status)
	assert.Equal(t, model.AnswerSets{nil, nil}, got.Data.Answers)

	remote.online()
	report := store.SyncPendingRecords(ctx, alice)
	require.Equal(t, StatusSynced, report.Status)
	assert.Equal(t, 1, report.Data.Deletions)
	assert.Empty(t, remote.progress)

	got = store.GetTrainerProgress(ctx, alice, "Block 1", 2)
	assert.Equal(t, StatusLocalFallback, got.Status)
	assert.NoError(t, got.Err)
}

func TestSimulationProgress_DeleteAfterFinish(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	store, kv := newTestStore(t, remote)

	require.Equal(t, StatusSynced, store.SaveSimulationProgress(ctx, alice, model.Progress{Block: "Block 5"}).Status)
	del := store.DeleteSimulationProgress(ctx, alice, "Block 5")
	assert.Equal(t, StatusSynced, del.Status)
	assert.Empty(t, remote.progress)
	assert.Empty(t, kv.Keys(""))
}

func TestProgress_NoRemoteConfigured(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, nil)

	r := store.SaveTrainerProgress(ctx, alice, model.Progress{Block: "Block 1"})
	assert.Equal(t, StatusLocalFallback, r.Status)
	assert.Error(t, r.Err)
}

func TestResult_Descriptor(t *testing.T) {
	d := fallback(3, errOffline).Descriptor()
	assert.True(t, d.Success)
	assert.Equal(t, 3, d.Data)
	assert.True(t, d.IsLocalOnly)
	assert.Equal(t, errOffline.Error(), d.Error)

	b, err := json.Marshal(synced("ok").Descriptor())
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"data":"ok"}`, string(b))
}

func TestSessionPersistence(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t, nil)

	_, ok := store.CurrentSession(ctx)
	assert.False(t, ok)

	assert.ErrorIs(t, store.SaveSession(ctx, Session{}), ErrNoSession)
	require.NoError(t, store.SaveSession(ctx, alice))

	got, ok := store.CurrentSession(ctx)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	require.NoError(t, store.ForgetSession(ctx))
	_, ok = store.CurrentSession(ctx)
	assert.False(t, ok)
}
