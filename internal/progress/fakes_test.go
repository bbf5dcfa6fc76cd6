package progress

import (
	"context"
	"errors"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/pkg/kvstore"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"
)

var errOffline = errors.New("remote offline")

type progressKey struct {
	mode  model.ProgressMode
	user  string
	block string
}

// fakeRemote behaves like the data service: last-write-wins progress,
// idempotent attempt uploads keyed by the client id, and deletes that
// succeed when nothing matched.
type fakeRemote struct {
	mu       sync.Mutex
	progress map[progressKey]model.Progress
	attempts map[string][]model.ExamAttempt
	byClient map[string]string
	nextID   int

	calls     map[string]int
	total     int
	loseReply bool
	// failOn decides whether the n-th call overall (1-based) fails.
	failOn func(op string, n int) bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		progress: make(map[progressKey]model.Progress),
		attempts: make(map[string][]model.ExamAttempt),
		byClient: make(map[string]string),
		nextID:   100,
		calls:    make(map[string]int),
	}
}

func (f *fakeRemote) offline() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = func(string, int) bool { return true }
}

func (f *fakeRemote) online() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOn = nil
}

func (f *fakeRemote) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

func (f *fakeRemote) call(op string) error {
	f.total++
	f.calls[op]++
	if f.failOn != nil && f.failOn(op, f.total) {
		return errOffline
	}
	return nil
}

func (f *fakeRemote) SaveProgress(_ context.Context, mode model.ProgressMode, userID string, p model.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("save_progress"); err != nil {
		return err
	}
	k := progressKey{mode, userID, p.Block}
	if cur, ok := f.progress[k]; ok && cur.UpdatedAt.After(p.UpdatedAt) {
		return nil
	}
	f.progress[k] = p
	return nil
}

func (f *fakeRemote) GetProgress(_ context.Context, mode model.ProgressMode, userID, block string) (*model.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("get_progress"); err != nil {
		return nil, err
	}
	p, ok := f.progress[progressKey{mode, userID, block}]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeRemote) DeleteProgress(_ context.Context, mode model.ProgressMode, userID, block string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("delete_progress"); err != nil {
		return err
	}
	delete(f.progress, progressKey{mode, userID, block})
	return nil
}

func (f *fakeRemote) SaveExamAttempt(_ context.Context, userID string, a model.ExamAttempt) (*model.ExamAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("save_attempt"); err != nil {
		return nil, err
	}
	if id, ok := f.byClient[userID+"/"+a.ID]; ok {
		stored := a
		stored.ID, stored.ClientID = id, a.ID
		return &stored, nil
	}
	f.nextID++
	stored := a
	stored.ID = strconv.Itoa(f.nextID)
	if model.IsLocalID(a.ID) {
		stored.ClientID = a.ID
		f.byClient[userID+"/"+a.ID] = stored.ID
	}
	f.attempts[userID] = append(f.attempts[userID], stored)
	if f.loseReply {
		f.loseReply = false
		return nil, errOffline
	}
	return &stored, nil
}

func (f *fakeRemote) GetExamAttempts(_ context.Context, userID string) ([]model.ExamAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("get_attempts"); err != nil {
		return nil, err
	}
	out := append([]model.ExamAttempt(nil), f.attempts[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeRemote) DeleteExamAttempt(_ context.Context, userID, attemptID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.call("delete_attempt"); err != nil {
		return err
	}
	list := f.attempts[userID]
	for i, a := range list {
		if a.ID == attemptID {
			f.attempts[userID] = append(list[:i], list[i+1:]...)
			delete(f.byClient, userID+"/"+a.ClientID)
			return nil
		}
	}
	return nil
}

// commitThenFail makes the next attempt upload reach the service but report
// failure to the caller, as when the reply is lost.
func (f *fakeRemote) commitThenFail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loseReply = true
}

// testClock hands out strictly increasing timestamps.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T, remote Remote) (*Store, *kvstore.MemoryStore) {
	t.Helper()
	kv := kvstore.NewMemoryStore()
	return New(kv, remote, WithClock(newTestClock().Now)), kv
}

var (
	guest = GuestSession("", "guest-1")
	alice = RegisteredSession("42", "alice")
)
