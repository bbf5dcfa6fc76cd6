package service

import (
	"exam_trainer_backend/internal/model"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]*model.User{}}
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	user.ID = r.nextID
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) FindByID(id uint) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) UpdateLastSeen(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		u.LastSeen = time.Now()
	}
	return nil
}

type progressKey struct {
	user  uint
	mode  model.ProgressMode
	block string
}

type fakeProgressRepo struct {
	mu   sync.Mutex
	recs map[progressKey]model.ProgressRecord
}

func newFakeProgressRepo() *fakeProgressRepo {
	return &fakeProgressRepo{recs: map[progressKey]model.ProgressRecord{}}
}

func (r *fakeProgressRepo) Upsert(rec *model.ProgressRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := progressKey{rec.UserID, rec.Mode, rec.Block}
	if existing, ok := r.recs[k]; ok && existing.SavedAt.After(rec.SavedAt) {
		return false, nil
	}
	r.recs[k] = *rec
	return true, nil
}

func (r *fakeProgressRepo) Find(userID uint, mode model.ProgressMode, block string) (*model.ProgressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.recs[progressKey{userID, mode, block}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &rec, nil
}

func (r *fakeProgressRepo) ListByUser(userID uint, mode model.ProgressMode) ([]model.ProgressRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ProgressRecord
	for k, rec := range r.recs {
		if k.user == userID && k.mode == mode {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Block < out[j].Block })
	return out, nil
}

func (r *fakeProgressRepo) Delete(userID uint, mode model.ProgressMode, block string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.recs {
		if k.user == userID && k.mode == mode && (block == "" || k.block == block) {
			delete(r.recs, k)
		}
	}
	return nil
}

type fakeAttemptRepo struct {
	mu     sync.Mutex
	nextID uint
	recs   []model.ExamAttemptRecord
}

func (r *fakeAttemptRepo) Create(rec *model.ExamAttemptRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.ClientID != nil {
		for _, existing := range r.recs {
			if existing.UserID == rec.UserID && existing.ClientID != nil && *existing.ClientID == *rec.ClientID {
				*rec = existing
				return false, nil
			}
		}
	}
	r.nextID++
	rec.ID = r.nextID
	r.recs = append(r.recs, *rec)
	return true, nil
}

func (r *fakeAttemptRepo) ListByUser(userID uint) ([]model.ExamAttemptRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ExamAttemptRecord
	for _, rec := range r.recs {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (r *fakeAttemptRepo) Delete(userID, attemptID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, rec := range r.recs {
		if rec.UserID == userID && rec.ID == attemptID {
			r.recs = append(r.recs[:i], r.recs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}
