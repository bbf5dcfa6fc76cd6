package service

import (
	"errors"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/util"
	"strings"
	"time"

	"gorm.io/gorm"
)

type progressRepository interface {
	Upsert(rec *model.ProgressRecord) (bool, error)
	Find(userID uint, mode model.ProgressMode, block string) (*model.ProgressRecord, error)
	ListByUser(userID uint, mode model.ProgressMode) ([]model.ProgressRecord, error)
	Delete(userID uint, mode model.ProgressMode, block string) error
}

// ProgressService stores trainer and simulation progress. Concurrent writers
// for the same block resolve by last write wins on the client timestamp.
type ProgressService struct {
	Repo progressRepository
	now  func() time.Time
}

func NewProgressService(repo progressRepository) *ProgressService {
	return &ProgressService{Repo: repo, now: time.Now}
}

func (s *ProgressService) Save(userID uint, mode model.ProgressMode, req model.SaveProgressRequest) (model.Progress, error) {
	block := strings.TrimSpace(req.Block)
	if block == "" {
		return model.Progress{}, util.ErrEmptyBlock
	}
	savedAt := req.UpdatedAt
	if savedAt.IsZero() {
		savedAt = s.now()
	}
	answers := req.Answers
	if answers == nil {
		answers = model.AnswerSets{}
	}

	rec := &model.ProgressRecord{
		UserID:  userID,
		Mode:    mode,
		Block:   block,
		Answers: answers,
		Cursor:  req.Cursor,
		SavedAt: savedAt.UTC(),
	}
	if _, err := s.Repo.Upsert(rec); err != nil {
		return model.Progress{}, err
	}
	return rec.ToProgress(), nil
}

// Get returns nil without error when the block has no stored progress.
func (s *ProgressService) Get(userID uint, mode model.ProgressMode, block string) (*model.Progress, error) {
	rec, err := s.Repo.Find(userID, mode, block)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := rec.ToProgress()
	return &p, nil
}

func (s *ProgressService) List(userID uint, mode model.ProgressMode) ([]model.Progress, error) {
	recs, err := s.Repo.ListByUser(userID, mode)
	if err != nil {
		return nil, err
	}
	out := make([]model.Progress, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].ToProgress())
	}
	return out, nil
}

func (s *ProgressService) Delete(userID uint, mode model.ProgressMode, block string) error {
	return s.Repo.Delete(userID, mode, block)
}
