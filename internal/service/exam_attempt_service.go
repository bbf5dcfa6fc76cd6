package service

import (
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/util"
	"strings"
)

type examAttemptRepository interface {
	Create(rec *model.ExamAttemptRecord) (bool, error)
	ListByUser(userID uint) ([]model.ExamAttemptRecord, error)
	Delete(userID, attemptID uint) (bool, error)
}

type ExamAttemptService struct {
	Repo examAttemptRepository
}

func NewExamAttemptService(repo examAttemptRepository) *ExamAttemptService {
	return &ExamAttemptService{Repo: repo}
}

// Save stores a completed attempt and returns it with its server id. Saving
// the same local attempt twice returns the first stored copy.
func (s *ExamAttemptService) Save(userID uint, attempt model.ExamAttempt) (model.ExamAttempt, error) {
	if strings.TrimSpace(attempt.Block) == "" {
		return model.ExamAttempt{}, util.ErrEmptyBlock
	}
	rec := model.NewExamAttemptRecord(userID, attempt)
	if _, err := s.Repo.Create(rec); err != nil {
		return model.ExamAttempt{}, err
	}
	return rec.ToAttempt(), nil
}

// List returns the user's attempts, most recent first.
func (s *ExamAttemptService) List(userID uint) ([]model.ExamAttempt, error) {
	recs, err := s.Repo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.ExamAttempt, 0, len(recs))
	for i := range recs {
		out = append(out, recs[i].ToAttempt())
	}
	return out, nil
}

// Delete removes an attempt. Deleting an attempt that is already gone
// succeeds, so a client may retry a delete whose reply it never saw.
func (s *ExamAttemptService) Delete(userID uint, attemptID string) error {
	id, ok := util.ParseID(attemptID)
	if !ok {
		return util.ErrInvalidAttemptID
	}
	_, err := s.Repo.Delete(userID, id)
	return err
}
