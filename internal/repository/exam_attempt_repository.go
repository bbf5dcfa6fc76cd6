package repository

import (
	"errors"
	"exam_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type ExamAttemptRepository struct {
	DB *gorm.DB
}

func NewExamAttemptRepository(db *gorm.DB) *ExamAttemptRepository {
	return &ExamAttemptRepository{DB: db}
}

// Create inserts rec. When rec carries a ClientID already stored for the
// user, the stored row is loaded into rec instead and created is false.
func (r *ExamAttemptRepository) Create(rec *model.ExamAttemptRecord) (bool, error) {
	created := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if rec.ClientID != nil {
			var existing model.ExamAttemptRecord
			err := tx.Where("user_id = ? AND client_id = ?", rec.UserID, *rec.ClientID).First(&existing).Error
			if err == nil {
				*rec = existing
				return nil
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		created = true
		return tx.Create(rec).Error
	})
	return created, err
}

func (r *ExamAttemptRepository) ListByUser(userID uint) ([]model.ExamAttemptRecord, error) {
	var recs []model.ExamAttemptRecord
	err := r.DB.Where("user_id = ?", userID).
		Order("date DESC, id DESC").
		Find(&recs).Error
	return recs, err
}

// Delete removes the user's attempt for good, so a later upload of the same
// client id creates a fresh row. It reports whether a row matched.
func (r *ExamAttemptRepository) Delete(userID, attemptID uint) (bool, error) {
	res := r.DB.Unscoped().Where("user_id = ? AND id = ?", userID, attemptID).Delete(&model.ExamAttemptRecord{})
	return res.RowsAffected > 0, res.Error
}
