package repository

import (
	"errors"
	"exam_trainer_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Upsert stores rec unless the stored row for the same (user, mode, block)
// carries a later SavedAt. The returned bool reports whether rec was written.
func (r *ProgressRepository) Upsert(rec *model.ProgressRecord) (bool, error) {
	written := false
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing model.ProgressRecord
		err := tx.Where("user_id = ? AND mode = ? AND block = ?", rec.UserID, rec.Mode, rec.Block).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			written = true
			return tx.Create(rec).Error
		}
		if err != nil {
			return err
		}
		if existing.SavedAt.After(rec.SavedAt) {
			return nil
		}
		existing.Answers = rec.Answers
		existing.Cursor = rec.Cursor
		existing.SavedAt = rec.SavedAt
		written = true
		if err := tx.Save(&existing).Error; err != nil {
			return err
		}
		*rec = existing
		return nil
	})
	return written, err
}

func (r *ProgressRepository) Find(userID uint, mode model.ProgressMode, block string) (*model.ProgressRecord, error) {
	var rec model.ProgressRecord
	err := r.DB.Where("user_id = ? AND mode = ? AND block = ?", userID, mode, block).First(&rec).Error
	return &rec, err
}

func (r *ProgressRepository) ListByUser(userID uint, mode model.ProgressMode) ([]model.ProgressRecord, error) {
	var recs []model.ProgressRecord
	err := r.DB.Where("user_id = ? AND mode = ?", userID, mode).
		Order("block ASC").
		Find(&recs).Error
	return recs, err
}

// Delete removes one block, or every block of the mode when block is empty.
func (r *ProgressRepository) Delete(userID uint, mode model.ProgressMode, block string) error {
	q := r.DB.Where("user_id = ? AND mode = ?", userID, mode)
	if block != "" {
		q = q.Where("block = ?", block)
	}
	return q.Delete(&model.ProgressRecord{}).Error
}
