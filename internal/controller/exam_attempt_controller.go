package controller

import (
	"errors"
	"exam_trainer_backend/internal/middleware"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type examAttemptService interface {
	Save(userID uint, attempt model.ExamAttempt) (model.ExamAttempt, error)
	List(userID uint) ([]model.ExamAttempt, error)
	Delete(userID uint, attemptID string) error
}

type ExamAttemptController struct {
	Service examAttemptService
}

func NewExamAttemptController(svc examAttemptService) *ExamAttemptController {
	return &ExamAttemptController{Service: svc}
}

// Save handles POST /api/exam-attempts. The reply carries the stored attempt
// with its server id.
func (c *ExamAttemptController) Save(ctx *gin.Context) {
	var req model.SaveAttemptRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	userID, ok := util.ParseID(req.UserID)
	if !ok {
		util.BadRequest(ctx, util.ErrInvalidUserID.Error())
		return
	}

	saved, err := c.Service.Save(userID, req.Attempt)
	if errors.Is(err, util.ErrEmptyBlock) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"attempt": saved})
}

func (c *ExamAttemptController) List(ctx *gin.Context) {
	attempts, err := c.Service.List(middleware.UserIDFromContext(ctx))
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"attempts": attempts})
}

// Delete handles DELETE /api/exam-attempts/:userId/:attemptId.
func (c *ExamAttemptController) Delete(ctx *gin.Context) {
	err := c.Service.Delete(middleware.UserIDFromContext(ctx), ctx.Param("attemptId"))
	switch {
	case errors.Is(err, util.ErrInvalidAttemptID):
		util.BadRequest(ctx, err.Error())
	case err != nil:
		util.LogInternalError(ctx, err)
	default:
		util.Success(ctx, nil)
	}
}
