package controller

import (
	"errors"
	"exam_trainer_backend/internal/middleware"
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type progressService interface {
	Save(userID uint, mode model.ProgressMode, req model.SaveProgressRequest) (model.Progress, error)
	Get(userID uint, mode model.ProgressMode, block string) (*model.Progress, error)
	List(userID uint, mode model.ProgressMode) ([]model.Progress, error)
	Delete(userID uint, mode model.ProgressMode, block string) error
}

// ProgressController serves one progress mode; the app mounts one instance
// for the trainer and one for simulations.
type ProgressController struct {
	Service progressService
	Mode    model.ProgressMode
}

func NewProgressController(svc progressService, mode model.ProgressMode) *ProgressController {
	return &ProgressController{Service: svc, Mode: mode}
}

func (c *ProgressController) Save(ctx *gin.Context) {
	var req model.SaveProgressRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	userID, ok := util.ParseID(req.UserID)
	if !ok {
		util.BadRequest(ctx, util.ErrInvalidUserID.Error())
		return
	}

	p, err := c.Service.Save(userID, c.Mode, req)
	if errors.Is(err, util.ErrEmptyBlock) {
		util.BadRequest(ctx, err.Error())
		return
	}
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"progress": p})
}

// Get returns one block, or every block of the mode when none is given.
func (c *ProgressController) Get(ctx *gin.Context) {
	userID := middleware.UserIDFromContext(ctx)
	block := ctx.Param("block")

	if block == "" {
		list, err := c.Service.List(userID, c.Mode)
		if err != nil {
			util.LogInternalError(ctx, err)
			return
		}
		util.Success(ctx, gin.H{"progress": list})
		return
	}

	p, err := c.Service.Get(userID, c.Mode, block)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"progress": p})
}

// Delete removes one block, or every block of the mode when none is given.
// Deleting what is not there succeeds.
func (c *ProgressController) Delete(ctx *gin.Context) {
	userID := middleware.UserIDFromContext(ctx)
	if err := c.Service.Delete(userID, c.Mode, ctx.Param("block")); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}
