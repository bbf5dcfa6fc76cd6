package controller

import (
	"exam_trainer_backend/internal/model"
	"exam_trainer_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type guestCreator interface {
	CreateGuest() (*model.User, error)
}

type GuestController struct {
	UserService guestCreator
}

func NewGuestController(userService guestCreator) *GuestController {
	return &GuestController{UserService: userService}
}

// Login creates a guest user.
func (c *GuestController) Login(ctx *gin.Context) {
	user, err := c.UserService.CreateGuest()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"user": gin.H{
			"id":   user.IDString(),
			"name": user.Name,
			"kind": user.Kind,
		},
	})
}
