package middleware

import (
	"exam_trainer_backend/internal/util"
	"exam_trainer_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserActivityRepo interface {
	UpdateLastSeen(userID uint) error
}

// ActivityMiddleware bumps last_seen for the user named in the :userId path
// parameter. The update runs in the background and never blocks the request.
func ActivityMiddleware(repo UserActivityRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, ok := util.ParseID(c.Param("userId")); ok {
			go func() {
				if err := repo.UpdateLastSeen(id); err != nil {
					logger.Log.Debug("update last seen failed", zap.Uint("userId", id), zap.Error(err))
				}
			}()
		}
		c.Next()
	}
}

// RequireUserID rejects requests whose :userId path parameter is not a
// positive integer and stores the parsed id under "userID".
func RequireUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := util.ParseID(c.Param("userId"))
		if !ok {
			util.BadRequest(c, util.ErrInvalidUserID.Error())
			c.Abort()
			return
		}
		c.Set("userID", id)
		c.Next()
	}
}

func UserIDFromContext(c *gin.Context) uint {
	v, ok := c.Get("userID")
	if !ok {
		return 0
	}
	id, _ := v.(uint)
	return id
}
