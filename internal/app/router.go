package app

import (
	"exam_trainer_backend/internal/controller"
	"exam_trainer_backend/internal/middleware"
	"exam_trainer_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)

	api := router.Group("/api")
	api.Use(middleware.RequestLogger())
	{
		api.GET("/health", c.health.HealthCheck)
		api.POST("/guest", c.guest.Login)

		// Save bodies carry the user id; the other routes take it from the path.
		api.POST("/trainer-progress", c.trainerProgress.Save)
		api.POST("/simulation-progress", c.simulationProgress.Save)
		api.POST("/exam-attempts", c.examAttempt.Save)

		byUser := api.Group("")
		byUser.Use(middleware.RequireUserID(), middleware.ActivityMiddleware(repos.user))
		a.registerProgressRoutes(byUser, "/trainer-progress", c.trainerProgress)
		a.registerProgressRoutes(byUser, "/simulation-progress", c.simulationProgress)

		byUser.GET("/exam-attempts/:userId", c.examAttempt.List)
		byUser.DELETE("/exam-attempts/:userId/:attemptId", c.examAttempt.Delete)
	}
}

// registerProgressRoutes mounts one progress mode. A request without a block
// lists or deletes every block of the user.
func (a *App) registerProgressRoutes(rg *gin.RouterGroup, path string, pc *controller.ProgressController) {
	rg.GET(path+"/:userId", pc.Get)
	rg.GET(path+"/:userId/:block", pc.Get)
	rg.DELETE(path+"/:userId", pc.Delete)
	rg.DELETE(path+"/:userId/:block", pc.Delete)
}
