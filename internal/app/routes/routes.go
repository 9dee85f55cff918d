package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/emre/registrar/internal/app/controllers"
	"github.com/emre/registrar/internal/app/models/dto"
	"github.com/emre/registrar/internal/middleware"
	"github.com/emre/registrar/internal/pkg/throttle"
)

// SetupRouter configures all application routes. Every request passes
// the origin gate, then the throttle, before reaching a handler.
func SetupRouter(
	router *gin.Engine,
	studentController *controllers.StudentController,
	originGate *middleware.OriginGate,
	throttleStore throttle.Store,
) {
	router.Use(originGate.Handler())
	router.Use(middleware.Throttle(throttleStore))

	// Student record lifecycle
	router.GET("/allstudents", studentController.ListStudents)
	router.POST("/addstudent", studentController.CreateStudent)
	router.PUT("/editstudent/:id", studentController.UpdateStudent)
	router.DELETE("/deletestudent/:id", studentController.DeleteStudent)

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.NewAPIResponse(gin.H{"status": "ok"}))
	})
}
