package router

import (
	"github.com/wb-go/wbf/ginext"

	"github.com/aliskhannn/scheduled-notifier/internal/api/handlers/notification"
	"github.com/aliskhannn/scheduled-notifier/internal/middlewares"
)

func New(handler *notification.Handler) *ginext.Engine {
	e := ginext.New()
	e.Use(middlewares.CORSMiddleware())
	e.Use(ginext.Logger())
	e.Use(ginext.Recovery())

	api := e.Group("/api/notify")
	{
		api.POST("/", handler.Create)
		api.GET("/", handler.GetAll)
		api.GET("/:id", handler.Get)
		api.GET("/:id/status", handler.GetStatus)
		api.DELETE("/:id", handler.Cancel)
		api.POST("/:id/send", handler.SendNow)
		api.POST("/:id/reschedule", handler.Reschedule)
		api.POST("/:id/schedule-again", handler.ScheduleAgain)

		api.GET("/targets/:target_id", handler.GetByTarget)
		api.DELETE("/targets/:target_id", handler.CancelByTarget)
	}

	return e
}
