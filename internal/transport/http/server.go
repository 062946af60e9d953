package http

import (
	"github.com/gin-gonic/gin"

	appsvc "hr-attendance/internal/app"
	"hr-attendance/internal/bootstrap"
	"hr-attendance/internal/transport/http/handler"
	"hr-attendance/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.CORS(app.Config.App.CORSOrigins))

	services := app.Services
	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(services.Auth, app.Logger)
	userHandler := handler.NewUserHandler(services.Attendance, app.Logger)
	adminHandler := handler.NewAdminHandler(services.Users, services.Attendance, app.Logger)

	router.GET("/", healthHandler.Welcome)
	router.GET("/healthz", healthHandler.Check)

	authGroup := router.Group("/auth")
	authGroup.POST("/signup", authHandler.Signup)
	authGroup.POST("/login", authHandler.Login)

	userGroup := router.Group("/user")
	userGroup.Use(middleware.Authorize(services.Gate, appsvc.RequireUser, app.Logger))
	userGroup.GET("/me", userHandler.Me)
	userGroup.GET("/attendance/last10", userHandler.LastTen)
	userGroup.GET("/attendance/daily", userHandler.DailyTotals)
	userGroup.POST("/attendance/check-in", userHandler.CheckIn)
	userGroup.POST("/attendance/check-out", userHandler.CheckOut)

	adminGroup := router.Group("/admin")
	adminGroup.Use(middleware.Authorize(services.Gate, appsvc.RequireAdmin, app.Logger))
	adminGroup.GET("/users", adminHandler.ListUsers)
	adminGroup.POST("/users", adminHandler.CreateUser)
	adminGroup.PUT("/users/:id", adminHandler.UpdateUser)
	adminGroup.DELETE("/users/:id", adminHandler.DeleteUser)
	adminGroup.GET("/users/:id/attendance", adminHandler.UserAttendance)

	return router
}
