package main

import (
	"github.com/gin-gonic/gin"

	"github.com/assetdesk/asset-backend/internal/handlers"
	"github.com/assetdesk/asset-backend/internal/middleware"
	"github.com/assetdesk/asset-backend/internal/models"
)

type routeHandlers struct {
	auth          *handlers.AuthHandler
	category      *handlers.CategoryHandler
	asset         *handlers.AssetHandler
	user          *handlers.UserHandler
	assignment    *handlers.AssignmentHandler
	returnRequest *handlers.ReturnRequestHandler
	report        *handlers.ReportHandler
}

// registerRoutes mounts the API on v1. authenticate must validate the token
// and resolve the caller.
func registerRoutes(v1 *gin.RouterGroup, h routeHandlers, authenticate ...gin.HandlerFunc) {
	auth := v1.Group("/auth")
	{
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.Refresh)

		// Reachable before the generated password is replaced
		session := auth.Group("")
		session.Use(authenticate...)
		session.POST("/change-password", h.auth.ChangePassword)
		session.POST("/logout", h.auth.Logout)
	}

	protected := v1.Group("")
	protected.Use(authenticate...)
	protected.Use(middleware.RequirePasswordUpdated())
	{
		// Staff see their own assignments, admins anything in their location
		protected.GET("/assignments/me", h.assignment.ListMine)
		protected.GET("/assignments/:id", h.assignment.Get)
		protected.POST("/assignments/:id/accept", h.assignment.Accept)
		protected.POST("/assignments/:id/decline", h.assignment.Decline)
		protected.POST("/return-requests", h.returnRequest.Create)
	}

	admin := protected.Group("")
	admin.Use(middleware.RequireRole(models.UserTypeAdmin))
	{
		admin.GET("/categories", h.category.List)
		admin.POST("/categories", h.category.Create)

		admin.GET("/assets", h.asset.List)
		admin.GET("/assets/:id", h.asset.Get)
		admin.POST("/assets", h.asset.Create)
		admin.PUT("/assets/:id", h.asset.Update)
		admin.DELETE("/assets/:id", h.asset.Delete)

		admin.GET("/users", h.user.List)
		admin.GET("/users/:id", h.user.Get)
		admin.GET("/users/:id/can-disable", h.user.CanDisable)
		admin.POST("/users", h.user.Create)
		admin.PUT("/users/:id", h.user.Update)
		admin.DELETE("/users/:id", h.user.Disable)

		admin.GET("/assignments", h.assignment.List)
		admin.POST("/assignments", h.assignment.Create)
		admin.PUT("/assignments/:id", h.assignment.Update)
		admin.DELETE("/assignments/:id", h.assignment.Delete)

		admin.GET("/return-requests", h.returnRequest.List)
		admin.POST("/return-requests/:id/complete", h.returnRequest.Complete)
		admin.DELETE("/return-requests/:id", h.returnRequest.Cancel)

		admin.GET("/reports", h.report.Summary)
	}
}
