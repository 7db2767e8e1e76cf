package auth

import "github.com/gin-gonic/gin"

// RegisterRoutes registers Auth routes
func RegisterRoutes(r gin.IRouter, handler *Handler, requireAuth gin.HandlerFunc) {
	authGroup := r.Group("/auth")
	{
		authGroup.GET("/ping", handler.Ping)
		authGroup.POST("/signup", handler.Signup)
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/logout", requireAuth, handler.Logout)
		authGroup.GET("/me", requireAuth, handler.Me)
	}
}
