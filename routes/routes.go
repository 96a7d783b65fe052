package routes

import (
	"restaurant-api/handlers"
	"restaurant-api/middleware"
	"restaurant-api/policy"
	"restaurant-api/throttle"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authz *policy.Authorizer, limiter *throttle.Limiter, version string) {
	anon := middleware.Throttle(limiter, "")

	// ── Schema ─────────────────────────────────────────────────────
	r.GET("/api/schema", anon, handlers.Schema(r.Routes, version))

	v1 := r.Group("/api/v1")

	// ── Authentication ─────────────────────────────────────────────
	auth := v1.Group("/auth")
	{
		auth.POST("/jwt/create", middleware.Throttle(limiter, "auth_login"), handlers.Login)
		auth.POST("/jwt/refresh", middleware.Throttle(limiter, "auth_refresh"), handlers.RefreshToken)
		auth.POST("/jwt/verify", middleware.Throttle(limiter, "auth_verify"), handlers.VerifyToken)
		auth.POST("/users", anon, handlers.Register)
		auth.GET("/users/me", middleware.AuthRequired(), middleware.Throttle(limiter, "auth_me"), handlers.Me)

		// Demo accounts
		auth.POST("/demo-login/:role", middleware.Throttle(limiter, "demo_create"), handlers.DemoLogin)
		auth.POST("/demo-token/refresh", middleware.Throttle(limiter, "auth_refresh"), handlers.DemoRefreshToken)
		auth.GET("/demo-me", middleware.AuthRequired(), anon, middleware.ActiveDemoRequired(), handlers.DemoMe)
		auth.POST("/demo-logout", middleware.AuthRequired(), middleware.Throttle(limiter, "auth_logout"),
			middleware.ActiveDemoRequired(), handlers.DemoLogout)
	}

	// ── Restaurant ─────────────────────────────────────────────────
	restaurant := v1.Group("/restaurant")
	restaurant.Use(middleware.AuthRequired(), anon, middleware.DemoGuard())
	{
		items := restaurant.Group("/items", middleware.Permit(authz, "menu", middleware.ReadWrite))
		items.GET("", handlers.ListMenuItems)
		items.POST("", handlers.CreateMenuItem)
		items.GET("/:id", handlers.GetMenuItem)
		items.PUT("/:id", handlers.UpdateMenuItem)
		items.PATCH("/:id", handlers.UpdateMenuItem)
		items.DELETE("/:id", handlers.DeleteMenuItem)

		categories := restaurant.Group("/categories", middleware.Permit(authz, "menu", middleware.ReadWrite))
		categories.GET("", handlers.ListCategories)
		categories.POST("", handlers.CreateCategory)
		categories.GET("/:slug", handlers.GetCategory)
		categories.PUT("/:slug", handlers.UpdateCategory)
		categories.PATCH("/:slug", handlers.UpdateCategory)
		categories.DELETE("/:slug", handlers.DeleteCategory)

		cart := restaurant.Group("/cart", middleware.Permit(authz, "cart", middleware.ReadWrite))
		cart.GET("", handlers.GetCart)
		cart.POST("", handlers.AddToCart)
		cart.DELETE("/clear", handlers.ClearCart)
		cart.GET("/:id", handlers.GetCartItem)
		cart.PUT("/:id", handlers.UpdateCartItem)
		cart.PATCH("/:id", handlers.UpdateCartItem)
		cart.DELETE("/:id", handlers.RemoveFromCart)

		orders := restaurant.Group("/orders", middleware.Permit(authz, "orders", middleware.CRUD))
		orders.GET("", handlers.ListOrders)
		orders.POST("", handlers.PlaceOrder)
		orders.GET("/:id", handlers.GetOrder)
		orders.PUT("/:id", handlers.UpdateOrder)
		orders.PATCH("/:id", handlers.UpdateOrder)
		orders.DELETE("/:id", handlers.DeleteOrder)
	}

	// ── Group membership ───────────────────────────────────────────
	groups := v1.Group("/users/groups")
	groups.Use(middleware.AuthRequired(), anon, middleware.DemoGuard())
	{
		managers := groups.Group("/manager", middleware.Permit(authz, "groups.manager", middleware.ReadWrite))
		managers.GET("", handlers.ManagerGroup.List)
		managers.POST("", handlers.ManagerGroup.Add)
		managers.GET("/:id", handlers.ManagerGroup.Retrieve)
		managers.DELETE("/:id", handlers.ManagerGroup.Remove)

		crew := groups.Group("/delivery-crew", middleware.Permit(authz, "groups.delivery_crew", middleware.ReadWrite))
		crew.GET("", handlers.DeliveryCrewGroup.List)
		crew.POST("", handlers.DeliveryCrewGroup.Add)
		crew.GET("/:id", handlers.DeliveryCrewGroup.Retrieve)
		crew.DELETE("/:id", handlers.DeliveryCrewGroup.Remove)

		groups.GET("/customer", middleware.Permit(authz, "groups.customer", middleware.ReadWrite), handlers.ListCustomers)
	}
}
