package routes

import (
	"github.com/gin-gonic/gin"

	config "github.com/karanja/eventhub-go/config"
	controllers "github.com/karanja/eventhub-go/controllers"
	middleware "github.com/karanja/eventhub-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.POST("/auth/register", controllers.Register(cfg))
	r.POST("/auth/login", controllers.Login(cfg))
	r.POST("/auth/refresh", controllers.RefreshToken(cfg))

	// protected
	auth := middleware.AuthMiddleware(cfg)

	r.GET("/auth/me", auth, controllers.Me(cfg))

	events := r.Group("/events")
	events.Use(auth)
	{
		events.POST("", controllers.CreateEvent(cfg))
		events.GET("", controllers.ListEvents(cfg))
		events.GET("/watch", controllers.WatchEvents(cfg))
		events.GET("/:id", controllers.GetEvent(cfg))
		events.PATCH("/:id", controllers.UpdateEvent(cfg))
		events.DELETE("/:id", controllers.DeleteEvent(cfg))
		events.PUT("/:id/favorite", controllers.ToggleFavorite(cfg))
	}

	favorites := r.Group("/favorites")
	favorites.Use(auth)
	{
		favorites.GET("", controllers.ListFavorites(cfg))
		favorites.GET("/watch", controllers.WatchFavorites(cfg))
		favorites.DELETE("", controllers.ClearFavorites(cfg))
		favorites.DELETE("/:eventId", controllers.RemoveFavorite(cfg))
	}
}
