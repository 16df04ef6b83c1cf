package routes

import (
	handlers "carrental/internal/handlers/shared"

	"github.com/gin-gonic/gin"
)

// SetupCarRoutes registers car listing and favorite endpoints. Browsing is
// public; changes require authentication.
func SetupCarRoutes(r *gin.RouterGroup, auth gin.HandlerFunc, carHandler *handlers.CarHandler, favoriteHandler *handlers.FavoriteHandler) {
	cars := r.Group("/cars")
	{
		cars.GET("", carHandler.ListCars)
		cars.GET("/search", carHandler.SearchCars)
		cars.GET("/:id", carHandler.GetCar)
	}

	owned := r.Group("/cars")
	owned.Use(auth)
	{
		owned.POST("", carHandler.CreateCar)
		owned.PUT("/:id", carHandler.UpdateCar)
		owned.DELETE("/:id", carHandler.DeleteCar)
		owned.POST("/:id/upload-image", carHandler.UploadImage)
	}

	r.GET("/user-cars", auth, carHandler.ListUserCars)

	favorites := r.Group("/favorites")
	favorites.Use(auth)
	{
		favorites.GET("", favoriteHandler.ListFavorites)
		favorites.POST("", favoriteHandler.AddFavorite)
		favorites.DELETE("", favoriteHandler.RemoveFavorite)
	}
}
