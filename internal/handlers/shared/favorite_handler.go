package handlers

import (
	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	favoriteService services.FavoriteService
	logger          *logger.Logger
}

func NewFavoriteHandler(favoriteService services.FavoriteService, logger *logger.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favoriteService: favoriteService,
		logger:          logger,
	}
}

type removeFavoriteQuery struct {
	CarID string `form:"car_id" binding:"required,object_id"`
}

func (h *FavoriteHandler) ListFavorites(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	cars, err := h.favoriteService.ListFavorites(c.Request.Context(), identity)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Favorites retrieved successfully", cars, &utils.Meta{Count: len(cars)})
}

func (h *FavoriteHandler) AddFavorite(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.AddFavoriteRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	favorite, err := h.favoriteService.AddFavorite(c.Request.Context(), identity, &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Car added to favorites", favorite)
}

func (h *FavoriteHandler) RemoveFavorite(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var query removeFavoriteQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		handleBindError(c, err)
		return
	}

	if err := h.favoriteService.RemoveFavorite(c.Request.Context(), identity, query.CarID); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car removed from favorites", nil)
}
