package handlers

import (
	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

type CarHandler struct {
	carService services.CarService
	logger     *logger.Logger
}

func NewCarHandler(carService services.CarService, logger *logger.Logger) *CarHandler {
	return &CarHandler{
		carService: carService,
		logger:     logger,
	}
}

// CreateCar lists a car owned by the caller. The body is a multipart form
// with an optional "file" image.
func (h *CarHandler) CreateCar(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.CreateCarRequest
	if err := c.ShouldBind(&request); err != nil {
		handleBindError(c, err)
		return
	}

	upload, closeUpload, err := formImage(c)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file upload")
		return
	}
	defer closeUpload()

	car, err := h.carService.CreateCar(c.Request.Context(), identity, &request, upload)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Car created successfully", car)
}

func (h *CarHandler) GetCar(c *gin.Context) {
	car, err := h.carService.GetCar(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car retrieved successfully", car)
}

func (h *CarHandler) ListCars(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	cars, total, err := h.carService.ListCars(c.Request.Context(), params)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	meta := &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
	}

	utils.SuccessResponseWithMeta(c, "Cars retrieved successfully", cars, meta)
}

func (h *CarHandler) SearchCars(c *gin.Context) {
	var request services.SearchCarsRequest
	if err := c.ShouldBindQuery(&request); err != nil {
		handleBindError(c, err)
		return
	}

	cars, err := h.carService.SearchCars(c.Request.Context(), &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Cars retrieved successfully", cars, &utils.Meta{Count: len(cars)})
}

// ListUserCars lists the cars of ?email=, defaulting to the caller
func (h *CarHandler) ListUserCars(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	owner := c.DefaultQuery("email", identity)
	cars, err := h.carService.ListOwnerCars(c.Request.Context(), owner)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Cars retrieved successfully", cars, &utils.Meta{Count: len(cars)})
}

func (h *CarHandler) UpdateCar(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.UpdateCarRequest
	if err := c.ShouldBind(&request); err != nil {
		handleBindError(c, err)
		return
	}

	upload, closeUpload, err := formImage(c)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file upload")
		return
	}
	defer closeUpload()

	car, err := h.carService.UpdateCar(c.Request.Context(), identity, c.Param("id"), &request, upload)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car updated successfully", car)
}

func (h *CarHandler) UploadImage(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	upload, closeUpload, err := formImage(c)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid file upload")
		return
	}
	defer closeUpload()

	car, err := h.carService.UploadCarImage(c.Request.Context(), identity, c.Param("id"), upload)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car image uploaded successfully", car)
}

func (h *CarHandler) DeleteCar(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	if err := h.carService.DeleteCar(c.Request.Context(), identity, c.Param("id")); err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car deleted successfully", nil)
}
