package handlers

import (
	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ProfileHandler struct {
	profileService services.ProfileService
	logger         *logger.Logger
}

func NewProfileHandler(profileService services.ProfileService, logger *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		logger:         logger,
	}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	profile, err := h.profileService.GetProfile(c.Request.Context(), identity)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", profile)
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	identity, ok := currentIdentity(c)
	if !ok {
		return
	}

	var request services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		handleBindError(c, err)
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), identity, &request)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile updated successfully", profile)
}

// UploadImage stores the multipart "file" as the caller's profile picture
func (h *ProfileHandler) UploadImage(c *gin.Context) {
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
	if upload == nil {
		utils.BadRequestResponse(c, "file is required")
		return
	}

	profile, err := h.profileService.UploadProfileImage(c.Request.Context(), identity, upload)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile image uploaded successfully", profile)
}
