package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"carrental/internal/services"
	"carrental/internal/utils"
	"carrental/internal/validators"
	"carrental/pkg/logger"

	"github.com/gin-gonic/gin"
)

// identityKey is where the auth middleware stores the caller's email.
const identityKey = "user_id"

func currentIdentity(c *gin.Context) (string, bool) {
	identity := c.GetString(identityKey)
	if identity == "" {
		utils.UnauthorizedResponse(c, "")
		return "", false
	}
	return identity, true
}

// handleServiceError writes the response for an error returned by a service.
// Errors without a known kind are logged and reported as 500.
func handleServiceError(c *gin.Context, log *logger.Logger, err error) {
	var serviceErr *services.ServiceError
	if errors.As(err, &serviceErr) {
		switch {
		case errors.Is(serviceErr, services.ErrNotFound):
			utils.NotFoundResponse(c, serviceErr.Message)
		case errors.Is(serviceErr, services.ErrForbidden):
			utils.ForbiddenResponse(c, serviceErr.Message)
		case errors.Is(serviceErr, services.ErrConflict):
			utils.ConflictResponse(c, serviceErr.Message)
		case errors.Is(serviceErr, services.ErrUnauthorized):
			utils.UnauthorizedResponse(c, serviceErr.Message)
		case errors.Is(serviceErr, services.ErrInvalidInput):
			if len(serviceErr.Details) > 0 {
				utils.ValidationErrorResponse(c, serviceErr.Details)
				return
			}
			utils.BadRequestResponse(c, serviceErr.Message)
		default:
			utils.InternalServerErrorResponse(c)
		}
		return
	}

	log.WithError(err).WithFields(map[string]interface{}{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Request failed")
	utils.InternalServerErrorResponse(c)
}

// handleBindError reports a malformed body or failed binding tags as 400.
func handleBindError(c *gin.Context, err error) {
	var verrs validators.ValidationErrors
	if converted := validators.FromBindingError(err); errors.As(converted, &verrs) {
		utils.ValidationErrorResponse(c, verrs.Details())
		return
	}
	utils.BadRequestResponse(c, "Invalid request body")
}

// formImage returns the optional "file" part of a multipart request. The
// returned closer must be called once the upload has been consumed.
func formImage(c *gin.Context) (*services.ImageUpload, func(), error) {
	header, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, func() {}, nil
		}
		return nil, func() {}, err
	}
	return openUpload(header)
}

func openUpload(header *multipart.FileHeader) (*services.ImageUpload, func(), error) {
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	upload := &services.ImageUpload{
		Filename: header.Filename,
		Reader:   file,
		Size:     header.Size,
	}
	return upload, func() { file.Close() }, nil
}
