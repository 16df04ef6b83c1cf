package services

import (
	"context"
	"errors"
	"strings"

	"carrental/internal/models"
	"carrental/internal/repositories/interfaces"
	"carrental/pkg/logger"
)

type ProfileService interface {
	GetProfile(ctx context.Context, identity string) (*models.Profile, error)
	UpdateProfile(ctx context.Context, identity string, request *UpdateProfileRequest) (*models.Profile, error)
	UploadProfileImage(ctx context.Context, identity string, upload *ImageUpload) (*models.Profile, error)
}

type UpdateProfileRequest struct {
	Username     *string `json:"username,omitempty" validate:"omitempty,min=3,max=50,username"`
	Bio          *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	ProfileImage *string `json:"profile_image,omitempty" validate:"omitempty,max=2048"`
}

type profileService struct {
	userRepo interfaces.UserRepository
	images   ImageService
	logger   *logger.Logger
}

func NewProfileService(userRepo interfaces.UserRepository, images ImageService, logger *logger.Logger) ProfileService {
	return &profileService{
		userRepo: userRepo,
		images:   images,
		logger:   logger,
	}
}

func (s *profileService) GetProfile(ctx context.Context, identity string) (*models.Profile, error) {
	user, err := s.userRepo.GetByEmail(ctx, identity)
	if err != nil {
		return nil, translateRepoError(err, "User not found")
	}
	return user.Profile(), nil
}

func (s *profileService) UpdateProfile(ctx context.Context, identity string, request *UpdateProfileRequest) (*models.Profile, error) {
	if request.Username != nil {
		trimmed := strings.TrimSpace(*request.Username)
		request.Username = &trimmed
	}
	if err := validateRequest(request); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, identity)
	if err != nil {
		return nil, translateRepoError(err, "User not found")
	}

	updates := make(map[string]interface{})
	if request.Username != nil && *request.Username != user.Username {
		if _, err := s.userRepo.GetByUsername(ctx, *request.Username); err == nil {
			return nil, conflict("Username already taken")
		} else if !errors.Is(err, interfaces.ErrNotFound) {
			return nil, err
		}
		updates["username"] = *request.Username
	}
	if request.Bio != nil {
		updates["bio"] = *request.Bio
	}
	if request.ProfileImage != nil {
		updates["profile_image"] = *request.ProfileImage
	}

	if len(updates) == 0 {
		return user.Profile(), nil
	}

	if err := s.userRepo.Update(ctx, user.ID, updates); err != nil {
		if errors.Is(err, interfaces.ErrDuplicate) {
			return nil, conflict("Username already taken")
		}
		return nil, translateRepoError(err, "User not found")
	}

	s.logger.LogUserAction(identity, "update_profile", updates)
	return s.GetProfile(ctx, identity)
}

func (s *profileService) UploadProfileImage(ctx context.Context, identity string, upload *ImageUpload) (*models.Profile, error) {
	user, err := s.userRepo.GetByEmail(ctx, identity)
	if err != nil {
		return nil, translateRepoError(err, "User not found")
	}

	stored, err := s.images.Store(ctx, "profiles", upload)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.Update(ctx, user.ID, map[string]interface{}{"profile_image": stored.URL}); err != nil {
		s.images.Delete(ctx, stored.Key)
		return nil, translateRepoError(err, "User not found")
	}

	s.logger.LogUserAction(identity, "upload_profile_image", map[string]interface{}{"key": stored.Key})
	return s.GetProfile(ctx, identity)
}
