package services

import (
	"context"
	"errors"
	"io"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/Dosada05/prompt-battle/storage"
	"github.com/google/uuid"
)

type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, file io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	log      *logger.Logger
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader, log *logger.Logger) UserService {
	if uploader == nil {
		uploader = storage.NewDisabledUploader()
	}
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
		log:      log.With("service", "UserService"),
	}
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "users.GetByID"
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, notFoundError(op, "user not found", err)
		}
		return nil, persistenceError(op, err)
	}
	populateUserAvatar(user, s.uploader)
	return user, nil
}

func (s *userService) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	const op = "users.Search"
	users, err := s.userRepo.SearchByUsername(ctx, query, limit)
	if err != nil {
		return nil, persistenceError(op, err)
	}
	for i := range users {
		populateUserAvatar(&users[i], s.uploader)
		users[i] = users[i].PublicView()
	}
	return users, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID uuid.UUID, contentType string, file io.Reader) (*models.User, error) {
	const op = "users.UploadAvatar"

	ext, err := storage.ExtensionFromContentType(contentType)
	if err != nil {
		return nil, validationError(op, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, notFoundError(op, "user not found", err)
		}
		return nil, persistenceError(op, err)
	}

	key := storage.AvatarKey(userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, file); err != nil {
		if errors.Is(err, storage.ErrStorageDisabled) {
			return nil, validationError(op, "avatar upload is not available")
		}
		return nil, newError(KindUpstream, op, "avatar storage request failed", err)
	}

	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		// Не оставляем сиротский объект в бакете.
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.log.Warn("failed to delete orphaned avatar", "key", key, "error", delErr)
		}
		return nil, persistenceError(op, err)
	}

	if old := derefString(user.AvatarKey); old != "" && old != key {
		if err := s.uploader.Delete(ctx, old); err != nil {
			s.log.Warn("failed to delete previous avatar", "key", old, "error", err)
		}
	}

	user.AvatarKey = &key
	populateUserAvatar(user, s.uploader)
	return user, nil
}
