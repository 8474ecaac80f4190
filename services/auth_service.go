package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Dosada05/prompt-battle/logger"
	"github.com/Dosada05/prompt-battle/models"
	"github.com/Dosada05/prompt-battle/repositories"
	"github.com/Dosada05/prompt-battle/utils"
	"github.com/google/uuid"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 50
)

// TokenIssuer выпускает access-токены; реализуется middleware.TokenManager.
type TokenIssuer interface {
	Issue(userID uuid.UUID, username string) (string, error)
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, input LoginInput) (*models.User, string, error)
}

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authService struct {
	userRepo repositories.UserRepository
	tokens   TokenIssuer
	log      *logger.Logger
}

func NewAuthService(userRepo repositories.UserRepository, tokens TokenIssuer, log *logger.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		log:      log.With("service", "AuthService"),
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	const op = "auth.Register"

	email := utils.NormalizeEmail(input.Email)
	username := strings.TrimSpace(input.Username)
	switch {
	case !utils.IsValidEmail(email):
		return nil, "", validationError(op, "a valid email is required")
	case username == "":
		return nil, "", validationError(op, "username is required")
	case utf8.RuneCountInString(username) > maxUsernameLength:
		return nil, "", validationError(op, "username is too long")
	case utf8.RuneCountInString(input.Password) < minPasswordLength:
		return nil, "", validationError(op, "password must be at least 8 characters")
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, "", persistenceError(op, err)
	}

	user := &models.User{Username: username, Email: email, PasswordHash: hash}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, "", conflictError(op, "email address is already in use", err)
		}
		return nil, "", persistenceError(op, err)
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", persistenceError(op, err)
	}

	s.log.Info("user registered", "user_id", user.ID)
	user.PasswordHash = ""
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.User, string, error) {
	const op = "auth.Login"

	email := utils.NormalizeEmail(input.Email)
	if email == "" || input.Password == "" {
		return nil, "", validationError(op, "email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, "", unauthorizedError(op, "invalid email or password")
		}
		return nil, "", persistenceError(op, err)
	}
	if !utils.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, "", unauthorizedError(op, "invalid email or password")
	}

	token, err := s.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return nil, "", persistenceError(op, err)
	}
	user.PasswordHash = ""
	return user, token, nil
}
