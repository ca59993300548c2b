// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/debozouker/zouk-studio/internal/lib/jwt"
	"github.com/debozouker/zouk-studio/internal/lib/password"
	"github.com/debozouker/zouk-studio/internal/models"
)

// ErrInvalidCredentials — неверная пара логин/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его uid.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByUsername возвращает пользователя по имени или ошибку, если не найден.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// AuthService отвечает за регистрацию, авторизацию и выпуск JWT.
type AuthService struct {
	users         UserRepository
	jwtMaker      jwt.Maker
	adminUsername string
}

// NewAuthService создает новый экземпляр AuthService.
//
// adminUsername — имя пользователя-администратора студии из конфига:
// роль определяется один раз при регистрации, дальше ее несет JWT.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, adminUsername string) *AuthService {
	return &AuthService{
		users:         users,
		jwtMaker:      jwtMaker,
		adminUsername: adminUsername,
	}
}

// Register создает нового пользователя с хэшированием пароля.
// Роль admin получает только пользователь с именем администратора из конфига,
// все остальные регистрируются с ролью user.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	role := "user"
	if username == s.adminUsername {
		role = "admin"
	}
	user := models.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		Role:         role,
	}
	return s.users.RegisterUser(ctx, user)
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, username, rawPassword string) (token, role string, err error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UUID)
	if err != nil {
		return "", "", err
	}
	return token, user.Role, nil
}
