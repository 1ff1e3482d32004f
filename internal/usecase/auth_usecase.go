package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"

	"github.com/DRSN-tech/inventory-service/internal/domain"
	"github.com/DRSN-tech/inventory-service/pkg/e"
	"github.com/DRSN-tech/inventory-service/pkg/logger"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 72 // предел bcrypt в байтах
)

// AuthUseCase регистрирует и аутентифицирует пользователей.
type AuthUseCase struct {
	userRepo UserRepository
	hasher   PasswordHasher
	tokens   TokenManager
	logger   logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUC(userRepo UserRepository, hasher PasswordHasher, tokens TokenManager, logger logger.Logger) *AuthUseCase {
	return &AuthUseCase{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
	}
}

// Register создает пользователя и выдает токен.
func (a *AuthUseCase) Register(ctx context.Context, req *RegisterReq) (*AuthRes, error) {
	const op = "AuthUseCase.Register"

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	verr := e.NewValidationError()
	if username == "" {
		verr.Add("username", "Username is required")
	}
	if !isEmail(email) {
		verr.Add("email", "Valid email is required")
	}
	switch {
	case len(req.Password) < minPasswordLength:
		verr.Add("password", "Password must be at least 6 characters")
	case len(req.Password) > maxPasswordLength:
		verr.Add("password", "Password must be at most 72 bytes")
	}
	if err := verr.OrNil(); err != nil {
		return nil, e.Wrap(op, err)
	}

	exists, err := a.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	if exists {
		return nil, e.Wrap(op, e.ErrUserAlreadyExists)
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := a.userRepo.Create(ctx, domain.NewUser(username, email, hash))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	a.logger.Infof("user registered: id: %d, username: %s", user.ID, user.Username)
	return NewAuthRes(token, user), nil
}

// Login проверяет учетные данные. Неизвестный email и неверный пароль неотличимы для клиента.
func (a *AuthUseCase) Login(ctx context.Context, req *LoginReq) (*AuthRes, error) {
	const op = "AuthUseCase.Login"

	email := strings.TrimSpace(req.Email)

	verr := e.NewValidationError()
	if !isEmail(email) {
		verr.Add("email", "Valid email is required")
	}
	if req.Password == "" {
		verr.Add("password", "Password is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := a.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, e.ErrUserNotFound) {
			// Сравнение с фиктивным хэшем выравнивает время ответа
			_ = a.hasher.Compare(a.fakeHash(), req.Password)
			return nil, e.Wrap(op, e.ErrInvalidCredentials)
		}
		return nil, e.Wrap(op, err)
	}

	if err := a.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, e.Wrap(op, e.ErrInvalidCredentials)
	}

	token, err := a.tokens.Issue(user)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewAuthRes(token, user), nil
}

// Authenticate проверяет bearer-токен и возвращает его claims.
func (a *AuthUseCase) Authenticate(_ context.Context, token string) (*Claims, error) {
	const op = "AuthUseCase.Authenticate"

	if strings.TrimSpace(token) == "" {
		return nil, e.Wrap(op, e.ErrMissingToken)
	}

	claims, err := a.tokens.Parse(token)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return claims, nil
}

func (a *AuthUseCase) fakeHash() string {
	a.dummyOnce.Do(func() {
		hash, err := a.hasher.Hash("inventory-service-dummy-password")
		if err != nil {
			a.logger.Warnf("failed to prepare dummy password hash: %v", err)
			return
		}
		a.dummyHash = hash
	})

	return a.dummyHash
}

func isEmail(s string) bool {
	if s == "" {
		return false
	}

	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s[strings.LastIndex(s, "@")+1:], ".")
}
