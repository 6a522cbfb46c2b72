package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/go-storefront/internal/models"
	"github.com/pribylovaa/go-storefront/internal/pkg/log"
	"github.com/pribylovaa/go-storefront/internal/pkg/redact"
	"github.com/pribylovaa/go-storefront/internal/storage"
)

// RegisterInput — данные формы регистрации.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// RegisterUser регистрирует нового пользователя и сразу выпускает пару токенов
// (сервер аутентифицирует при регистрации). Ошибки формы возвращаются
// как *ValidationError с разбивкой по полям.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.RegisterUser"

	verr := &ValidationError{}

	normEmail, err := validateEmail(in.Email)
	if err != nil {
		verr.add("email", "invalid email format")
	}

	if err := validatePassword(in.Password); err != nil {
		switch {
		case errors.Is(err, errPasswordEmpty):
			verr.add("password", "password is required")
		default:
			verr.add("password", "password must be at least 8 characters and contain upper, lower, digit and special characters")
		}
	}

	if !verr.empty() {
		return nil, nil, fmt.Errorf("%s: %w", op, verr)
	}

	_, err = s.storage.UserByEmail(ctx, normEmail)
	if err == nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	hashedPassword, err := hashPassword(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Email:        normEmail,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	log.From(ctx).Info("user_registered", "email", redact.Email(user.Email))

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// LoginUser выполняет вход по email+пароль.
func (s *Service) LoginUser(ctx context.Context, email, password string) (*models.TokenPair, *models.User, error) {
	const op = "service.auth.LoginUser"

	normEmail, err := validateEmail(email)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if len(password) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	user, err := s.storage.UserByEmail(ctx, normEmail)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	return pair, user, nil
}

// RefreshAccessToken выпускает новый access-токен по refresh-токену.
// Сам refresh-токен НЕ ротируется: клиент продолжает предъявлять тот же
// секрет до logout или истечения срока.
func (s *Service) RefreshAccessToken(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	const op = "service.auth.RefreshAccessToken"

	token, err := s.validateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.storage.UserByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidToken)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    refreshToken,
		AccessExpiresAt: now.Add(s.auth.AccessTokenTTL),
	}, nil
}

// Logout отзывает refresh-токен (denylist). Идемпотентен: повторный
// logout или незнакомый токен не считаются ошибкой.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	const op = "service.auth.Logout"

	hash := hashRefreshToken(refreshToken)

	_, err := s.storage.RevokeRefreshTokenIfActive(ctx, hash)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, err)
	}

	if s.rcache != nil {
		if cerr := s.rcache.MarkRevoked(ctx, hash); cerr != nil {
			// Кэш — ускорение, не источник истины: ошибку только логируем.
			log.From(ctx).Warn("refresh_cache_mark_revoked_failed", "err", cerr.Error())
		}
	}

	return nil
}

// ValidateAccessToken проверяет access-токен и возвращает данные пользователя.
func (s *Service) ValidateAccessToken(ctx context.Context, accessToken string) (uuid.UUID, string, bool, error) {
	const op = "service.auth.ValidateAccessToken"

	uid, email, isAdmin, err := s.validateAccessToken(accessToken)
	if err != nil {
		return uuid.Nil, "", false, fmt.Errorf("%s: %w", op, err)
	}

	return uid, email, isAdmin, nil
}

// hashPassword хэширует пароль с помощью bcrypt.
func hashPassword(password string) (string, error) {
	const op = "service.auth.hashPassword"

	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(bytes), nil
}

// checkPassword сравнивает пароль с хэшем.
func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// hashRefreshToken — sha256(plain) → base64url; в БД и кэше живут только хэши.
func hashRefreshToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// validateEmail проверяет базовый формат email и обрезает пробелы снаружи.
func validateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", errEmailInvalid
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return "", errEmailInvalid
	}

	return strings.ToLower(email), nil
}

var (
	errEmailInvalid  = errors.New("invalid email format")
	errPasswordEmpty = errors.New("password is empty")
	errPasswordWeak  = errors.New("password is too weak")
)

// validatePassword проверяет минимальные требования к паролю.
// Политика по умолчанию: длина >= 8, хотя бы одна строчная, заглавная, цифра и спецсимвол.
func validatePassword(pw string) error {
	if len(pw) == 0 {
		return errPasswordEmpty
	}

	if len([]rune(pw)) < 8 {
		return errPasswordWeak
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range pw {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) {
		return errPasswordWeak
	}

	return nil
}

// issueTokenPair выпускает access-токен и новый refresh-токен для пользователя.
func (s *Service) issueTokenPair(ctx context.Context, user *models.User) (*models.TokenPair, error) {
	const op = "service.auth.issueTokenPair"

	now := time.Now().UTC()

	accessToken, err := s.generateAccessToken(ctx, user, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plain, err := s.generateRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.TokenPair{
		AccessToken:     accessToken,
		RefreshToken:    plain,
		AccessExpiresAt: now.Add(s.auth.AccessTokenTTL),
	}, nil
}
