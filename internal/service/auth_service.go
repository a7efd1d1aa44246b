package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dom/wedge-builds/internal/config"
	"github.com/dom/wedge-builds/internal/domain"
	"github.com/dom/wedge-builds/internal/repository"
	"github.com/dom/wedge-builds/internal/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrDisplayNameExists   = errors.New("display name already exists")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
)

const refreshTokenTTL = 7 * 24 * time.Hour

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	cfg         *config.Config
	validator   *validation.Validator
	logger      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, cfg *config.Config, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		cfg:         cfg,
		validator:   validation.New(nil),
		logger:      logger.Named("auth"),
	}
}

type RegisterInput struct {
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"required,min=3,max=32"`
}

type LoginInput struct {
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type AuthResult struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

// Claims identifies the caller of an authenticated request.
type Claims struct {
	UserID      uuid.UUID
	DisplayName string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.DisplayName = strings.TrimSpace(input.DisplayName)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByDisplayName(ctx, input.DisplayName)
	if err == nil && existing != nil {
		return nil, ErrDisplayNameExists
	}
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		PasswordHash: string(hashedPassword),
		DisplayName:  input.DisplayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", zap.Stringer("user_id", user.ID))
	return s.generateTokens(ctx, user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.userRepo.GetByDisplayName(ctx, input.DisplayName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(ctx, user)
}

// RefreshTokens exchanges a refresh token for a new token pair. The old
// session is replaced, so each refresh token works once.
func (s *AuthService) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, error) {
	userPart, secret, ok := strings.Cut(refreshToken, ".")
	if !ok {
		return nil, ErrInvalidRefreshToken
	}
	userID, err := uuid.Parse(userPart)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	session, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, err
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrInvalidRefreshToken
	}
	if err := bcrypt.CompareHashAndPassword([]byte(session.RefreshTokenHash), []byte(secret)); err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.generateTokens(ctx, user)
}

func (s *AuthService) generateTokens(ctx context.Context, user *domain.User) (*AuthResult, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return nil, err
	}

	secret := uuid.New().String()
	hashedRefresh, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	// One session per user
	_ = s.sessionRepo.DeleteByUserID(ctx, user.ID)

	session := &domain.UserSession{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: string(hashedRefresh),
		ExpiresAt:        time.Now().Add(refreshTokenTTL),
		CreatedAt:        time.Now(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: user.ID.String() + "." + secret,
	}, nil
}

func (s *AuthService) generateAccessToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID.String(),
		"name": user.DisplayName,
		"exp":  time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks an access token and returns its caller.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	sub, ok := mapClaims["sub"].(string)
	if !ok {
		return nil, errors.New("missing 'sub' claim")
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, err
	}
	name, _ := mapClaims["name"].(string)

	return &Claims{UserID: userID, DisplayName: name}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *AuthService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.sessionRepo.DeleteByUserID(ctx, userID)
}
