package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"togglehub/internal/dto/req"
	"togglehub/internal/dto/resp"
	"togglehub/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const (
	RedisKeyPrefix = "togglehub:auth:session:"
	Issuer         = "togglehub-auth"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrSessionExpired     = errors.New("session expired")
)

// SignedKey should be loaded from env in production
var SignedKey = []byte("togglehub-super-secret-key-2026")

type AuthService struct {
	users           repository.UserInterface
	redis           *redis.Client
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

type UserClaims struct {
	UserID    uint64 `json:"uid"`
	Email     string `json:"sub"`
	Role      string `json:"role"`
	CompanyID uint64 `json:"company_id"`
	jwt.RegisteredClaims
}

func NewAuthService(users repository.UserInterface, rdb *redis.Client, accessTokenTTL, refreshTokenTTL time.Duration) *AuthService {
	return &AuthService{
		users:           users,
		redis:           rdb,
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// Login authenticates a user and returns a pair of tokens
func (s *AuthService) Login(ctx context.Context, body req.LoginReq) (*resp.TokenResp, error) {
	user, err := s.users.GetByEmail(ctx, body.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(body.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	var companyID uint64
	if user.CompanyID != nil {
		companyID = *user.CompanyID
	}

	tokens, err := s.generateTokens(ctx, user.ID, user.Email, user.Role, companyID)
	if err != nil {
		return nil, err
	}
	tokens.User = resp.UserInfo{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CompanyID: companyID,
	}
	return tokens, nil
}

// Refresh handles token rotation using the Refresh Token
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*resp.TokenResp, error) {
	token, err := jwt.ParseWithClaims(refreshToken, &UserClaims{}, func(t *jwt.Token) (interface{}, error) {
		return SignedKey, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	key := fmt.Sprintf("%s%d", RedisKeyPrefix, claims.UserID)
	storedToken, err := s.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}

	if storedToken != refreshToken {
		return nil, ErrTokenInvalid
	}

	return s.generateTokens(ctx, claims.UserID, claims.Email, claims.Role, claims.CompanyID)
}

func (s *AuthService) Logout(ctx context.Context, userID uint64) error {
	key := fmt.Sprintf("%s%d", RedisKeyPrefix, userID)
	return s.redis.Del(ctx, key).Err()
}

func (s *AuthService) generateTokens(ctx context.Context, userID uint64, email, role string, companyID uint64) (*resp.TokenResp, error) {
	now := time.Now()
	atClaims := UserClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, atClaims).SignedString(SignedKey)
	if err != nil {
		return nil, err
	}

	rtClaims := UserClaims{
		UserID:    userID,
		Email:     email,
		Role:      role,
		CompanyID: companyID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.refreshTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			ID:        uuid.New().String(),
		},
	}
	refreshToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, rtClaims).SignedString(SignedKey)
	if err != nil {
		return nil, err
	}

	// Refresh token allow-list in Redis; logout revokes the session.
	key := fmt.Sprintf("%s%d", RedisKeyPrefix, userID)
	if err := s.redis.Set(ctx, key, refreshToken, s.refreshTokenTTL).Err(); err != nil {
		return nil, err
	}

	return &resp.TokenResp{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenTTL.Seconds()),
	}, nil
}
