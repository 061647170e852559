package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"vidquiz/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	blacklistKeyPrefix = "token:blacklist:"
)

type Claims struct {
	UserID    uint   `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type AuthService struct {
	db         *gorm.DB
	redis      *redis.Client
	jwtSecret  string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewAuthService(db *gorm.DB, redisClient *redis.Client, jwtSecret string, accessTTL, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		db:         db,
		redis:      redisClient,
		jwtSecret:  jwtSecret,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

func (s *AuthService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

type RegisterRequest struct {
	Username          string `json:"username" binding:"required"`
	Email             string `json:"email" binding:"required,email"`
	Password          string `json:"password" binding:"required,min=8"`
	ConfirmedPassword string `json:"confirmed_password" binding:"required"`
}

// Register creates a user with a bcrypt-hashed password. The plaintext is
// never stored.
func (s *AuthService) Register(req *RegisterRequest) (*models.User, error) {
	if req.Password != req.ConfirmedPassword {
		return nil, &ValidationError{Message: "passwords do not match"}
	}

	var count int64
	if err := s.db.Model(&models.User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, &ValidationError{Message: "username or email already taken"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hash),
	}

	if err := s.db.Create(&user).Error; err != nil {
		// The uniqueness pre-check races with concurrent registrations; the
		// database constraint is the real guard.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, &ValidationError{Message: "username or email already taken"}
		}
		return nil, err
	}

	return &user, nil
}

// Login verifies credentials and issues an access/refresh token pair. Any
// mismatch yields the same ErrInvalidCredentials.
func (s *AuthService) Login(username, password string) (*models.User, string, string, error) {
	var user models.User
	if err := s.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, err := s.generateToken(user.ID, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, "", "", err
	}

	refreshToken, err := s.generateToken(user.ID, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, "", "", err
	}

	return &user, accessToken, refreshToken, nil
}

// Refresh validates a refresh token and issues a new access token. The token
// must parse, carry the refresh type and not be blacklisted.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.parseToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", ErrInvalidToken
	}

	blacklisted, err := s.redis.Exists(ctx, blacklistKeyPrefix+refreshToken).Result()
	if err != nil {
		return "", fmt.Errorf("failed to check token blacklist: %w", err)
	}
	if blacklisted > 0 {
		return "", ErrInvalidToken
	}

	return s.generateToken(claims.UserID, TokenTypeAccess, s.accessTTL)
}

// Logout blacklists the presented refresh token for its remaining lifetime.
// Missing or already-invalid tokens are tolerated silently; the caller
// clears the cookies either way.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if refreshToken == "" {
		return
	}

	claims, err := s.parseToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return
	}

	if claims.ExpiresAt == nil {
		return
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return
	}

	if err := s.redis.Set(ctx, blacklistKeyPrefix+refreshToken, "1", ttl).Err(); err != nil {
		log.Printf("Failed to blacklist refresh token: %v", err)
	}
}

func (s *AuthService) GetProfile(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *AuthService) generateToken(userID uint, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

func (s *AuthService) parseToken(tokenString, wantType string) (*Claims, error) {
	return ParseToken(s.jwtSecret, tokenString, wantType)
}

// ParseToken verifies an HS256 token of the given type and returns its
// claims. Shared with the auth middleware.
func ParseToken(jwtSecret, tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != wantType {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
