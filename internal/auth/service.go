package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/permission"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	GetByEmail(email string) (*UserRecord, error)
	GetByID(userID int64) (*UserRecord, error)
	Create(record *UserRecord) error
}

// Resolver maps a role to its permission resolution.
type Resolver interface {
	Resolve(role string) (permission.Resolution, error)
}

// Service resolves principals and issues session tokens.
type Service struct {
	userRepo       UserRepository
	resolver       Resolver
	tokenGenerator TokenGenerator
	logger         *slog.Logger
	bcryptCost     int
}

func NewService(userRepo UserRepository, resolver Resolver, tokenGen TokenGenerator, logger *slog.Logger) *Service {
	return &Service{
		userRepo:       userRepo,
		resolver:       resolver,
		tokenGenerator: tokenGen,
		logger:         logger,
		bcryptCost:     bcrypt.DefaultCost,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate resolves a user by email and returns session tokens.
//
// An unknown email lazily creates an active agent account (demo auth). When the
// stored record carries a password hash, the supplied password must match;
// records without a hash skip password verification entirely.
func (s *Service) Authenticate(dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	email := strings.ToLower(strings.TrimSpace(dto.Email))

	record, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, err
		}
		record, err = s.createFirstLoginUser(email, dto.Name)
		if err != nil {
			return AuthTokens{}, err
		}
	}

	if !record.Active {
		return AuthTokens{}, internal.ErrUserInactive
	}

	if record.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(dto.Password)); err != nil {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
	}

	return s.issueTokens(record)
}

func (s *Service) createFirstLoginUser(email, name string) (*UserRecord, error) {
	if name == "" {
		name = email
		if at := strings.IndexByte(email, '@'); at > 0 {
			name = email[:at]
		}
	}

	now := time.Now()
	record := &UserRecord{
		Email:     email,
		Name:      name,
		Role:      permission.RoleAgent,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.userRepo.Create(record); err != nil {
		s.logger.Error("failed to create first-login user", "email", email, "error", err)
		return nil, err
	}

	s.logger.Info("created user on first login", "user_id", record.ID, "email", email)
	return record, nil
}

func (s *Service) issueTokens(record *UserRecord) (AuthTokens, error) {
	userID := fmt.Sprintf("%d", record.ID)

	accessToken, err := s.tokenGenerator.GenerateAccessToken(userID, record.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := s.tokenGenerator.GenerateRefreshToken(userID, record.Email)
	if err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// RefreshTokens validates refresh token and returns new tokens
func (s *Service) RefreshTokens(refreshToken string) (AuthTokens, error) {
	claims, err := s.tokenGenerator.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	record, err := s.userRepo.GetByID(parseUserID(claims.UserID))
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !record.Active {
		return AuthTokens{}, internal.ErrUserInactive
	}

	return s.issueTokens(record)
}

// ValidateAccessToken validates access token and returns claims
func (s *Service) ValidateAccessToken(tokenString string) (*Claims, error) {
	return s.tokenGenerator.ValidateToken(tokenString)
}

// GetPrincipal loads the user and resolves their role's permissions. Called on
// every authenticated request so that permission edits apply immediately.
func (s *Service) GetPrincipal(userID int64) (*Principal, error) {
	record, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if !record.Active {
		return nil, internal.ErrUserInactive
	}

	resolution, err := s.resolver.Resolve(record.Role)
	if err != nil {
		return nil, err
	}

	return &Principal{
		ID:         record.ID,
		Email:      record.Email,
		Name:       record.Name,
		Role:       record.Role,
		Department: record.Department,
		Active:     record.Active,
		Perms:      resolution,
	}, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func parseUserID(raw string) int64 {
	var id int64
	_, _ = fmt.Sscanf(raw, "%d", &id)
	return id
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(userID string, email string) (string, error) {
	return j.signToken(userID, email, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(userID string, email string) (string, error) {
	return j.signToken(userID, email, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) signToken(userID, email string, ttl time.Duration, secret []byte) (string, error) {
	expiresAt := time.Now().Add(ttl)

	claims := &Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   userID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// Refresh tokens carry a longer expiry than any access token can.
		if claims, ok := token.Claims.(*Claims); ok {
			if time.Until(claims.ExpiresAt.Time) > j.AccessTokenTTL {
				return j.RefreshTokenSecret, nil
			}
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
