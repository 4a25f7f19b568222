package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/yizhiakuya/MemeStore/internal/cache"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	bcryptCost        = 12
	blacklistKeyspace = "auth:blacklist:"
)

// Claims is the JWT payload for access tokens. Refresh tokens carry only the
// registered claims with the user ID as subject.
type Claims struct {
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair bundles freshly issued access and refresh tokens.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// AuthConfig holds tunables for the auth service.
type AuthConfig struct {
	Secret            string
	Issuer            string
	AccessTTL         time.Duration
	RefreshTTL        time.Duration
	BlacklistTTL      time.Duration
	MinPasswordLength int
}

// AuthService issues and verifies access/refresh tokens and manages user
// credentials. Logged-out access tokens are blacklisted in the cache until
// they would have expired anyway.
type AuthService struct {
	users  UserStore
	cache  cache.Cache
	logger *logger.Logger
	cfg    AuthConfig
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, c cache.Cache, log *logger.Logger, cfg AuthConfig) *AuthService {
	if cfg.AccessTTL == 0 {
		cfg.AccessTTL = time.Hour
	}
	if cfg.RefreshTTL == 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	if cfg.BlacklistTTL == 0 {
		cfg.BlacklistTTL = time.Hour
	}
	if cfg.MinPasswordLength == 0 {
		cfg.MinPasswordLength = 6
	}
	return &AuthService{users: users, cache: c, logger: log, cfg: cfg}
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Username string
	Password string
	Email    *string
}

// AuthResult is the response to a successful register or login.
type AuthResult struct {
	TokenPair
	User *domain.User `json:"user"`
}

// Register creates a user account and issues a token pair.
func (s *AuthService) Register(ctx context.Context, in *RegisterInput) (*AuthResult, error) {
	if in.Username == "" || in.Password == "" {
		return nil, domain.Validation("username and password are required")
	}
	if len(in.Password) < s.cfg.MinPasswordLength {
		return nil, domain.Validation(fmt.Sprintf("password must be at least %d characters", s.cfg.MinPasswordLength))
	}

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, domain.PersistenceErr("failed to check username", err)
	}
	if taken {
		return nil, domain.ConflictErr("username already exists", nil)
	}
	if in.Email != nil && *in.Email != "" {
		taken, err := s.users.ExistsByEmail(ctx, *in.Email)
		if err != nil {
			return nil, domain.PersistenceErr("failed to check email", err)
		}
		if taken {
			return nil, domain.ConflictErr("email already exists", nil)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:       uuid.New().String(),
		Username: in.Username,
		Password: string(hash),
		Email:    in.Email,
		Role:     domain.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, domain.PersistenceErr("failed to create user", err)
	}

	s.logger.WithField("username", user.Username).Info("User registered")

	return s.issue(user)
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	if username == "" || password == "" {
		return nil, domain.Validation("username and password are required")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Unauthorized("invalid username or password")
		}
		return nil, domain.PersistenceErr("failed to fetch user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, domain.Unauthorized("invalid username or password")
	}

	return s.issue(user)
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, domain.Validation("refresh token is required")
	}

	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, domain.Unauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Unauthorized("user no longer exists")
		}
		return nil, domain.PersistenceErr("failed to fetch user", err)
	}

	access, err := s.sign(user, s.cfg.AccessTTL, true)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access}, nil
}

// Logout blacklists the presented access token for the shorter of its
// remaining lifetime and the configured blacklist TTL.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	ttl := s.cfg.BlacklistTTL
	if claims, err := s.parse(token); err == nil && claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 && remaining < ttl {
			ttl = remaining
		}
	}

	if err := s.cache.Set(ctx, blacklistKeyspace+token, true, ttl); err != nil {
		return domain.StorageErr("failed to blacklist token", err)
	}
	return nil
}

// VerifyAccess validates an access token's signature, expiry, and blacklist
// status, returning its claims.
func (s *AuthService) VerifyAccess(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, domain.Unauthorized("invalid token")
	}

	var revoked bool
	hit, err := s.cache.Get(ctx, blacklistKeyspace+token, &revoked)
	if err != nil {
		// Blacklist lookup failure fails closed for logout semantics but
		// must not take authentication down with the cache; log and allow.
		s.logger.WithError(err).Warn("Token blacklist lookup failed")
	}
	if hit && revoked {
		return nil, domain.Unauthorized("token has been revoked")
	}

	return claims, nil
}

// issue builds the register/login response with both tokens.
func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	access, err := s.sign(user, s.cfg.AccessTTL, true)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(user, s.cfg.RefreshTTL, false)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		TokenPair: TokenPair{AccessToken: access, RefreshToken: refresh},
		User:      user,
	}, nil
}

// sign issues an HS256 token for the user. Identity claims are only carried
// on access tokens.
func (s *AuthService) sign(user *domain.User, ttl time.Duration, withIdentity bool) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	if withIdentity {
		claims.Username = user.Username
		claims.Role = user.Role
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// parse validates signature and expiry and returns the claims.
func (s *AuthService) parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}
