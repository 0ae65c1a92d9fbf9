package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"perpetua/internal/config"
	"perpetua/internal/domain"
	"perpetua/internal/dto"
	"perpetua/internal/logger"
	"perpetua/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	tokenTypeAccess   = "access"
	tokenTypeRefresh  = "refresh"
	// TokenTypeBearer is echoed to clients next to issued tokens.
	TokenTypeBearer = "Bearer"
)

var (
	ErrInvalidAuthState      = errors.New("invalid oauth state")
	ErrFailedToExchangeToken = errors.New("failed to exchange oauth token")
	ErrFailedToGetUserInfo   = errors.New("failed to get user info from google")
	ErrInvalidJWTToken       = errors.New("invalid jwt token")
	ErrGoogleLoginDisabled   = errors.New("google login is not configured")
)

// AuthService defines the interface for authentication operations.
type AuthService interface {
	Register(ctx context.Context, email, username, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	GoogleLoginEnabled() bool
	GetGoogleLoginURL(state string) string
	HandleGoogleCallback(ctx context.Context, code string, receivedState string, expectedState string) (accessToken string, refreshToken string, user *domain.User, err error)
	ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error)
	CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error)
	RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, newRefreshToken string, err error)
}

type authServiceImpl struct {
	userRepo     domain.UserRepository
	oauth2Config *oauth2.Config
	jwtConfig    config.JWTConfig
	googleOn     bool
	userInfoURL  string
	bcryptCost   int
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo domain.UserRepository, appConfig *config.Config) (AuthService, error) {
	if len(appConfig.JWT.SecretKey) < 32 {
		return nil, errors.New("jwt secret key must be at least 32 bytes long")
	}

	return &authServiceImpl{
		userRepo: userRepo,
		oauth2Config: &oauth2.Config{
			ClientID:     appConfig.GoogleOAuth.ClientID,
			ClientSecret: appConfig.GoogleOAuth.ClientSecret,
			RedirectURL:  appConfig.GoogleOAuth.RedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		jwtConfig:   appConfig.JWT,
		googleOn:    appConfig.GoogleOAuth.Enabled(),
		userInfoURL: googleUserInfoURL,
		bcryptCost:  bcrypt.DefaultCost,
	}, nil
}

func (s *authServiceImpl) Register(ctx context.Context, email, username, password string) (*domain.User, error) {
	appLogger := logger.Get()
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	existing, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up email", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("email is already registered")
	}
	existing, err = s.userRepo.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, domain.NewInternalError("failed to look up username", err)
	}
	if existing != nil {
		return nil, domain.NewConflictError("username is already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, domain.NewInternalError("failed to hash password", err)
	}

	user := domain.NewUser(email, username)
	user.ID = util.NewULID()
	user.HashedPassword = string(hash)
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, domain.NewInternalError("failed to create user", err)
	}

	appLogger.Info("User registered", zap.String("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *authServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	appLogger := logger.Get()
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return "", "", domain.NewInternalError("failed to look up user", err)
	}
	// Accounts created through Google have no password.
	if user == nil || user.HashedPassword == "" {
		return "", "", domain.NewUnauthorizedError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)); err != nil {
		appLogger.Info("Password mismatch on login", zap.String("userID", user.ID))
		return "", "", domain.NewUnauthorizedError("invalid email or password")
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return "", "", err
	}
	appLogger.Info("User logged in", zap.String("userID", user.ID))
	return accessToken, refreshToken, nil
}

func (s *authServiceImpl) GoogleLoginEnabled() bool {
	return s.googleOn
}

func (s *authServiceImpl) GetGoogleLoginURL(state string) string {
	return s.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

func (s *authServiceImpl) HandleGoogleCallback(ctx context.Context, code string, receivedState string, expectedState string) (string, string, *domain.User, error) {
	appLogger := logger.Get()
	if !s.googleOn {
		return "", "", nil, ErrGoogleLoginDisabled
	}
	if receivedState != expectedState {
		return "", "", nil, ErrInvalidAuthState
	}

	googleToken, err := s.oauth2Config.Exchange(ctx, code)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrFailedToExchangeToken, err)
	}

	client := s.oauth2Config.Client(ctx, googleToken)
	resp, err := client.Get(s.userInfoURL)
	if err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ErrFailedToGetUserInfo, err)
	}
	defer resp.Body.Close()

	var userInfo dto.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		return "", "", nil, fmt.Errorf("%w: decode: %v", ErrFailedToGetUserInfo, err)
	}
	if userInfo.ID == "" || userInfo.Email == "" {
		return "", "", nil, fmt.Errorf("%w: incomplete profile", ErrFailedToGetUserInfo)
	}

	email := strings.ToLower(userInfo.Email)
	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return "", "", nil, fmt.Errorf("error fetching user by email: %w", err)
	}

	switch {
	case user == nil:
		username, err := s.availableUsername(ctx, email)
		if err != nil {
			return "", "", nil, err
		}
		user = domain.NewUser(email, username)
		user.ID = util.NewULID()
		user.GoogleID = userInfo.ID
		if err := s.userRepo.CreateUser(ctx, user); err != nil {
			return "", "", nil, fmt.Errorf("failed to create user: %w", err)
		}
		appLogger.Info("New user created via Google OAuth", zap.String("userID", user.ID), zap.String("email", user.Email))
	case user.GoogleID == "":
		if err := s.userRepo.LinkGoogleID(ctx, user.ID, userInfo.ID); err != nil {
			return "", "", nil, fmt.Errorf("failed to link google account: %w", err)
		}
		user.GoogleID = userInfo.ID
		appLogger.Info("Google account linked", zap.String("userID", user.ID))
	default:
		appLogger.Info("User logged in via Google OAuth", zap.String("userID", user.ID))
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return "", "", nil, err
	}
	return accessToken, refreshToken, user, nil
}

// availableUsername derives a username from the email's local part,
// adding a short suffix when the plain form is taken.
func (s *authServiceImpl) availableUsername(ctx context.Context, email string) (string, error) {
	base := email
	if at := strings.IndexByte(email, '@'); at > 0 {
		base = email[:at]
	}
	candidate := base
	for i := 0; i < 3; i++ {
		existing, err := s.userRepo.GetUserByUsername(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("error checking username: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
		id := util.NewULID()
		candidate = base + "_" + strings.ToLower(id[len(id)-6:])
	}
	return "", domain.NewConflictError("could not allocate a unique username")
}

func (s *authServiceImpl) issueTokens(ctx context.Context, user *domain.User) (string, string, error) {
	accessToken, err := s.CreateJWT(ctx, user, s.jwtConfig.AccessTokenTTL, tokenTypeAccess)
	if err != nil {
		return "", "", domain.NewInternalError("failed to create access token", err)
	}
	refreshToken, err := s.CreateJWT(ctx, user, s.jwtConfig.RefreshTokenTTL, tokenTypeRefresh)
	if err != nil {
		return "", "", domain.NewInternalError("failed to create refresh token", err)
	}
	return accessToken, refreshToken, nil
}

func (s *authServiceImpl) CreateJWT(ctx context.Context, user *domain.User, ttl time.Duration, tokenType string) (string, error) {
	now := time.Now()
	claims := dto.AuthClaims{
		UserID:    user.ID,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Subject:   user.ID,
			ID:        util.NewULID(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtConfig.SecretKey))
}

func (s *authServiceImpl) ValidateJWT(ctx context.Context, tokenString string) (*dto.AuthClaims, error) {
	appLogger := logger.Get()
	token, err := jwt.ParseWithClaims(tokenString, &dto.AuthClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtConfig.SecretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			appLogger.Debug("JWT token expired", zap.Error(err))
		} else {
			appLogger.Warn("JWT validation failed", zap.Error(err))
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJWTToken, err)
	}

	if claims, ok := token.Claims.(*dto.AuthClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidJWTToken
}

func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshTokenString string) (string, string, error) {
	appLogger := logger.Get()
	claims, err := s.ValidateJWT(ctx, refreshTokenString)
	if err != nil {
		return "", "", domain.NewError(domain.CodeUnauthorized, "invalid refresh token", err)
	}
	if claims.TokenType != tokenTypeRefresh {
		return "", "", domain.NewUnauthorizedError("not a refresh token")
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return "", "", domain.NewInternalError("failed to look up user", err)
	}
	if user == nil {
		appLogger.Warn("User not found for refresh token", zap.String("userID", claims.UserID))
		return "", "", domain.NewUnauthorizedError("user no longer exists")
	}

	newAccessToken, newRefreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return "", "", err
	}
	appLogger.Info("JWT token refreshed", zap.String("userID", user.ID))
	return newAccessToken, newRefreshToken, nil
}
