package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/foodgram-backend/database"
	"github.com/rpupo63/foodgram-backend/errs"
	"github.com/rpupo63/foodgram-backend/models"
)

const tokenIssuer = "foodgram"

// Claims carries the user's token version so logout and password changes
// revoke tokens issued before them.
type Claims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

type TokenService struct {
	db     database.Database
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger zerolog.Logger
}

func NewTokenService(db database.Database, secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		db:     db,
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
		logger: log.With().Str("serviceName", "tokenService").Logger(),
	}
}

// Login exchanges email and password for a signed token.
func (s *TokenService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" {
		return "", errs.NewMissingRequiredFieldError("email")
	}
	if password == "" {
		return "", errs.NewMissingRequiredFieldError("password")
	}

	user, err := s.db.UserRepo().FindByEmail(ctx, email)
	if err != nil {
		if isRecordNotFound(err) {
			return "", errs.NewInvalidCredentialsError()
		}
		return "", errs.NewDatabaseError("get", "user", err)
	}
	if !checkPasswordHash(password, user.PasswordHash) {
		return "", errs.NewInvalidCredentialsError()
	}

	return s.Issue(user)
}

// Issue signs a token for user.
func (s *TokenService) Issue(user *models.User) (string, error) {
	now := s.now()
	claims := Claims{
		Version: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errs.NewInternalErrorWithCause("failed to sign token", err)
	}
	return signed, nil
}

// Authenticate validates a token and returns its user.
func (s *TokenService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errs.NewExpiredTokenError()
		}
		s.logger.Debug().Err(err).Msg("token rejected")
		return nil, errs.NewInvalidTokenError()
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, errs.NewInvalidTokenError()
	}

	user, err := s.db.UserRepo().FindByID(ctx, userID)
	if err != nil {
		if isRecordNotFound(err) {
			return nil, errs.NewInvalidTokenError()
		}
		return nil, errs.NewDatabaseError("get", "user", err)
	}
	if user.TokenVersion != claims.Version {
		return nil, errs.NewInvalidTokenError()
	}
	return user, nil
}

// Logout revokes every token the user holds.
func (s *TokenService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.db.UserRepo().BumpTokenVersion(ctx, userID); err != nil {
		return errs.NewDatabaseError("update", "user", err)
	}
	s.logger.Info().Str("userID", userID.String()).Msg("tokens revoked")
	return nil
}
