package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vogiaan1904/dealview-tracker/config"
	"github.com/vogiaan1904/dealview-tracker/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

type authService struct {
	conf config.AdminConfig
	l    logger.Logger
}

func NewAuthService(conf config.AdminConfig, l logger.Logger) AuthService {
	return &authService{
		conf: conf,
		l:    l,
	}
}

func (s *authService) Login(ctx context.Context, in LoginInput) (*LoginOutput, error) {
	if s.conf.PasswordHash == "" {
		s.l.Warn(ctx, "service.authService.Login: admin password hash is not configured")
		return nil, ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(in.Username), []byte(s.conf.Username)) != 1 {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(s.conf.PasswordHash), []byte(in.Password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			s.l.Errorf(ctx, "service.authService.Login: %v", err)
		}
		return nil, ErrInvalidCredentials
	}

	expAt := time.Now().Add(s.conf.JWTExpiry)
	claims := jwt.MapClaims{
		"sub":  s.conf.Username,
		"role": RoleAdmin,
		"jti":  uuid.NewString(),
		"exp":  expAt.Unix(),
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString([]byte(s.conf.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &LoginOutput{
		Token:     tokenStr,
		ExpiresAt: expAt,
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, token string) (*AdminClaims, error) {
	claims := jwt.MapClaims{}
	parsedToken, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenUnexpectedSignature
		}
		return []byte(s.conf.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		s.l.Warnf(ctx, "Invalid JWT token: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	if !parsedToken.Valid {
		return nil, ErrTokenInvalid
	}

	role, _ := claims["role"].(string)
	if role != RoleAdmin {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, ErrTokenNotAdmin)
	}

	sub, _ := claims.GetSubject()
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrTokenInvalid
	}

	return &AdminClaims{
		Subject:   sub,
		Role:      role,
		ExpiresAt: exp.Time,
	}, nil
}
