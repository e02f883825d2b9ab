package token

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/akruglov/shopfront/internal/models"
	"github.com/akruglov/shopfront/internal/repo"
)

const (
	AccessCookie  = "accessToken"
	RefreshCookie = "refreshToken"

	accessTTL  = 15 * time.Minute
	refreshTTL = 7 * 24 * time.Hour
)

var ErrAuthRequired = errors.New("authentication required")

type Service struct {
	Repo          *repo.GormRepo
	JWTSecret     []byte
	RefreshSecret []byte
}

func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return CreateCookie(name, "", path, time.Now().Add(-time.Hour))
}

func (s *Service) SignAccess(userID uint) (string, time.Time, error) {
	exp := time.Now().Add(accessTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.JWTSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (s *Service) SignRefresh(ctx context.Context, userID uint) (string, time.Time, error) {
	exp := time.Now().Add(refreshTTL)
	// The jti keeps tokens issued within the same second distinct; the
	// stored token column is unique.
	claims := jwt.MapClaims{
		"sub": userID,
		"exp": exp.Unix(),
		"typ": "refresh",
		"jti": uuid.NewString(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.RefreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}

	stored := models.RefreshToken{
		Token:     signed,
		UserID:    userID,
		ExpiresAt: exp.Unix(),
	}
	if err := s.Repo.SaveRefreshToken(ctx, &stored); err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func parse(raw string, secret []byte) (jwt.MapClaims, error) {
	t, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !t.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("cannot parse claims")
	}
	return claims, nil
}

func subject(claims jwt.MapClaims) (uint, error) {
	sub, ok := claims["sub"].(float64)
	if !ok {
		return 0, errors.New("invalid subject claim")
	}
	return uint(sub), nil
}

func (s *Service) ParseAccess(raw string) (uint, error) {
	claims, err := parse(raw, s.JWTSecret)
	if err != nil {
		return 0, err
	}
	return subject(claims)
}

func (s *Service) validateRefresh(ctx context.Context, raw string) (uint, error) {
	claims, err := parse(raw, s.RefreshSecret)
	if err != nil {
		return 0, err
	}
	if typ, ok := claims["typ"]; !ok || typ != "refresh" {
		return 0, errors.New("not a refresh token")
	}

	stored, err := s.Repo.GetRefreshToken(ctx, raw)
	if err != nil {
		return 0, err
	}
	if stored.Revoked {
		return 0, errors.New("refresh token revoked")
	}
	if time.Now().Unix() > stored.ExpiresAt {
		return 0, errors.New("refresh token expired")
	}
	return subject(claims)
}

// Rotate exchanges a valid refresh token for a fresh access/refresh pair.
// The old refresh token is revoked so it cannot be replayed.
func (s *Service) Rotate(ctx context.Context, raw string) (userID uint, access, refresh string, aExp, rExp time.Time, err error) {
	userID, err = s.validateRefresh(ctx, raw)
	if err != nil {
		return 0, "", "", time.Time{}, time.Time{}, err
	}

	access, aExp, err = s.SignAccess(userID)
	if err != nil {
		return 0, "", "", time.Time{}, time.Time{}, err
	}
	refresh, rExp, err = s.SignRefresh(ctx, userID)
	if err != nil {
		return 0, "", "", time.Time{}, time.Time{}, err
	}
	if err := s.Repo.RevokeRefreshToken(ctx, raw); err != nil {
		return 0, "", "", time.Time{}, time.Time{}, err
	}
	return userID, access, refresh, aExp, rExp, nil
}

// EstablishSession signs both tokens for the user and sets the session
// cookies on the response.
func (s *Service) EstablishSession(ctx context.Context, setCookie func(*http.Cookie), userID uint) error {
	access, aExp, err := s.SignAccess(userID)
	if err != nil {
		return err
	}
	refresh, rExp, err := s.SignRefresh(ctx, userID)
	if err != nil {
		return err
	}
	setCookie(CreateCookie(AccessCookie, access, "/", aExp))
	setCookie(CreateCookie(RefreshCookie, refresh, "/", rExp))
	return nil
}
