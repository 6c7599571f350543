package service

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/movila/flashback-backend/internal/models"
	"github.com/movila/flashback-backend/pkg/bcrypt"
	jwtPkg "github.com/movila/flashback-backend/pkg/jwt"
	"github.com/movila/flashback-backend/pkg/utils"
)

const (
	// One-time sign-in codes
	LoginCodeExpiry = 15 * time.Minute
	loginCodeBytes  = 32
)

var ErrInvalidLoginCode = errors.New("invalid or expired sign-in link")

type AuthService struct {
	userRepo  UserRepository
	tokenRepo LoginTokenRepository
	mailer    Mailer
	baseURL   string
}

func NewAuthService(userRepo UserRepository, tokenRepo LoginTokenRepository, mailer Mailer, baseURL string) *AuthService {
	return &AuthService{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		mailer:    mailer,
		baseURL:   baseURL,
	}
}

// RequestMagicLink emails a one-time sign-in link. Unknown addresses return
// success without sending so the endpoint does not leak which emails have
// accounts; accounts only exist once a payment has been provisioned.
func (s *AuthService) RequestMagicLink(email, next string) error {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil
	}

	secret, err := utils.GenerateSecureToken(loginCodeBytes)
	if err != nil {
		return err
	}

	hash, err := bcrypt.HashToken(secret)
	if err != nil {
		return err
	}

	token := &models.LoginToken{
		UserID:    user.ID,
		Email:     user.Email,
		TokenHash: hash,
		ExpiresAt: time.Now().Add(LoginCodeExpiry),
	}
	if err := s.tokenRepo.Create(token); err != nil {
		return err
	}

	// The code carries the row id so the hash can be looked up directly.
	code := fmt.Sprintf("%d.%s", token.ID, secret)
	link := fmt.Sprintf("%s/api/auth/callback?code=%s&next=%s",
		s.baseURL, url.QueryEscape(code), url.QueryEscape(next))

	return s.mailer.SendMagicLinkEmail(user.Email, link)
}

// ExchangeCode trades a one-time code for a session token. The code is
// burned on first use.
func (s *AuthService) ExchangeCode(code string) (*models.AuthResponse, error) {
	id, secret, ok := splitLoginCode(code)
	if !ok {
		return nil, ErrInvalidLoginCode
	}

	token, err := s.tokenRepo.GetByID(id)
	if err != nil {
		return nil, ErrInvalidLoginCode
	}

	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return nil, ErrInvalidLoginCode
	}

	if err := bcrypt.CompareToken(token.TokenHash, secret); err != nil {
		return nil, ErrInvalidLoginCode
	}

	if err := s.tokenRepo.MarkUsed(token.ID); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(token.UserID)
	if err != nil {
		return nil, err
	}

	sessionToken, err := jwtPkg.GenerateToken(user.Email, user.ID)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	return &models.AuthResponse{
		Token: sessionToken,
		User:  *user,
	}, nil
}

func splitLoginCode(code string) (uint, string, bool) {
	rawID, secret, found := strings.Cut(code, ".")
	if !found || secret == "" {
		return 0, "", false
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return 0, "", false
	}
	return uint(id), secret, true
}
