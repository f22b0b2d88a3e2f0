package service

import (
	"errors"
	"fmt"
	"time"

	"noteshare-server/internal/domain"
	"noteshare-server/internal/repository"
	"noteshare-server/pkg/hash"
	"noteshare-server/pkg/token"

	"github.com/google/uuid"
)

type AuthService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.AuthTokenRepository
	tokenSecret string
}

func NewAuthService(userRepo repository.UserRepository, tokenRepo repository.AuthTokenRepository, tokenSecret string) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		tokenSecret: tokenSecret,
	}
}

func (s *AuthService) Signup(req *domain.SignupRequest) (*domain.User, error) {
	usernameExists, err := s.userRepo.UsernameExists(req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}
	if usernameExists {
		return nil, ErrUsernameTaken
	}

	emailExists, err := s.userRepo.EmailExists(req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}
	if emailExists {
		return nil, ErrEmailTaken
	}

	hashedPassword, err := hash.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		Password:  hashedPassword,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login authenticates the user and returns their bearer token. Issuance is
// idempotent: the token minted on the first login is persisted and every
// later login returns the same string.
func (s *AuthService) Login(req *domain.LoginRequest) (string, error) {
	user, err := s.userRepo.FindByUsername(req.Username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := hash.Compare(user.Password, req.Password); err != nil {
		return "", ErrInvalidCredentials
	}

	existing, err := s.tokenRepo.FindByUserID(user.ID)
	if err == nil {
		return existing.Token, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", fmt.Errorf("failed to look up auth token: %w", err)
	}

	signed, err := token.Generate(user.ID, s.tokenSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	authToken := &domain.AuthToken{
		UserID:    user.ID,
		Token:     signed,
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.Create(authToken); err != nil {
		// A concurrent first login can win the doc-ID race; the stored
		// token is then the canonical one.
		if stored, findErr := s.tokenRepo.FindByUserID(user.ID); findErr == nil {
			return stored.Token, nil
		}
		return "", fmt.Errorf("failed to store auth token: %w", err)
	}

	return signed, nil
}

// ResolveToken maps a bearer token to the user it identifies. The signature
// check rejects garbage before touching the store; the store lookup is the
// authoritative decision.
func (s *AuthService) ResolveToken(tokenString string) (string, error) {
	claims, err := token.Parse(tokenString, s.tokenSecret)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	stored, err := s.tokenRepo.FindByToken(tokenString)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if stored.UserID != claims.UserID {
		return "", ErrInvalidCredentials
	}

	return stored.UserID, nil
}
