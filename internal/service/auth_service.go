package service

import (
	"context"
	"errors"
	"strings"

	"warbler/internal/models"
	"warbler/internal/repository"
	"warbler/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

// SignupInput is the signup form.
type SignupInput struct {
	Username string
	Email    string
	Password string
	ImageURL string
}

// AuthResult is the outcome of Authenticate. The zero value means the
// credentials were rejected.
type AuthResult struct {
	User *models.User
}

// InvalidCredentials is returned for an unknown username and for a wrong
// password alike.
var InvalidCredentials = AuthResult{}

// Authenticated reports whether the credentials were accepted.
func (r AuthResult) Authenticated() bool {
	return r.User != nil
}

// AuthService handles signup and credential checks.
type AuthService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	dummyHash  []byte
}

// NewAuthService returns a new AuthService. A cost of 0 selects bcrypt.DefaultCost.
func NewAuthService(userRepo repository.UserRepository, bcryptCost int) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte("warbler-dummy-password"), bcryptCost)
	if err != nil {
		// Only reachable with an out-of-range cost, which config validation rejects.
		panic(err)
	}
	return &AuthService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		dummyHash:  dummy,
	}
}

// HashPassword returns the bcrypt hash of password at the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return string(hash), nil
}

// Signup validates the form, checks availability and stores a new user with a
// hashed password.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateImageURL(in.ImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	existing, err := s.userRepo.GetByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(MsgUsernameTaken, nil)
	}
	existing, err = s.userRepo.GetByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError(MsgUsernameTaken, nil)
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	imageURL := in.ImageURL
	if imageURL == "" {
		imageURL = models.DefaultImageURL
	}
	user := &models.User{
		Username:       in.Username,
		Email:          in.Email,
		Password:       hash,
		ImageURL:       imageURL,
		HeaderImageURL: models.DefaultHeaderImageURL,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return nil, models.NewConflictError(MsgUsernameTaken, errors.Unwrap(err))
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username/password pair. Rejected credentials are
// reported through the result, never as an error; errors mean the store failed.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return InvalidCredentials, err
	}
	if user == nil {
		// Keep the unknown-user path as slow as a real comparison.
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return InvalidCredentials, nil
	}
	if !passwordMatches(user.Password, password) {
		return InvalidCredentials, nil
	}
	return AuthResult{User: user}, nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
