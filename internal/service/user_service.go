package service

import (
	"context"
	"strings"

	"warbler/internal/models"
	"warbler/internal/repository"
	"warbler/internal/validation"
)

// DirectoryLimit caps the /users listing.
const DirectoryLimit = 100

// ProfileInput is the edit-profile form. Password is the current password and
// must verify before anything is written.
type ProfileInput struct {
	Username       string
	Email          string
	ImageURL       string
	HeaderImageURL string
	Bio            string
	Location       string
	Password       string
}

// Profile bundles what the profile page shows about a user.
type Profile struct {
	User     *models.User
	Stats    *models.UserStats
	Messages []models.Message
}

// UserService provides user business logic.
type UserService struct {
	userRepo    repository.UserRepository
	messageRepo repository.MessageRepository
	followRepo  repository.FollowRepository
}

// NewUserService returns a new UserService.
func NewUserService(
	userRepo repository.UserRepository,
	messageRepo repository.MessageRepository,
	followRepo repository.FollowRepository,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		messageRepo: messageRepo,
		followRepo:  followRepo,
	}
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// ListUsers returns the directory, filtered by a username substring when q is non-empty.
func (s *UserService) ListUsers(ctx context.Context, q string) ([]models.User, error) {
	if strings.TrimSpace(q) == "" {
		return s.userRepo.List(ctx, DirectoryLimit, 0)
	}
	return s.userRepo.Search(ctx, q, DirectoryLimit, 0)
}

// GetProfile loads a user with their counters and newest messages.
func (s *UserService) GetProfile(ctx context.Context, id uint, limit int) (*Profile, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	stats, err := s.userRepo.Stats(ctx, id)
	if err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.ListByUser(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	return &Profile{User: user, Stats: stats, Messages: msgs}, nil
}

// GetStats returns the profile counters for a user.
func (s *UserService) GetStats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.userRepo.Stats(ctx, id)
}

// Following lists who userID follows. Only logged-in actors may look.
func (s *UserService) Following(ctx context.Context, actorID, userID uint) (*models.User, []models.User, error) {
	return s.relationList(ctx, actorID, userID, s.followRepo.Following)
}

// Followers lists who follows userID. Only logged-in actors may look.
func (s *UserService) Followers(ctx context.Context, actorID, userID uint) (*models.User, []models.User, error) {
	return s.relationList(ctx, actorID, userID, s.followRepo.Followers)
}

func (s *UserService) relationList(
	ctx context.Context, actorID, userID uint,
	list func(context.Context, uint) ([]models.User, error),
) (*models.User, []models.User, error) {
	if err := RequireActor(actorID); err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	users, err := list(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, users, nil
}

// LikedMessages lists the messages userID has liked. Users can only see their own.
func (s *UserService) LikedMessages(ctx context.Context, actorID, userID uint, limit int) (*models.User, []models.Message, error) {
	if err := CanViewLikes(actorID, userID); err != nil {
		return nil, nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	msgs, err := s.messageRepo.LikedBy(ctx, userID, limit)
	if err != nil {
		return nil, nil, err
	}
	return user, msgs, nil
}

// IsFollowing reports whether a follows b.
func (s *UserService) IsFollowing(ctx context.Context, a, b uint) (bool, error) {
	if a == Anonymous || b == Anonymous {
		return false, nil
	}
	return s.followRepo.IsFollowing(ctx, a, b)
}

// IsFollowedBy reports whether b follows a.
func (s *UserService) IsFollowedBy(ctx context.Context, a, b uint) (bool, error) {
	return s.IsFollowing(ctx, b, a)
}

// FollowingSet returns the ids actorID follows, for rendering follow buttons.
func (s *UserService) FollowingSet(ctx context.Context, actorID uint) (map[uint]bool, error) {
	set := make(map[uint]bool)
	if actorID == Anonymous {
		return set, nil
	}
	ids, err := s.followRepo.FollowingIDs(ctx, actorID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

// UpdateProfile re-verifies the actor's current password, then writes the new
// profile. Nothing is written when verification fails or the new username or
// email collides with another account.
func (s *UserService) UpdateProfile(ctx context.Context, actorID uint, in ProfileInput) (*models.User, error) {
	if err := RequireActor(actorID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetWithCredentials(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !passwordMatches(user.Password, in.Password) {
		return nil, errAccessUnauthorized()
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	in.HeaderImageURL = strings.TrimSpace(in.HeaderImageURL)
	in.Bio = strings.TrimSpace(in.Bio)
	in.Location = strings.TrimSpace(in.Location)

	if err := validation.ValidateUsername(in.Username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(in.Email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateImageURL(in.ImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateImageURL(in.HeaderImageURL); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateProfileText(in.Bio, in.Location); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if err := s.ensureAvailable(ctx, user.ID, in.Username, in.Email); err != nil {
		return nil, err
	}

	user.Username = in.Username
	user.Email = in.Email
	user.ImageURL = in.ImageURL
	if user.ImageURL == "" {
		user.ImageURL = models.DefaultImageURL
	}
	user.HeaderImageURL = in.HeaderImageURL
	if user.HeaderImageURL == "" {
		user.HeaderImageURL = models.DefaultHeaderImageURL
	}
	user.Bio = in.Bio
	user.Location = in.Location

	if err := s.userRepo.Update(ctx, user); err != nil {
		if models.IsCode(err, models.CodeConflict) {
			return nil, models.NewConflictError(MsgProfileTaken, nil)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, selfID uint, username, email string) error {
	other, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return models.NewConflictError(MsgProfileTaken, nil)
	}
	other, err = s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if other != nil && other.ID != selfID {
		return models.NewConflictError(MsgProfileTaken, nil)
	}
	return nil
}

// DeleteAccount removes the actor and everything attached to them.
func (s *UserService) DeleteAccount(ctx context.Context, actorID uint) error {
	if err := RequireActor(actorID); err != nil {
		return err
	}
	return s.userRepo.Delete(ctx, actorID)
}
