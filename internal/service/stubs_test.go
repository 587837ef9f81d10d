package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"warbler/internal/models"
	"warbler/internal/notifications"
)

type userRepoStub struct {
	getByIDFn            func(context.Context, uint) (*models.User, error)
	getWithCredentialsFn func(context.Context, uint) (*models.User, error)
	getByUsernameFn      func(context.Context, string) (*models.User, error)
	getByEmailFn         func(context.Context, string) (*models.User, error)
	createFn             func(context.Context, *models.User) error
	updateFn             func(context.Context, *models.User) error
	deleteFn             func(context.Context, uint) error
	listFn               func(context.Context, int, int) ([]models.User, error)
	searchFn             func(context.Context, string, int, int) ([]models.User, error)
	statsFn              func(context.Context, uint) (*models.UserStats, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetWithCredentials(ctx context.Context, id uint) (*models.User, error) {
	return s.getWithCredentialsFn(ctx, id)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}
func (s *userRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *userRepoStub) Search(ctx context.Context, q string, limit, offset int) ([]models.User, error) {
	return s.searchFn(ctx, q, limit, offset)
}
func (s *userRepoStub) Stats(ctx context.Context, id uint) (*models.UserStats, error) {
	return s.statsFn(ctx, id)
}

// namedUserRepo resolves every id to a user called "user<id>".
func namedUserRepo() *userRepoStub {
	users := noopUserRepo()
	users.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
		return &models.User{ID: id, Username: fmt.Sprintf("user%d", id)}, nil
	}
	return users
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:            func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getWithCredentialsFn: func(_ context.Context, id uint) (*models.User, error) { return &models.User{ID: id}, nil },
		getByUsernameFn:      func(context.Context, string) (*models.User, error) { return nil, nil },
		getByEmailFn:         func(context.Context, string) (*models.User, error) { return nil, nil },
		createFn:             func(context.Context, *models.User) error { return nil },
		updateFn:             func(context.Context, *models.User) error { return nil },
		deleteFn:             func(context.Context, uint) error { return nil },
		listFn:               func(context.Context, int, int) ([]models.User, error) { return nil, nil },
		searchFn:             func(context.Context, string, int, int) ([]models.User, error) { return nil, nil },
		statsFn:              func(context.Context, uint) (*models.UserStats, error) { return &models.UserStats{}, nil },
	}
}

type messageRepoStub struct {
	createFn     func(context.Context, *models.Message) error
	getByIDFn    func(context.Context, uint) (*models.Message, error)
	deleteFn     func(context.Context, uint) error
	listByUserFn func(context.Context, uint, int) ([]models.Message, error)
	timelineFn   func(context.Context, uint, int) ([]models.Message, error)
	likedByFn    func(context.Context, uint, int) ([]models.Message, error)
}

func (s *messageRepoStub) Create(ctx context.Context, msg *models.Message) error {
	return s.createFn(ctx, msg)
}
func (s *messageRepoStub) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	return s.getByIDFn(ctx, id)
}
func (s *messageRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}
func (s *messageRepoStub) ListByUser(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.listByUserFn(ctx, userID, limit)
}
func (s *messageRepoStub) Timeline(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.timelineFn(ctx, userID, limit)
}
func (s *messageRepoStub) LikedBy(ctx context.Context, userID uint, limit int) ([]models.Message, error) {
	return s.likedByFn(ctx, userID, limit)
}

func noopMessageRepo() *messageRepoStub {
	return &messageRepoStub{
		createFn:     func(context.Context, *models.Message) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Message, error) { return &models.Message{ID: id}, nil },
		deleteFn:     func(context.Context, uint) error { return nil },
		listByUserFn: func(context.Context, uint, int) ([]models.Message, error) { return nil, nil },
		timelineFn:   func(context.Context, uint, int) ([]models.Message, error) { return nil, nil },
		likedByFn:    func(context.Context, uint, int) ([]models.Message, error) { return nil, nil },
	}
}

type likeRepoStub struct {
	toggleFn          func(context.Context, uint, uint) (bool, error)
	isLikedFn         func(context.Context, uint, uint) (bool, error)
	countForMessageFn func(context.Context, uint) (int64, error)
	likedMessageIDsFn func(context.Context, uint, []uint) ([]uint, error)
}

func (s *likeRepoStub) Toggle(ctx context.Context, userID, messageID uint) (bool, error) {
	return s.toggleFn(ctx, userID, messageID)
}
func (s *likeRepoStub) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	return s.isLikedFn(ctx, userID, messageID)
}
func (s *likeRepoStub) CountForMessage(ctx context.Context, messageID uint) (int64, error) {
	return s.countForMessageFn(ctx, messageID)
}
func (s *likeRepoStub) LikedMessageIDs(ctx context.Context, userID uint, ids []uint) ([]uint, error) {
	return s.likedMessageIDsFn(ctx, userID, ids)
}

func noopLikeRepo() *likeRepoStub {
	return &likeRepoStub{
		toggleFn:          func(context.Context, uint, uint) (bool, error) { return true, nil },
		isLikedFn:         func(context.Context, uint, uint) (bool, error) { return false, nil },
		countForMessageFn: func(context.Context, uint) (int64, error) { return 0, nil },
		likedMessageIDsFn: func(context.Context, uint, []uint) ([]uint, error) { return nil, nil },
	}
}

type followRepoStub struct {
	followFn       func(context.Context, uint, uint) error
	unfollowFn     func(context.Context, uint, uint) error
	isFollowingFn  func(context.Context, uint, uint) (bool, error)
	followingFn    func(context.Context, uint) ([]models.User, error)
	followersFn    func(context.Context, uint) ([]models.User, error)
	followingIDsFn func(context.Context, uint) ([]uint, error)
}

func (s *followRepoStub) Follow(ctx context.Context, followerID, followedID uint) error {
	return s.followFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Unfollow(ctx context.Context, followerID, followedID uint) error {
	return s.unfollowFn(ctx, followerID, followedID)
}
func (s *followRepoStub) IsFollowing(ctx context.Context, followerID, followedID uint) (bool, error) {
	return s.isFollowingFn(ctx, followerID, followedID)
}
func (s *followRepoStub) Following(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followingFn(ctx, userID)
}
func (s *followRepoStub) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	return s.followersFn(ctx, userID)
}
func (s *followRepoStub) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.followingIDsFn(ctx, userID)
}

func noopFollowRepo() *followRepoStub {
	return &followRepoStub{
		followFn:       func(context.Context, uint, uint) error { return nil },
		unfollowFn:     func(context.Context, uint, uint) error { return nil },
		isFollowingFn:  func(context.Context, uint, uint) (bool, error) { return false, nil },
		followingFn:    func(context.Context, uint) ([]models.User, error) { return nil, nil },
		followersFn:    func(context.Context, uint) ([]models.User, error) { return nil, nil },
		followingIDsFn: func(context.Context, uint) ([]uint, error) { return nil, nil },
	}
}

type publishedEvent struct {
	userID uint
	event  notifications.Event
}

type publisherStub struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *publisherStub) PublishEvent(_ context.Context, userID uint, event notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{userID: userID, event: event})
	return p.err
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError %s, got %T (%v)", code, err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%s)", code, appErr.Code, appErr.Message)
	}
}

func assertAppErrorMessage(t *testing.T, err error, code, message string) {
	t.Helper()
	assertAppErrorCode(t, err, code)
	var appErr *models.AppError
	_ = errors.As(err, &appErr)
	if appErr.Message != message {
		t.Fatalf("expected message %q, got %q", message, appErr.Message)
	}
}
