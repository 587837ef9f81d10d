package service

import (
	"context"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/notifications"
	"warbler/internal/repository"
)

// FollowService manages the follows relation.
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
	notifier   notifications.Publisher
}

// NewFollowService returns a new FollowService. notifier may be nil.
func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository, notifier notifications.Publisher) *FollowService {
	return &FollowService{
		followRepo: followRepo,
		userRepo:   userRepo,
		notifier:   notifier,
	}
}

// Follow makes actorID follow targetID. Following twice is a no-op.
func (s *FollowService) Follow(ctx context.Context, actorID, targetID uint) error {
	if err := RequireActor(actorID); err != nil {
		return err
	}
	if actorID == targetID {
		return models.NewValidationError(MsgSelfFollow)
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.followRepo.Follow(ctx, actorID, targetID); err != nil {
		return err
	}
	middleware.RecordEvent("follow")
	publish(ctx, s.notifier, s.userRepo, targetID, notifications.Event{
		Type:    notifications.EventFollowed,
		ActorID: actorID,
	})
	return nil
}

// Unfollow removes the edge if present.
func (s *FollowService) Unfollow(ctx context.Context, actorID, targetID uint) error {
	if err := RequireActor(actorID); err != nil {
		return err
	}
	if err := s.followRepo.Unfollow(ctx, actorID, targetID); err != nil {
		return err
	}
	middleware.RecordEvent("unfollow")
	return nil
}

// LikeService manages the likes relation.
type LikeService struct {
	likeRepo    repository.LikeRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	notifier    notifications.Publisher
}

// NewLikeService returns a new LikeService. notifier may be nil.
func NewLikeService(
	likeRepo repository.LikeRepository,
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	notifier notifications.Publisher,
) *LikeService {
	return &LikeService{
		likeRepo:    likeRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
		notifier:    notifier,
	}
}

// ToggleLike likes the message if actorID has not liked it yet and unlikes it
// otherwise. It reports whether the message is liked afterwards.
func (s *LikeService) ToggleLike(ctx context.Context, actorID, messageID uint) (bool, error) {
	if err := RequireActor(actorID); err != nil {
		return false, err
	}
	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return false, err
	}
	if err := CanLikeMessage(actorID, msg); err != nil {
		return false, err
	}
	liked, err := s.likeRepo.Toggle(ctx, actorID, messageID)
	if err != nil {
		return false, err
	}
	if liked {
		middleware.RecordEvent("like")
		publish(ctx, s.notifier, s.userRepo, msg.UserID, notifications.Event{
			Type:      notifications.EventLiked,
			ActorID:   actorID,
			MessageID: messageID,
		})
	} else {
		middleware.RecordEvent("unlike")
	}
	return liked, nil
}

// CountLikes returns how many users like messageID.
func (s *LikeService) CountLikes(ctx context.Context, messageID uint) (int64, error) {
	return s.likeRepo.CountForMessage(ctx, messageID)
}

// publish is fire-and-forget: delivery failures are logged and never fail the request.
// The event is stamped with the actor's username when it can be looked up.
func publish(ctx context.Context, p notifications.Publisher, users repository.UserRepository, userID uint, ev notifications.Event) {
	if p == nil {
		return
	}
	if ev.ActorUsername == "" && users != nil {
		if actor, err := users.GetByID(ctx, ev.ActorID); err == nil && actor != nil {
			ev.ActorUsername = actor.Username
		}
	}
	if err := p.PublishEvent(ctx, userID, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			"event", ev.Type,
			"recipient_id", userID,
			"error", err,
		)
	}
}
