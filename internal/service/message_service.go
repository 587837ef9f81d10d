package service

import (
	"context"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/repository"
	"warbler/internal/validation"
)

// DefaultTimelineLimit is used when the configured limit is zero.
const DefaultTimelineLimit = 100

// TimelineEntry is a message decorated for a particular viewer.
type TimelineEntry struct {
	models.Message
	Liked bool
}

// MessageService provides message business logic.
type MessageService struct {
	messageRepo repository.MessageRepository
	likeRepo    repository.LikeRepository
	limit       int
}

// NewMessageService returns a new MessageService. limit bounds timelines and
// profile listings.
func NewMessageService(messageRepo repository.MessageRepository, likeRepo repository.LikeRepository, limit int) *MessageService {
	if limit <= 0 {
		limit = DefaultTimelineLimit
	}
	return &MessageService{
		messageRepo: messageRepo,
		likeRepo:    likeRepo,
		limit:       limit,
	}
}

// Limit is the page size used for message listings.
func (s *MessageService) Limit() int {
	return s.limit
}

// CreateMessage posts text as actorID.
func (s *MessageService) CreateMessage(ctx context.Context, actorID uint, text string) (*models.Message, error) {
	if err := RequireActor(actorID); err != nil {
		return nil, err
	}
	text, err := validation.NormalizeMessageText(text)
	if err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	msg := &models.Message{UserID: actorID, Text: text}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}
	middleware.RecordEvent("message_created")
	return msg, nil
}

// GetMessage returns a message with its author.
func (s *MessageService) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	return s.messageRepo.GetByID(ctx, id)
}

// DeleteMessage removes a message. Only its author may do so.
func (s *MessageService) DeleteMessage(ctx context.Context, actorID, id uint) error {
	if err := RequireActor(actorID); err != nil {
		return err
	}
	msg, err := s.messageRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := CanDeleteMessage(actorID, msg); err != nil {
		return err
	}
	if err := s.messageRepo.Delete(ctx, id); err != nil {
		return err
	}
	middleware.RecordEvent("message_deleted")
	return nil
}

// Timeline returns the actor's home feed: their own messages and those of the
// users they follow, newest first.
func (s *MessageService) Timeline(ctx context.Context, actorID uint) ([]TimelineEntry, error) {
	if err := RequireActor(actorID); err != nil {
		return nil, err
	}
	msgs, err := s.messageRepo.Timeline(ctx, actorID, s.limit)
	if err != nil {
		return nil, err
	}
	return s.Decorate(ctx, actorID, msgs)
}

// Decorate marks which of msgs the viewer has liked.
func (s *MessageService) Decorate(ctx context.Context, viewerID uint, msgs []models.Message) ([]TimelineEntry, error) {
	ids := make([]uint, 0, len(msgs))
	for _, m := range msgs {
		ids = append(ids, m.ID)
	}
	liked, err := s.likeRepo.LikedMessageIDs(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	set := make(map[uint]bool, len(liked))
	for _, id := range liked {
		set[id] = true
	}

	entries := make([]TimelineEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, TimelineEntry{Message: m, Liked: set[m.ID]})
	}
	return entries, nil
}

// IsLiked reports whether userID has liked messageID.
func (s *MessageService) IsLiked(ctx context.Context, userID, messageID uint) (bool, error) {
	if userID == Anonymous {
		return false, nil
	}
	return s.likeRepo.IsLiked(ctx, userID, messageID)
}

// IsLikedBy is IsLiked with the arguments in message-first order.
func (s *MessageService) IsLikedBy(ctx context.Context, messageID, userID uint) (bool, error) {
	return s.IsLiked(ctx, userID, messageID)
}
