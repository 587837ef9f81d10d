package server

import (
	"fmt"

	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// MessageForm mirrors the new-message page field.
type MessageForm struct {
	Text string `form:"text"`
}

// NewMessagePage shows the compose form.
func (s *Server) NewMessagePage(c *fiber.Ctx) error {
	return s.render(c, "pages/message_new", fiber.Map{"Title": "New message", "Form": MessageForm{}})
}

// CreateMessage posts the form text and returns to the author's profile.
func (s *Server) CreateMessage(c *fiber.Ctx) error {
	var form MessageForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	if _, err := s.messageService.CreateMessage(ctx, uid, form.Text); err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return s.render(c, "pages/message_new", fiber.Map{"Title": "New message", "Form": form},
				Flash{Category: FlashDanger, Message: models.PublicMessage(err)})
		}
		return s.redirectOnError(c, err, "/messages/new")
	}
	return c.Redirect(fmt.Sprintf("/users/%d", uid), fiber.StatusFound)
}

// ShowMessage renders a single message. The author sees a delete button,
// everyone else who is logged in sees the like toggle.
func (s *Server) ShowMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	msg, err := s.messageService.GetMessage(ctx, id)
	if err != nil {
		return err
	}
	count, err := s.likeService.CountLikes(ctx, id)
	if err != nil {
		return err
	}
	uid := actorID(c)
	liked, err := s.messageService.IsLiked(ctx, uid, id)
	if err != nil {
		return err
	}

	return s.render(c, "pages/message_show", fiber.Map{
		"Title":     "Message",
		"Message":   msg,
		"LikeCount": count,
		"Liked":     liked,
		"IsAuthor":  msg.IsAuthoredBy(uid),
	})
}

// DeleteMessage removes a message written by the actor.
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	if err := s.messageService.DeleteMessage(ctx, uid, id); err != nil {
		return s.redirectOnError(c, err, "/")
	}
	return c.Redirect(fmt.Sprintf("/users/%d", uid), fiber.StatusFound)
}
