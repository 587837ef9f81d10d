// Package service contains the business rules behind every page: who may do
// what, and what happens to the store when they do.
package service

import (
	"warbler/internal/models"
)

// User-facing messages. Handlers flash these verbatim.
const (
	MsgAccessUnauthorized = "Access unauthorized."
	MsgInvalidCredentials = "Invalid credentials."
	MsgSelfLike           = "Can not like your own message!"
	MsgUsernameTaken      = "Username already taken"
	MsgProfileTaken       = "Username or Email already taken"
	MsgSelfFollow         = "You can not follow yourself."
)

// Anonymous is the actor id of a request without a logged-in user.
const Anonymous uint = 0

func errAccessUnauthorized() error {
	return models.NewUnauthorizedError(MsgAccessUnauthorized)
}

// RequireActor fails for anonymous actors.
func RequireActor(actorID uint) error {
	if actorID == Anonymous {
		return errAccessUnauthorized()
	}
	return nil
}

// CanDeleteMessage allows only the author.
func CanDeleteMessage(actorID uint, msg *models.Message) error {
	if actorID == Anonymous || msg == nil || !msg.IsAuthoredBy(actorID) {
		return errAccessUnauthorized()
	}
	return nil
}

// CanLikeMessage allows any logged-in user except the author.
func CanLikeMessage(actorID uint, msg *models.Message) error {
	if err := RequireActor(actorID); err != nil {
		return err
	}
	if msg.IsAuthoredBy(actorID) {
		return models.NewForbiddenError(MsgSelfLike)
	}
	return nil
}

// CanViewLikes restricts a user's liked-messages page to that user.
func CanViewLikes(actorID, targetID uint) error {
	if actorID == Anonymous || actorID != targetID {
		return errAccessUnauthorized()
	}
	return nil
}
