package server

import (
	"context"
	"fmt"
	"strings"

	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ProfileForm mirrors the edit-profile page fields.
type ProfileForm struct {
	Username       string `form:"username"`
	Email          string `form:"email"`
	ImageURL       string `form:"image_url"`
	HeaderImageURL string `form:"header_image_url"`
	Bio            string `form:"bio"`
	Location       string `form:"location"`
	Password       string `form:"password"`
}

// Home shows the landing page to anonymous visitors and the timeline otherwise.
func (s *Server) Home(c *fiber.Ctx) error {
	uid := actorID(c)
	if uid == 0 {
		return s.render(c, "pages/home_anon", fiber.Map{"BodyClass": "homepage"})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	entries, err := s.messageService.Timeline(ctx, uid)
	if err != nil {
		return err
	}
	stats, err := s.userService.GetStats(ctx, uid)
	if err != nil {
		return err
	}
	return s.render(c, "pages/home", fiber.Map{
		"Title":       "Home",
		"User":        currentUser(c),
		"Stats":       stats,
		"IsFollowing": false,
		"Entries":     entries,
	})
}

// ListUsers shows the user directory, filtered by ?q=.
func (s *Server) ListUsers(c *fiber.Ctx) error {
	q := strings.TrimSpace(c.Query("q"))

	ctx, cancel := requestContext(c)
	defer cancel()

	users, err := s.userService.ListUsers(ctx, q)
	if err != nil {
		return err
	}
	following, err := s.userService.FollowingSet(ctx, actorID(c))
	if err != nil {
		return err
	}
	return s.render(c, "pages/users_index", fiber.Map{
		"Title":     "Users",
		"Query":     q,
		"Users":     users,
		"Following": following,
	})
}

// ShowUser renders a profile with the user's newest messages.
func (s *Server) ShowUser(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	profile, err := s.userService.GetProfile(ctx, id, s.messageService.Limit())
	if err != nil {
		return err
	}
	entries, err := s.messageService.Decorate(ctx, uid, profile.Messages)
	if err != nil {
		return err
	}
	isFollowing, err := s.userService.IsFollowing(ctx, uid, id)
	if err != nil {
		return err
	}
	return s.render(c, "pages/user_show", fiber.Map{
		"Title":       "@" + profile.User.Username,
		"User":        profile.User,
		"Stats":       profile.Stats,
		"IsFollowing": isFollowing,
		"Entries":     entries,
	})
}

// ShowFollowing lists the users a user follows.
func (s *Server) ShowFollowing(c *fiber.Ctx) error {
	return s.showRelations(c, "Following", s.userService.Following)
}

// ShowFollowers lists a user's followers.
func (s *Server) ShowFollowers(c *fiber.Ctx) error {
	return s.showRelations(c, "Followers", s.userService.Followers)
}

func (s *Server) showRelations(
	c *fiber.Ctx, heading string,
	list func(context.Context, uint, uint) (*models.User, []models.User, error),
) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	user, users, err := list(ctx, uid, id)
	if err != nil {
		return s.redirectOnError(c, err, "/")
	}
	header, err := s.profileHeader(ctx, uid, user)
	if err != nil {
		return err
	}
	following, err := s.userService.FollowingSet(ctx, uid)
	if err != nil {
		return err
	}

	header["Title"] = heading
	header["Heading"] = heading
	header["Users"] = users
	header["Following"] = following
	return s.render(c, "pages/user_relations", header)
}

// ShowLikes lists the messages the actor has liked. Nobody else may see them.
func (s *Server) ShowLikes(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	user, msgs, err := s.userService.LikedMessages(ctx, uid, id, s.messageService.Limit())
	if err != nil {
		return s.redirectOnError(c, err, "/")
	}
	entries, err := s.messageService.Decorate(ctx, uid, msgs)
	if err != nil {
		return err
	}
	header, err := s.profileHeader(ctx, uid, user)
	if err != nil {
		return err
	}

	header["Title"] = "Likes"
	header["Entries"] = entries
	return s.render(c, "pages/user_likes", header)
}

// Follow makes the actor follow :id.
func (s *Server) Follow(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	if err := s.followService.Follow(ctx, uid, id); err != nil {
		return s.redirectOnError(c, err, fmt.Sprintf("/users/%d", id))
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", uid), fiber.StatusFound)
}

// StopFollowing removes the actor's follow of :id.
func (s *Server) StopFollowing(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	if err := s.followService.Unfollow(ctx, uid, id); err != nil {
		return s.redirectOnError(c, err, "/")
	}
	return c.Redirect(fmt.Sprintf("/users/%d/following", uid), fiber.StatusFound)
}

// AddLike toggles the actor's like on message :id.
func (s *Server) AddLike(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	if _, err := s.likeService.ToggleLike(ctx, actorID(c), id); err != nil {
		return s.redirectOnError(c, err, "/")
	}
	return c.Redirect("/", fiber.StatusFound)
}

// EditProfilePage shows the profile form prefilled with the actor's details.
func (s *Server) EditProfilePage(c *fiber.Ctx) error {
	u := currentUser(c)
	return s.render(c, "pages/user_edit", fiber.Map{
		"Title": "Edit profile",
		"Form": ProfileForm{
			Username:       u.Username,
			Email:          u.Email,
			ImageURL:       u.ImageURL,
			HeaderImageURL: u.HeaderImageURL,
			Bio:            u.Bio,
			Location:       u.Location,
		},
	})
}

// UpdateProfile saves the profile form once the current password checks out.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var form ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	uid := actorID(c)
	_, err := s.userService.UpdateProfile(ctx, uid, service.ProfileInput{
		Username:       form.Username,
		Email:          form.Email,
		ImageURL:       form.ImageURL,
		HeaderImageURL: form.HeaderImageURL,
		Bio:            form.Bio,
		Location:       form.Location,
		Password:       form.Password,
	})
	if err != nil {
		return s.redirectOnError(c, err, "/users/profile")
	}
	return s.flashRedirect(c, fmt.Sprintf("/users/%d", uid), FlashSuccess, "Profile updated.")
}

// DeleteUser removes the actor's account and logs them out.
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	if err := s.userService.DeleteAccount(ctx, actorID(c)); err != nil {
		return s.redirectOnError(c, err, "/")
	}
	if err := s.logout(c, Flash{Category: FlashInfo, Message: "Your account has been deleted."}); err != nil {
		return err
	}
	return c.Redirect("/signup", fiber.StatusFound)
}

// profileHeader loads the data behind partials/profile_header for user.
func (s *Server) profileHeader(ctx context.Context, viewerID uint, user *models.User) (fiber.Map, error) {
	stats, err := s.userService.GetStats(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	isFollowing, err := s.userService.IsFollowing(ctx, viewerID, user.ID)
	if err != nil {
		return nil, err
	}
	return fiber.Map{
		"User":        user,
		"Stats":       stats,
		"IsFollowing": isFollowing,
	}, nil
}
