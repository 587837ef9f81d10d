package server

import (
	"fmt"

	"warbler/internal/middleware"
	"warbler/internal/models"
	"warbler/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SignupForm mirrors the signup page fields.
type SignupForm struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
	ImageURL string `form:"image_url"`
}

// LoginForm mirrors the login page fields.
type LoginForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// SignupPage shows the signup form, or sends logged-in users home.
func (s *Server) SignupPage(c *fiber.Ctx) error {
	if actorID(c) != 0 {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.render(c, "pages/signup", fiber.Map{"Title": "Sign up", "Form": SignupForm{}})
}

// Signup creates the account and logs it in. Validation and uniqueness
// failures re-render the form with the message.
func (s *Server) Signup(c *fiber.Ctx) error {
	var form SignupForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	user, err := s.authService.Signup(ctx, service.SignupInput{
		Username: form.Username,
		Email:    form.Email,
		Password: form.Password,
		ImageURL: form.ImageURL,
	})
	if err != nil {
		if models.IsCode(err, models.CodeValidation) || models.IsCode(err, models.CodeConflict) {
			form.Password = ""
			c.Status(fiber.StatusOK)
			return s.render(c, "pages/signup", fiber.Map{"Title": "Sign up", "Form": form},
				Flash{Category: FlashDanger, Message: models.PublicMessage(err)})
		}
		return err
	}

	middleware.RecordEvent("signup")
	if err := s.login(c, user.ID); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// LoginPage shows the login form.
func (s *Server) LoginPage(c *fiber.Ctx) error {
	if actorID(c) != 0 {
		return c.Redirect("/", fiber.StatusFound)
	}
	return s.render(c, "pages/login", fiber.Map{"Title": "Log in", "Form": LoginForm{}})
}

// Login checks credentials; a failure re-renders the form with "Invalid credentials.".
func (s *Server) Login(c *fiber.Ctx) error {
	var form LoginForm
	if err := c.BodyParser(&form); err != nil {
		return fiber.ErrBadRequest
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	res, err := s.authService.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		return err
	}
	if !res.Authenticated() {
		middleware.AuthFailures.WithLabelValues("invalid_credentials").Inc()
		return s.render(c, "pages/login", fiber.Map{"Title": "Log in", "Form": LoginForm{Username: form.Username}},
			Flash{Category: FlashDanger, Message: service.MsgInvalidCredentials})
	}

	middleware.RecordEvent("login")
	greeting := Flash{Category: FlashSuccess, Message: fmt.Sprintf("Hello, %s!", res.User.Username)}
	if err := s.login(c, res.User.ID, greeting); err != nil {
		return err
	}
	return c.Redirect("/", fiber.StatusFound)
}

// Logout clears the session and returns to the login page.
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.logout(c, Flash{Category: FlashSuccess, Message: "You have successfully logged out."}); err != nil {
		return err
	}
	return c.Redirect("/login", fiber.StatusFound)
}

// rateLimited sends throttled form posts back to their page with a message.
func (s *Server) rateLimited(formPath string) middleware.LimitReachedHandler {
	return func(c *fiber.Ctx) error {
		return s.flashRedirect(c, formPath, FlashDanger, "Too many attempts. Please try again later.")
	}
}
