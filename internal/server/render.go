package server

import (
	"errors"

	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
)

// render draws page inside the main layout. Queued session flashes are shown
// first, followed by any inline flashes produced by this request.
func (s *Server) render(c *fiber.Ctx, page string, data fiber.Map, inline ...Flash) error {
	flashes, err := s.popFlashes(c)
	if err != nil {
		return err
	}
	flashes = append(flashes, inline...)

	bind := fiber.Map{
		"Title":       "",
		"BodyClass":   "",
		"Query":       "",
		"CurrentUser": currentUser(c),
		"Flashes":     flashes,
		"CSRFToken":   csrfToken(c),
	}
	for k, v := range data {
		bind[k] = v
	}
	return c.Render(page, bind)
}

// redirectOnError turns a service failure into the page flow's response:
// permission failures flash and go home, form errors flash and return to
// formPath. Anything else is left for the ErrorHandler.
func (s *Server) redirectOnError(c *fiber.Ctx, err error, formPath string) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return err
	}
	switch appErr.Code {
	case models.CodeUnauthorized:
		middleware.AuthFailures.WithLabelValues("unauthorized").Inc()
		return s.flashRedirect(c, "/", FlashDanger, appErr.Message)
	case models.CodeForbidden:
		middleware.AuthFailures.WithLabelValues("forbidden").Inc()
		return s.flashRedirect(c, "/", FlashDanger, appErr.Message)
	case models.CodeValidation, models.CodeConflict:
		return s.flashRedirect(c, formPath, FlashDanger, appErr.Message)
	default:
		return err
	}
}

// ErrorHandler renders the error page for anything a handler did not handle itself.
func (s *Server) ErrorHandler(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	message := models.PublicMessage(err)

	switch status {
	case fiber.StatusNotFound:
		message = "Page not found."
	case fiber.StatusMethodNotAllowed:
		message = "Method not allowed."
	case fiber.StatusForbidden:
		if !errors.As(err, new(*models.AppError)) {
			message = "Your form has expired. Please go back and try again."
		}
	}
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
			"path", c.Path(),
			"error", err,
		)
		message = "Something went wrong."
	}

	c.Status(status)
	renderErr := c.Render("pages/error", fiber.Map{
		"Title":       message,
		"BodyClass":   "error",
		"Query":       "",
		"CurrentUser": currentUser(c),
		"Flashes":     []Flash(nil),
		"CSRFToken":   csrfToken(c),
		"Status":      status,
		"Message":     message,
	})
	if renderErr != nil {
		return c.Status(status).SendString(message)
	}
	return nil
}

// parseID reads a positive integer route parameter. Malformed ids are a 404.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, fiber.ErrNotFound
	}
	return uint(id), nil
}
