package server

import (
	"encoding/json"
	"time"

	"warbler/internal/cache"
	"warbler/internal/config"
	"warbler/internal/middleware"
	"warbler/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// sessionUserKey holds the authenticated user's id.
	sessionUserKey = "curr_user"
	// sessionFlashKey holds the JSON-encoded flash queue.
	sessionFlashKey = "flashes"

	localUserID      = "userID"
	localCurrentUser = "currentUser"
	localCSRFToken   = "csrf"

	// csrfFormField is the hidden input name that carries the token.
	csrfFormField = "_csrf"
)

// Flash categories, used as alert-{category} CSS classes.
const (
	FlashSuccess = "success"
	FlashDanger  = "danger"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

func sessionTTL(cfg *config.Config) time.Duration {
	ttl := time.Duration(cfg.SessionTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return ttl
}

func newSessionStore(cfg *config.Config, rdb *redis.Client) *session.Store {
	ttl := sessionTTL(cfg)
	name := cfg.SessionCookieName
	if name == "" {
		name = "warbler_session"
	}

	var storage fiber.Storage
	if rdb != nil {
		storage = cache.NewSessionStorage(rdb)
	}

	return session.New(session.Config{
		Expiration:     ttl,
		Storage:        storage,
		KeyLookup:      "cookie:" + name,
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		KeyGenerator:   uuid.NewString,
	})
}

// CSRF rejects unsafe requests whose form token does not match the one held
// in the session. GET requests issue the token and expose it to templates.
func (s *Server) CSRF() fiber.Handler {
	name := s.config.SessionCookieName
	if name == "" {
		name = "warbler_session"
	}
	return csrf.New(csrf.Config{
		KeyLookup:      "form:" + csrfFormField,
		CookieName:     name + "_csrf",
		CookieSecure:   s.config.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     sessionTTL(s.config),
		Session:        s.sessions,
		ContextKey:     localCSRFToken,
		KeyGenerator:   uuid.NewString,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			middleware.AuthFailures.WithLabelValues("csrf").Inc()
			middleware.Logger.WarnContext(c.UserContext(), "csrf check failed",
				"path", c.Path(),
				"error", err,
			)
			return fiber.ErrForbidden
		},
	})
}

func csrfToken(c *fiber.Ctx) string {
	tok, _ := c.Locals(localCSRFToken).(string)
	return tok
}

// Identity resolves the session's user once per request. A session that points
// at a user who no longer exists is treated as anonymous.
func (s *Server) Identity() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := s.sessions.Get(c)
		if err != nil {
			return err
		}
		uid, _ := sess.Get(sessionUserKey).(uint)
		if uid == 0 {
			return c.Next()
		}

		ctx, cancel := requestContext(c)
		user, err := s.userService.GetUser(ctx, uid)
		cancel()
		if err != nil {
			if models.IsCode(err, models.CodeNotFound) {
				return c.Next()
			}
			return err
		}

		c.Locals(localUserID, uid)
		c.Locals(localCurrentUser, user)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), uid))
		return c.Next()
	}
}

// LoginRequired flashes "Access unauthorized." and redirects home for anonymous requests.
func (s *Server) LoginRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if actorID(c) == 0 {
			middleware.AuthFailures.WithLabelValues("login_required").Inc()
			return s.flashRedirect(c, "/", FlashDanger, "Access unauthorized.")
		}
		return c.Next()
	}
}

// actorID returns the authenticated user id, or 0 for anonymous requests.
func actorID(c *fiber.Ctx) uint {
	uid, _ := c.Locals(localUserID).(uint)
	return uid
}

func currentUser(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localCurrentUser).(*models.User)
	return u
}

// login binds the session to userID under a fresh session id.
func (s *Server) login(c *fiber.Ctx, userID uint, flashes ...Flash) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(sessionUserKey, userID)
	if err := pushFlashes(sess, flashes...); err != nil {
		return err
	}
	return sess.Save()
}

// logout drops the session's data and id, keeping only the given flashes.
func (s *Server) logout(c *fiber.Ctx, flashes ...Flash) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Reset(); err != nil {
		return err
	}
	if err := pushFlashes(sess, flashes...); err != nil {
		return err
	}
	return sess.Save()
}

// flashRedirect queues a flash message and redirects to location.
func (s *Server) flashRedirect(c *fiber.Ctx, location, category, message string) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := pushFlashes(sess, Flash{Category: category, Message: message}); err != nil {
		return err
	}
	if err := sess.Save(); err != nil {
		return err
	}
	return c.Redirect(location, fiber.StatusFound)
}

// popFlashes returns and clears the queued flash messages.
func (s *Server) popFlashes(c *fiber.Ctx) ([]Flash, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, err
	}
	flashes := readFlashes(sess)
	if len(flashes) == 0 {
		return nil, nil
	}
	sess.Delete(sessionFlashKey)
	if err := sess.Save(); err != nil {
		return nil, err
	}
	return flashes, nil
}

func readFlashes(sess *session.Session) []Flash {
	raw, _ := sess.Get(sessionFlashKey).(string)
	if raw == "" {
		return nil
	}
	var flashes []Flash
	if err := json.Unmarshal([]byte(raw), &flashes); err != nil {
		return nil
	}
	return flashes
}

func pushFlashes(sess *session.Session, flashes ...Flash) error {
	if len(flashes) == 0 {
		return nil
	}
	queue := append(readFlashes(sess), flashes...)
	b, err := json.Marshal(queue)
	if err != nil {
		return err
	}
	sess.Set(sessionFlashKey, string(b))
	return nil
}
