// Package views bundles the HTML templates and static assets into the binary.
package views

import (
	"embed"
	"io/fs"
	"net/http"
	"time"

	"warbler/internal/models"

	"github.com/gofiber/template/html/v2"
)

// DefaultLayout wraps every page rendered without an explicit layout.
const DefaultLayout = "layouts/main"

//go:embed templates static
var files embed.FS

// NewEngine returns the Fiber view engine over the embedded templates.
func NewEngine() *html.Engine {
	engine := html.NewFileSystem(http.FS(mustSub("templates")), ".html")
	engine.AddFunc("date", formatDate)
	engine.AddFunc("datetime", formatDateTime)
	engine.AddFunc("card", NewUserCard)
	return engine
}

// Static returns the embedded /static tree.
func Static() http.FileSystem {
	return http.FS(mustSub("static"))
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// UserCard is the data behind partials/user_card.
type UserCard struct {
	User      models.User
	Viewer    *models.User
	Following bool
	CSRFToken string
}

// NewUserCard builds a card for u as seen by viewer, who follows the ids in following.
func NewUserCard(u models.User, viewer *models.User, following map[uint]bool, csrfToken string) UserCard {
	return UserCard{User: u, Viewer: viewer, Following: following[u.ID], CSRFToken: csrfToken}
}

func formatDate(t time.Time) string {
	return t.Format("02 January 2006")
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
