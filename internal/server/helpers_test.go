package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"warbler/internal/config"
	"warbler/internal/models"
	"warbler/internal/testutil"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	testPassword   = "password"
	csrfCookieName = "warbler_session_csrf"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:              "0",
		Env:               "test",
		DBDriver:          "sqlite",
		SessionCookieName: "warbler_session",
		SessionTTLHours:   1,
		BcryptCost:        bcrypt.MinCost,
		TimelineLimit:     100,
	}
}

func newTestServer(t *testing.T) (*Server, *gorm.DB) {
	t.Helper()
	return newTestServerWithRedis(t, nil)
}

func newTestServerWithRedis(t *testing.T, rdb *redis.Client) (*Server, *gorm.DB) {
	t.Helper()
	t.Setenv("APP_ENV", "test")
	db := testutil.NewSQLiteDB(t)
	s, err := NewServerWithDeps(testConfig(), db, rdb)
	require.NoError(t, err)
	return s, db
}

// testClient drives the app through app.Test and carries cookies between
// requests the way a browser would.
type testClient struct {
	t       *testing.T
	s       *Server
	cookies map[string]*http.Cookie
}

func newClient(t *testing.T, s *Server) *testClient {
	return &testClient{t: t, s: s, cookies: make(map[string]*http.Cookie)}
}

// do sends the request. Form posts get the session's CSRF token attached the
// way the rendered forms carry it.
func (c *testClient) do(method, path string, form url.Values) *http.Response {
	c.t.Helper()
	if method == http.MethodPost && form != nil && !form.Has(csrfFormField) {
		withToken := url.Values{csrfFormField: {c.csrfToken()}}
		for k, v := range form {
			withToken[k] = v
		}
		form = withToken
	}
	return c.send(method, path, form, nil)
}

// send issues the request exactly as given.
func (c *testClient) send(method, path string, form url.Values, header http.Header) *http.Response {
	c.t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	for _, ck := range c.cookies {
		req.AddCookie(&http.Cookie{Name: ck.Name, Value: ck.Value})
	}

	resp, err := c.s.App().Test(req, -1)
	require.NoError(c.t, err)

	for _, ck := range resp.Cookies() {
		if ck.Value == "" || ck.MaxAge < 0 {
			delete(c.cookies, ck.Name)
			continue
		}
		c.cookies[ck.Name] = ck
	}
	return resp
}

// csrfToken returns the current token, fetching one through a page that
// leaves queued flashes alone.
func (c *testClient) csrfToken() string {
	c.t.Helper()
	resp := c.send(http.MethodGet, "/favicon.ico", nil, nil)
	_ = resp.Body.Close()
	ck, ok := c.cookies[csrfCookieName]
	require.True(c.t, ok, "csrf cookie issued")
	return ck.Value
}

func (c *testClient) get(path string) *http.Response {
	return c.do(http.MethodGet, path, nil)
}

func (c *testClient) post(path string, form url.Values) *http.Response {
	if form == nil {
		form = url.Values{}
	}
	return c.do(http.MethodPost, path, form)
}

// followRedirect asserts resp is a redirect to location and fetches it.
func (c *testClient) followRedirect(resp *http.Response, location string) *http.Response {
	c.t.Helper()
	require.Equal(c.t, http.StatusFound, resp.StatusCode)
	require.Equal(c.t, location, resp.Header.Get("Location"))
	return c.get(location)
}

func (c *testClient) login(username string) {
	c.t.Helper()
	resp := c.post("/login", url.Values{"username": {username}, "password": {testPassword}})
	require.Equal(c.t, http.StatusFound, resp.StatusCode)
	require.Equal(c.t, "/", resp.Header.Get("Location"))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

// seedUsers creates alice and bob, both with testPassword.
func seedUsers(t *testing.T, db *gorm.DB) (alice, bob *models.User) {
	t.Helper()
	alice = testutil.CreateUser(t, db, "alice", "a@x.com", testPassword)
	bob = testutil.CreateUser(t, db, "bob", "b@x.com", testPassword)
	return alice, bob
}

func countRows(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&n).Error)
	return n
}
