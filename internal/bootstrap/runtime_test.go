package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"warbler/internal/config"
	"warbler/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const fixture = `
users:
  - username: alice
    email: alice@example.com
    password: password
messages:
  - author: alice
    text: hello
`

func TestInitRuntime_LoadsFixtureOnce(t *testing.T) {
	dir := t.TempDir()
	fixturePath := filepath.Join(dir, "fixture.yml")
	require.NoError(t, os.WriteFile(fixturePath, []byte(fixture), 0o600))

	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBSQLitePath: filepath.Join(dir, "warbler.db"),
		BcryptCost:   bcrypt.MinCost,
	}

	db, rdb, err := InitRuntime(cfg, Options{FixturePath: fixturePath})
	require.NoError(t, err)
	assert.Nil(t, rdb)

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.EqualValues(t, 1, users)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// A second start against the same file must not duplicate the fixture.
	db, _, err = InitRuntime(cfg, Options{FixturePath: fixturePath})
	require.NoError(t, err)
	var msgs int64
	require.NoError(t, db.Model(&models.Message{}).Count(&msgs).Error)
	assert.EqualValues(t, 1, msgs)

	sqlDB, err = db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())
}

func TestInitRuntime_BadFixture(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{
		Env:          "test",
		DBDriver:     "sqlite",
		DBSQLitePath: filepath.Join(dir, "warbler.db"),
	}

	_, _, err := InitRuntime(cfg, Options{FixturePath: filepath.Join(dir, "missing.yml")})
	assert.Error(t, err)
}
