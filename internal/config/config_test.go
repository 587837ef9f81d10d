package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:                "5000",
		Env:                 "development",
		DBDriver:            "postgres",
		DBPassword:          "secure-password",
		DBSSLMode:           "require",
		BcryptCost:          12,
		TimelineLimit:       100,
		TracingSamplerRatio: 1,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"sqlite without path", func(c *Config) { c.DBDriver = "sqlite"; c.DBSQLitePath = "" }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 2 }},
		{"negative timeline", func(c *Config) { c.TimelineLimit = -1 }},
		{"sampler above one", func(c *Config) { c.TracingSamplerRatio = 1.5 }},
		{"sqlite in production", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite"; c.DBSQLitePath = "x.db" }},
		{"default password in production", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("sqlite with path", func(t *testing.T) {
		c := validConfig()
		c.DBDriver = "sqlite"
		c.DBSQLitePath = "warbler.db"
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("PORT", "6001")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("DB_SQLITE_PATH", ":memory:")
	t.Setenv("BCRYPT_COST", "4")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "6001", c.Port)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, ":memory:", c.DBSQLitePath)
	assert.Equal(t, 4, c.BcryptCost)
	assert.Equal(t, "warbler_session", c.SessionCookieName)
	assert.Equal(t, 100, c.TimelineLimit)
}
