package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFile_Defaults(t *testing.T) {
	path := writeConfig(t, "database:\n  url: postgres://localhost/langgol\n")
	c := LoadConfigFile(path)

	require.NotNil(t, c)
	assert.Equal(t, 5001, c.Server.Port)
	assert.Equal(t, "postgres://localhost/langgol", c.Database.DSN)
	assert.Equal(t, "./files", c.Files.RootDir)
	assert.Equal(t, 5, c.Demo.RequestLimit)
	assert.Equal(t, 120, c.Demo.TalkTimeLimit)
	assert.Equal(t, 30, c.Demo.CookieDays)
	assert.Equal(t, 30, c.Outbox.PollSeconds)
	assert.Equal(t, 5, c.Outbox.MaxAttempts)
}

func TestLoadConfigFile_Overrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 8080
demo:
  request_limit: 3
  talk_time_limit: 60
  cookie_days: 7
outbox:
  poll_seconds: 5
  max_attempts: 2
admin:
  email: admin@langgol.app
  password: adminpassword
  name: Admin User
`)
	c := LoadConfigFile(path)

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 3, c.Demo.RequestLimit)
	assert.Equal(t, 60, c.Demo.TalkTimeLimit)
	assert.Equal(t, 7, c.Demo.CookieDays)
	assert.Equal(t, 5, c.Outbox.PollSeconds)
	assert.Equal(t, 2, c.Outbox.MaxAttempts)
	assert.Equal(t, "admin@langgol.app", c.Admin.Email)
}

func TestLoadConfigFile_MissingFilePanics(t *testing.T) {
	assert.Panics(t, func() { LoadConfigFile("does/not/exist.yaml") })
}
