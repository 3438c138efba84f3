package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DATA_DIR", "SECRET_KEY", "ADMIN_USERNAME", "ADMIN_PASSWORD_HASH"} {
		t.Setenv(key, "")
	}
	cfg, err := Load("", quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, "frcqn", cfg.Admin.Username)
	// default password is hashed at startup
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(cfg.Admin.PasswordHash), []byte("00000000")))
}

func TestFileAndEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"port: \"8080\"\ndata_dir: /tmp/blog\nadmin:\n  username: chief\n  password_hash: fakehash\n"), 0644))

	cfg, err := Load(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "/tmp/blog", cfg.DataDir)
	assert.Equal(t, "chief", cfg.Admin.Username)
	assert.Equal(t, "fakehash", cfg.Admin.PasswordHash)

	// env wins over file
	t.Setenv("PORT", "9090")
	t.Setenv("ADMIN_USERNAME", "boss")
	cfg, err = Load(path, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "boss", cfg.Admin.Username)
}

func TestMissingFileFallsBack(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), quietLogger())
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
}

func TestBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [unclosed"), 0644))
	_, err := Load(path, quietLogger())
	assert.Error(t, err)
}
