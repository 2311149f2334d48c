package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		WatchDir:    "/backup",
		RemoteDir:   "/Apps/MyBackup",
		AccessToken: "sl.test-token",
	}
}

func TestValidate_Defaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, DirectionBackup, cfg.Direction)
	assert.Equal(t, DefaultInterval, cfg.Interval)
}

func TestValidate_RequiredFields(t *testing.T) {
	cfg := validConfig()
	cfg.WatchDir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrNoWatchDir)

	cfg = validConfig()
	cfg.RemoteDir = ""
	assert.ErrorIs(t, cfg.Validate(), ErrNoRemoteDir)

	cfg = validConfig()
	cfg.AccessToken = ""
	assert.ErrorIs(t, cfg.Validate(), ErrNoCredentials)
}

func TestValidate_RefreshTripleSufficient(t *testing.T) {
	cfg := validConfig()
	cfg.AccessToken = ""
	cfg.RefreshToken = "rt"
	cfg.AppKey = "key"
	cfg.AppSecret = "secret"

	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.HasRefreshCredentials())

	// A partial triple is not enough.
	cfg.AppSecret = ""
	assert.False(t, cfg.HasRefreshCredentials())
	assert.ErrorIs(t, cfg.Validate(), ErrNoCredentials)
}

func TestValidate_NormalizesRemoteDir(t *testing.T) {
	for raw, want := range map[string]string{
		"Apps/MyBackup":   "/Apps/MyBackup",
		"/Apps/MyBackup/": "/Apps/MyBackup",
		"//double//":      "/double",
	} {
		cfg := validConfig()
		cfg.RemoteDir = raw
		require.NoError(t, cfg.Validate())
		assert.Equal(t, want, cfg.RemoteDir)
	}
}

func TestValidate_Direction(t *testing.T) {
	cfg := validConfig()
	cfg.Direction = DirectionRestore
	require.NoError(t, cfg.Validate())

	cfg.Direction = "sideways"
	assert.Error(t, cfg.Validate())
}

func TestValidate_KeepsExplicitInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Interval = 5 * time.Second
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 5*time.Second, cfg.Interval)
}
