package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserConfig_ActiveProfile(t *testing.T) {
	cfg := &UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Host: "http://localhost:3001", Output: "table"},
			"staging": {Host: "https://staging.example.com", Output: "json"},
		},
	}

	tests := []struct {
		name     string
		override string
		wantHost string
		wantErr  string
	}{
		{name: "uses current profile", wantHost: "http://localhost:3001"},
		{name: "override to staging", override: "staging", wantHost: "https://staging.example.com"},
		{name: "nonexistent override", override: "nonexistent", wantErr: `profile "nonexistent" not found`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := cfg.ActiveProfile(tt.override)
			if tt.wantErr != "" {
				require.EqualError(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHost, p.Host)
		})
	}
}

func TestUserConfig_ActiveProfileMissingCurrent(t *testing.T) {
	cfg := defaultUserConfig()
	p, err := cfg.ActiveProfile("")
	require.NoError(t, err)
	assert.Equal(t, Profile{}, p)
}

func TestLoadSaveUserConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	cfg := &UserConfig{
		CurrentProfile: "test",
		Profiles: map[string]Profile{
			"test": {Host: "http://test:3001", Dest: "s3://exports/leads/", S3Secret: "supersecretvalue"},
		},
	}
	require.NoError(t, SaveUserConfig(cfg))

	configPath := filepath.Join(dir, ".enrich", "config.yaml")
	fi, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "current-profile: test")
	assert.Contains(t, string(data), "s3-secret: supersecretvalue")

	loaded, err := LoadUserConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", loaded.CurrentProfile)
	require.Contains(t, loaded.Profiles, "test")
	assert.Equal(t, "http://test:3001", loaded.Profiles["test"].Host)
	assert.Equal(t, "s3://exports/leads/", loaded.Profiles["test"].Dest)
}

func TestLoadUserConfig_NotFound(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	_, err := LoadUserConfig()
	require.Error(t, err)
}

func TestProfile_CredentialsEnvWins(t *testing.T) {
	t.Setenv("KEY_ID", "env-key")
	t.Setenv("SECRET", "")
	t.Setenv("AZURE_ACCOUNT_NAME", "")

	p := Profile{S3KeyID: "profile-key", S3Secret: "profile-secret", AzureAccountName: "acct"}
	creds := p.Credentials()

	assert.Equal(t, "env-key", creds.S3KeyID)
	assert.Equal(t, "profile-secret", creds.S3Secret)
	assert.Equal(t, "acct", creds.AzureAccountName)
}
