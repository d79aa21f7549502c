package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Deji-py/insta-enricher/internal/service/export"
)

// UserConfig represents ~/.enrich/config.yaml.
type UserConfig struct {
	CurrentProfile string             `yaml:"current-profile"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// Profile is a named set of defaults. Export credentials are only read by
// the download commands.
type Profile struct {
	Host   string `yaml:"host,omitempty" json:"host,omitempty"`
	Output string `yaml:"output,omitempty" json:"output,omitempty"`
	Dest   string `yaml:"dest,omitempty" json:"dest,omitempty"`

	S3KeyID    string `yaml:"s3-key-id,omitempty" json:"s3_key_id,omitempty"`
	S3Secret   string `yaml:"s3-secret,omitempty" json:"s3_secret,omitempty"`
	S3Endpoint string `yaml:"s3-endpoint,omitempty" json:"s3_endpoint,omitempty"`
	S3Region   string `yaml:"s3-region,omitempty" json:"s3_region,omitempty"`

	GCSKeyFile string `yaml:"gcs-key-file,omitempty" json:"gcs_key_file,omitempty"`

	AzureAccountName string `yaml:"azure-account-name,omitempty" json:"azure_account_name,omitempty"`
	AzureAccountKey  string `yaml:"azure-account-key,omitempty" json:"azure_account_key,omitempty"`
}

// ActiveProfile returns the override profile, else the current one. A
// missing current profile is an empty Profile; a missing override is an error.
func (c *UserConfig) ActiveProfile(override string) (Profile, error) {
	name := c.CurrentProfile
	if override != "" {
		name = override
	}
	if p, ok := c.Profiles[name]; ok {
		return p, nil
	}
	if override != "" {
		return Profile{}, fmt.Errorf("profile %q not found", override)
	}
	return Profile{}, nil
}

// Credentials converts the profile's export settings, letting the standard
// environment variables win over stored values.
func (p Profile) Credentials() export.Credentials {
	return export.Credentials{
		S3KeyID:          envOr("KEY_ID", p.S3KeyID),
		S3Secret:         envOr("SECRET", p.S3Secret),
		S3Endpoint:       envOr("ENDPOINT", p.S3Endpoint),
		S3Region:         envOr("REGION", p.S3Region),
		GCSKeyFile:       envOr("GCS_KEY_FILE", p.GCSKeyFile),
		AzureAccountName: envOr("AZURE_ACCOUNT_NAME", p.AzureAccountName),
		AzureAccountKey:  envOr("AZURE_ACCOUNT_KEY", p.AzureAccountKey),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ConfigDir returns the path to ~/.enrich/.
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".enrich")
}

// ConfigPath returns the path to ~/.enrich/config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LoadUserConfig reads ~/.enrich/config.yaml.
func LoadUserConfig() (*UserConfig, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg UserConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Profile{}
	}
	return &cfg, nil
}

// SaveUserConfig writes ~/.enrich/config.yaml with owner-only permissions.
func SaveUserConfig(cfg *UserConfig) error {
	if err := os.MkdirAll(ConfigDir(), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(ConfigPath(), data, 0o600)
}

func defaultUserConfig() *UserConfig {
	return &UserConfig{
		CurrentProfile: "default",
		Profiles:       map[string]Profile{},
	}
}
