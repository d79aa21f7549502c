package cli

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration profiles",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigSetProfileCmd())
	cmd.AddCommand(newConfigUseProfileCmd())
	cmd.AddCommand(newConfigDeleteProfileCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display configured profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "No configuration found at %s\n", ConfigPath())
				return err
			}
			if !reveal {
				cfg = maskConfig(cfg)
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, cfg)
			}

			names := make([]string, 0, len(cfg.Profiles))
			for name := range cfg.Profiles {
				names = append(names, name)
			}
			sort.Strings(names)
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				p := cfg.Profiles[name]
				active := ""
				if name == cfg.CurrentProfile {
					active = "*"
				}
				rows = append(rows, []string{name, active, p.Host, p.Output, p.Dest})
			}
			PrintTable(os.Stdout, []string{"profile", "active", "host", "output", "dest"}, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Show sensitive values unmasked")

	return cmd
}

// maskConfig returns a copy of the config with secrets masked.
func maskConfig(cfg *UserConfig) *UserConfig {
	masked := &UserConfig{
		CurrentProfile: cfg.CurrentProfile,
		Profiles:       make(map[string]Profile, len(cfg.Profiles)),
	}
	for name, p := range cfg.Profiles {
		p.S3Secret = maskSecret(p.S3Secret)
		p.AzureAccountKey = maskSecret(p.AzureAccountKey)
		masked.Profiles[name] = p
	}
	return masked
}

// maskSecret keeps the first and last four characters of long values.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 10 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func newConfigSetProfileCmd() *cobra.Command {
	var (
		name string
		p    Profile
	)

	cmd := &cobra.Command{
		Use:   "set-profile",
		Short: "Create or update a configuration profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if name == "" {
				return fmt.Errorf("--name is required")
			}
			flags := cmd.Flags()
			if flags.Changed("host") {
				host, err := normalizeHost(p.Host)
				if err != nil {
					return err
				}
				p.Host = host
			}
			if flags.Changed("output") {
				if err := validateOutputFormat(p.Output); err != nil {
					return err
				}
			}

			cfg, err := LoadUserConfig()
			if err != nil {
				cfg = defaultUserConfig()
			}

			cur := cfg.Profiles[name]
			set := func(flag string, dst *string, v string) {
				if flags.Changed(flag) {
					*dst = v
				}
			}
			set("host", &cur.Host, p.Host)
			set("output", &cur.Output, p.Output)
			set("dest", &cur.Dest, p.Dest)
			set("s3-key-id", &cur.S3KeyID, p.S3KeyID)
			set("s3-secret", &cur.S3Secret, p.S3Secret)
			set("s3-endpoint", &cur.S3Endpoint, p.S3Endpoint)
			set("s3-region", &cur.S3Region, p.S3Region)
			set("gcs-key-file", &cur.GCSKeyFile, p.GCSKeyFile)
			set("azure-account-name", &cur.AzureAccountName, p.AzureAccountName)
			set("azure-account-key", &cur.AzureAccountKey, p.AzureAccountKey)
			cfg.Profiles[name] = cur

			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"status":  "ok",
					"profile": name,
					"path":    ConfigPath(),
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q saved to %s\n", name, ConfigPath())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&name, "name", "", "Profile name (required)")
	f.StringVar(&p.Host, "host", "", "Backend host URL")
	f.StringVar(&p.Output, "output", "", "Default output format")
	f.StringVar(&p.Dest, "dest", "", "Default export destination (path, s3://, gs://, az://)")
	f.StringVar(&p.S3KeyID, "s3-key-id", "", "S3 access key id")
	f.StringVar(&p.S3Secret, "s3-secret", "", "S3 secret access key")
	f.StringVar(&p.S3Endpoint, "s3-endpoint", "", "S3-compatible endpoint")
	f.StringVar(&p.S3Region, "s3-region", "", "S3 region")
	f.StringVar(&p.GCSKeyFile, "gcs-key-file", "", "GCS service account key file")
	f.StringVar(&p.AzureAccountName, "azure-account-name", "", "Azure storage account name")
	f.StringVar(&p.AzureAccountKey, "azure-account-key", "", "Azure storage account key")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newConfigUseProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use-profile <name>",
		Short: "Set the active configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			cfg.CurrentProfile = name
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			if getOutputFormat(cmd) == "json" {
				return PrintJSON(os.Stdout, map[string]string{
					"status":         "ok",
					"active_profile": name,
				})
			}
			_, _ = fmt.Fprintf(os.Stdout, "Active profile set to %q\n", name)
			return nil
		},
	}
}

func newConfigDeleteProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-profile <name>",
		Short: "Remove a configuration profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := LoadUserConfig()
			if err != nil {
				return fmt.Errorf("no config found: %w", err)
			}
			name := args[0]
			if _, ok := cfg.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found", name)
			}
			if name == cfg.CurrentProfile {
				return fmt.Errorf("profile %q is active; switch with 'enrich config use-profile' first", name)
			}
			delete(cfg.Profiles, name)
			if err := SaveUserConfig(cfg); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "Profile %q deleted\n", name)
			return nil
		},
	}
}
